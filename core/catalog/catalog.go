// Package catalog holds the static, read-only list of dispatchable pods and
// the trivia shown while a dispatch is loading. A catalog is loaded once at
// startup, either from the embedded defaults or from a YAML/JSON file, and is
// never mutated afterwards.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/xcharge/core/model"
)

//go:embed default.yaml
var defaultCatalog []byte

// ErrUnknownPod is returned by Lookup when no pod carries the requested id.
var ErrUnknownPod = errors.New("unknown pod")

type document struct {
	Pods   []model.Pod    `json:"pods" yaml:"pods"`
	Trivia []model.Trivia `json:"trivia" yaml:"trivia"`
}

// Catalog is an immutable pod and trivia list.
type Catalog struct {
	pods   []model.Pod
	byID   map[int]int
	trivia []model.Trivia
}

// New builds a catalog after validating every pod and rejecting duplicate ids.
func New(pods []model.Pod, trivia []model.Trivia) (*Catalog, error) {
	c := &Catalog{
		pods:   make([]model.Pod, len(pods)),
		byID:   make(map[int]int, len(pods)),
		trivia: make([]model.Trivia, len(trivia)),
	}
	copy(c.pods, pods)
	copy(c.trivia, trivia)
	for i, p := range c.pods {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate pod id %d", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Decode(strings.NewReader(string(defaultCatalog)), "yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from a JSON or YAML file. An empty path yields the
// embedded defaults.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Decode(f, ext)
}

// Decode reads a catalog document from r in the given format.
func Decode(r io.Reader, format string) (*Catalog, error) {
	var doc document
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}
	return New(doc.Pods, doc.Trivia)
}

// Pods returns a copy of the pod list in catalog order.
func (c *Catalog) Pods() []model.Pod {
	out := make([]model.Pod, len(c.pods))
	copy(out, c.pods)
	return out
}

// Trivia returns a copy of the trivia list.
func (c *Catalog) Trivia() []model.Trivia {
	out := make([]model.Trivia, len(c.trivia))
	copy(out, c.trivia)
	return out
}

// TriviaLen returns the number of trivia entries.
func (c *Catalog) TriviaLen() int { return len(c.trivia) }

// TriviaAt returns the entry at i modulo the list length. The zero value is
// returned for an empty list.
func (c *Catalog) TriviaAt(i int) model.Trivia {
	n := len(c.trivia)
	if n == 0 {
		return model.Trivia{}
	}
	i %= n
	if i < 0 {
		i += n
	}
	return c.trivia[i]
}

// Lookup returns the pod with the given id.
func (c *Catalog) Lookup(id int) (model.Pod, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Pod{}, fmt.Errorf("%w: %d", ErrUnknownPod, id)
	}
	return c.pods[i], nil
}
