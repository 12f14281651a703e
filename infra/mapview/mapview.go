// Package mapview derives the display-only map shown behind the pod list.
package mapview

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/twpayne/go-geom"

	"github.com/kilianp07/xcharge/core/model"
)

const (
	DefaultQuery   = "gurugram"
	DefaultZoom    = 14
	DefaultBaseURL = "https://www.google.com/maps"
)

// Config controls the embed URL.
type Config struct {
	Query   string `json:"query" yaml:"query"`
	Zoom    int    `json:"zoom" yaml:"zoom"`
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Query == "" {
		c.Query = DefaultQuery
	}
	if c.Zoom == 0 {
		c.Zoom = DefaultZoom
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Validate checks the zoom range accepted by the embed endpoint.
func (c Config) Validate() error {
	if c.Zoom < 1 || c.Zoom > 21 {
		return fmt.Errorf("map zoom %d out of range 1..21", c.Zoom)
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("map base_url: %w", err)
	}
	return nil
}

// Bounds is a lat/lon bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// View is what the renderers need to draw the map panel.
type View struct {
	EmbedURL string             `json:"embed_url"`
	Centre   *model.Coordinates `json:"centre,omitempty"`
	Bounds   *Bounds            `json:"bounds,omitempty"`
}

// fleet packs the located pods as an XY multipoint (x = lon, y = lat).
func fleet(pods []model.Pod) *geom.MultiPoint {
	flat := make([]float64, 0, 2*len(pods))
	for _, p := range pods {
		if p.Coordinates == nil {
			continue
		}
		flat = append(flat, p.Coordinates.Lon, p.Coordinates.Lat)
	}
	return geom.NewMultiPointFlat(geom.XY, flat)
}

// FleetBounds returns the bounding box of every pod with coordinates.
func FleetBounds(pods []model.Pod) (Bounds, bool) {
	mp := fleet(pods)
	if mp.NumPoints() == 0 {
		return Bounds{}, false
	}
	b := mp.Bounds()
	return Bounds{MinLat: b.Min(1), MinLon: b.Min(0), MaxLat: b.Max(1), MaxLon: b.Max(0)}, true
}

// FleetCentre returns the centre of the fleet bounds.
func FleetCentre(pods []model.Pod) (model.Coordinates, bool) {
	b, ok := FleetBounds(pods)
	if !ok {
		return model.Coordinates{}, false
	}
	return model.Coordinates{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}, true
}

// EmbedURL builds the Google Maps embed URL. With nil coordinates the
// configured free-text query is used.
func EmbedURL(cfg Config, at *model.Coordinates) string {
	cfg.SetDefaults()
	q := cfg.Query
	if at != nil {
		q = strconv.FormatFloat(at.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(at.Lon, 'f', 6, 64)
	}
	v := url.Values{}
	v.Set("q", q)
	v.Set("z", strconv.Itoa(cfg.Zoom))
	v.Set("output", "embed")
	return cfg.BaseURL + "?" + v.Encode()
}

// Build picks the map focus: the selected pod, else the fleet centre, else
// the default query.
func Build(cfg Config, pods []model.Pod, selected *model.Pod) View {
	var v View
	if b, ok := FleetBounds(pods); ok {
		v.Bounds = &b
	}
	switch {
	case selected != nil && selected.Coordinates != nil:
		c := *selected.Coordinates
		v.Centre = &c
	case v.Bounds != nil:
		c, _ := FleetCentre(pods)
		v.Centre = &c
	}
	v.EmbedURL = EmbedURL(cfg, v.Centre)
	return v
}
