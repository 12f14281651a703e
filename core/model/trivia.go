package model

// Trivia is a short fact rotated on screen while a dispatch is loading.
type Trivia struct {
	Title  string `json:"title" yaml:"title"`
	Detail string `json:"detail" yaml:"detail"`
}
