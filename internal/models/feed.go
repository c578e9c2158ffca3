package models

import "fmt"

// MediaType selects how a feed item is rendered downstream.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
)

// Valid reports whether t is one of the known media types.
func (t MediaType) Valid() bool {
	return t == MediaTypeVideo || t == MediaTypeImage
}

// UnmarshalText rejects unknown media types so they surface as decode failures.
func (t *MediaType) UnmarshalText(b []byte) error {
	v := MediaType(b)
	if !v.Valid() {
		return fmt.Errorf("unknown media type %q", string(b))
	}
	*t = v
	return nil
}

// FeedItem is a unit of campus news content.
type FeedItem struct {
	Type      MediaType `json:"type" yaml:"type"`
	Tag       string    `json:"tag" yaml:"tag"`
	Title     string    `json:"title" yaml:"title"`
	Body      string    `json:"body" yaml:"body"`
	MediaName string    `json:"mediaName" yaml:"mediaName"`
	Location  string    `json:"location" yaml:"location"`
}
