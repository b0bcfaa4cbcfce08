// Package catalog defines the contract with the external content catalog.
// The core never mutates catalog content; items are immutable inputs.
package catalog

import "context"

// ContentType labels the form a piece of content takes.
type ContentType string

const (
	TypeLesson     ContentType = "lesson"
	TypeExercise   ContentType = "exercise"
	TypeVideo      ContentType = "video"
	TypeReading    ContentType = "reading"
	TypeProject    ContentType = "project"
	TypeAssessment ContentType = "assessment"
)

// ContentItem is a single piece of learning content, owned by the
// external catalog.
type ContentItem struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Subject     string      `json:"subject"`
	ContentType ContentType `json:"content_type"`
	// Difficulty uses the same 1-10 scale as skill nodes.
	Difficulty       int `json:"difficulty"`
	EstimatedMinutes int `json:"estimated_minutes"`
}

// Filters narrows a catalog listing. Zero values mean "no constraint".
type Filters struct {
	Subject       string
	ContentTypes  []ContentType
	MaxDifficulty int
	MinDifficulty int
}

// Catalog lists available content. Implementations are expected to be
// safe for concurrent readers.
type Catalog interface {
	ListAvailableContent(ctx context.Context, f Filters) ([]ContentItem, error)
}
