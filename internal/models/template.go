package models

import (
	"fmt"
	"strings"
	"time"
)

// Template is a named, persisted CoverData usable as a starting point for a cover.
type Template struct {
	ID        string    `json:"id"                  bson:"id"`
	Name      string    `json:"name"                bson:"name"`
	CoverData CoverData `json:"coverData"           bson:"coverData"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Clone returns a deep copy of t.
func (t Template) Clone() Template {
	t.CoverData = t.CoverData.Clone()
	return t
}

// PlaceholderIDPrefix marks ids minted by an editor before the template is persisted.
const PlaceholderIDPrefix = "template-"

// NewPlaceholderID returns a client-side id of the form template-<unix millis>.
func NewPlaceholderID(now time.Time) string {
	return fmt.Sprintf("%s%d", PlaceholderIDPrefix, now.UnixMilli())
}

// IsPlaceholderID reports whether id was minted client-side.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, PlaceholderIDPrefix)
}

// CloneTemplates deep-copies a template slice. A nil input yields an empty slice.
func CloneTemplates(in []Template) []Template {
	out := make([]Template, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// TemplateDocument is the single remote document holding every template.
type TemplateDocument struct {
	ID           string     `json:"-"            bson:"_id"`
	AllTemplates []Template `json:"allTemplates" bson:"allTemplates"`
	LastModified time.Time  `json:"lastModified" bson:"lastModified"`
	// Version increments on every write; it is the optimistic-concurrency token.
	Version int64 `json:"version" bson:"version"`
}

// LegacyTemplate is the pre-migration layout: one Mongo document per template.
type LegacyTemplate struct {
	ID        any       `bson:"_id"`
	Name      string    `bson:"name"`
	CoverData CoverData `bson:"coverData"`
	CreatedAt time.Time `bson:"createdAt,omitempty"`
}
