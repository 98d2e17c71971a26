package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// DetailCategory groups admin-defined detail fields (e.g. "accommodation": ["hotel", "room type"])
type DetailCategory struct {
	ID     string   `json:"id" bson:"id" firestore:"id"`
	Name   string   `json:"name" bson:"name" firestore:"name"`
	Fields []string `json:"fields" bson:"fields" firestore:"fields"`
}

// DetailSchema describes the shape of Package.Details for one catalogue
type DetailSchema struct {
	PackageType PackageType      `json:"packageType" bson:"_id" firestore:"packageType"`
	Categories  []DetailCategory `json:"categories" bson:"categories" firestore:"categories"`
	UpdatedAt   time.Time        `json:"updatedAt" bson:"updatedAt" firestore:"updatedAt"`
}

var categoryIDPattern = regexp.MustCompile(`[^a-z0-9]+`)

// CategoryID derives a stable id from a display name ("Surf Level" -> "surf-level")
func CategoryID(name string) string {
	id := categoryIDPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(id, "-")
}

// Category returns the index of the category, or -1
func (s *DetailSchema) Category(id string) int {
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			return i
		}
	}
	return -1
}

// HasField reports whether the category already declares the field
func (c *DetailCategory) HasField(field string) bool {
	for _, f := range c.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// DetailMigration is one schema edit applied to every package's details map.
type DetailMigration struct {
	CategoryID string
	Field      string // empty for category-level migrations
	Remove     bool
	Fields     []string // fields to initialise when a category is added
}

// ApplyTo mutates pkg.Details and reports whether anything changed.
func (m DetailMigration) ApplyTo(pkg *Package) bool {
	pkg.Normalize()
	cat, exists := pkg.Details[m.CategoryID]

	switch {
	case m.Remove && m.Field == "":
		if !exists {
			return false
		}
		delete(pkg.Details, m.CategoryID)
		return true

	case m.Remove:
		if !exists {
			return false
		}
		if _, ok := cat[m.Field]; !ok {
			return false
		}
		delete(cat, m.Field)
		return true

	case m.Field == "":
		changed := false
		if !exists {
			cat = map[string]string{}
			pkg.Details[m.CategoryID] = cat
			changed = true
		}
		for _, f := range m.Fields {
			if _, ok := cat[f]; !ok {
				cat[f] = ""
				changed = true
			}
		}
		return changed

	default:
		if !exists {
			cat = map[string]string{}
			pkg.Details[m.CategoryID] = cat
		}
		if _, ok := cat[m.Field]; ok {
			return !exists
		}
		cat[m.Field] = ""
		return true
	}
}

// InitDetails fills in every declared category/field missing from details
func (s *DetailSchema) InitDetails(pkg *Package) {
	for _, c := range s.Categories {
		DetailMigration{CategoryID: c.ID, Fields: c.Fields}.ApplyTo(pkg)
	}
}

// DetailSchemaRepository stores one schema document per package type.
// Get returns an empty schema when none has been saved yet.
type DetailSchemaRepository interface {
	Get(ctx context.Context, pkgType PackageType) (*DetailSchema, error)
	Save(ctx context.Context, schema *DetailSchema) error
}
