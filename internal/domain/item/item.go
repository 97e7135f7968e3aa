package item

import (
	"strings"

	"github.com/kailas-cloud/itemsearch/internal/domain"
)

// DefaultCategory is used when an item carries no category.
const DefaultCategory = "other"

// Item is the catalog item aggregate (immutable value object).
type Item struct {
	id        string
	title     string
	details   string
	category  string
	location  string
	groupID   string
	embedding []float32
}

// New validates and creates an Item.
// ID and title are required; an empty category falls back to DefaultCategory.
func New(id, title, details, category, location string) (Item, error) {
	if strings.TrimSpace(id) == "" {
		return Item{}, domain.NewValidationError("item_id", "is required")
	}
	if strings.TrimSpace(title) == "" {
		return Item{}, domain.NewValidationError("title", "is required")
	}
	if category == "" {
		category = DefaultCategory
	}
	return Item{
		id:       id,
		title:    title,
		details:  details,
		category: category,
		location: location,
	}, nil
}

// Reconstruct creates an Item without validation (storage hydration).
func Reconstruct(id, title, details, category, location, groupID string, embedding []float32) Item {
	return Item{
		id: id, title: title, details: details, category: category,
		location: location, groupID: groupID, embedding: embedding,
	}
}

// ID returns the item identifier.
func (i *Item) ID() string { return i.id }

// Title returns the item title.
func (i *Item) Title() string { return i.title }

// Details returns the free-form item details (may be empty).
func (i *Item) Details() string { return i.details }

// Category returns the stored category as-is (may be empty for hydrated rows).
func (i *Item) Category() string { return i.category }

// Location returns the item location (may be empty).
func (i *Item) Location() string { return i.location }

// GroupID returns the owning group.
func (i *Item) GroupID() string { return i.groupID }

// Embedding returns the stored vector, nil until computed.
func (i *Item) Embedding() []float32 { return i.embedding }

// Eligible reports whether the item can be embedded.
func (i *Item) Eligible() bool { return strings.TrimSpace(i.title) != "" }

// EmbeddingText renders the deterministic embedding input:
//
//	Title: {title}. [Details: {details}.] Category: {category|other}. [Location: {location}.]
//
// Absent optional segments are omitted entirely.
func (i *Item) EmbeddingText() string {
	category := i.category
	if category == "" {
		category = DefaultCategory
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "Title: "+i.title+".")
	if i.details != "" {
		parts = append(parts, "Details: "+i.details+".")
	}
	parts = append(parts, "Category: "+category+".")
	if i.location != "" {
		parts = append(parts, "Location: "+i.location+".")
	}
	return strings.Join(parts, " ")
}
