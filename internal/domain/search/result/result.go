package result

// Result is a single scored search hit.
type Result struct {
	id         string
	title      string
	details    string
	category   string
	location   string
	groupID    string
	similarity float64
}

// New creates a search result.
func New(id, title, details, category, location, groupID string, similarity float64) Result {
	return Result{
		id: id, title: title, details: details, category: category,
		location: location, groupID: groupID, similarity: similarity,
	}
}

// ID returns the item identifier.
func (r *Result) ID() string { return r.id }

// Title returns the item title.
func (r *Result) Title() string { return r.title }

// Details returns the item details.
func (r *Result) Details() string { return r.details }

// Category returns the item category.
func (r *Result) Category() string { return r.category }

// Location returns the item location.
func (r *Result) Location() string { return r.location }

// GroupID returns the group owning the item.
func (r *Result) GroupID() string { return r.groupID }

// Similarity returns the store-reported similarity score.
func (r *Result) Similarity() float64 { return r.similarity }
