package itemsearch

// Item is a catalog item to embed. ID and Title are required; an empty
// Category is stored as "other".
type Item struct {
	ID       string
	Title    string
	Details  string
	Category string
	Location string
}

// SearchResult is a single search hit, most similar first.
type SearchResult struct {
	ID         string
	Title      string
	Details    string
	Category   string
	Location   string
	GroupID    string
	Similarity float64
}

// RegenReport summarizes a regeneration run.
type RegenReport struct {
	RunID     string
	Message   string
	Total     int
	Processed int
	Succeeded []string
	Errors    []string // "Item <id>: <reason>"
}

// SearchOption tunes a single search call.
type SearchOption func(*searchParams)

type searchParams struct {
	topK      int
	category  *string
	threshold float64
}

// WithTopK caps the number of results. Default 10.
func WithTopK(k int) SearchOption {
	return func(p *searchParams) { p.topK = k }
}

// WithCategory keeps only items whose category equals c exactly. An empty c disables the filter.
func WithCategory(c string) SearchOption {
	return func(p *searchParams) { p.category = &c }
}

// WithThreshold drops results with similarity below t. Default 0.3.
func WithThreshold(t float64) SearchOption {
	return func(p *searchParams) { p.threshold = t }
}
