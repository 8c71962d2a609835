package types

// Book is the metadata record a lookup produces. Once built it is read-only
// input for all generation steps, except the single FillMissingFrom merge a
// multi-source lookup may apply.
type Book struct {
	Isbn        string `json:"isbn"`
	Title       string `json:"title"`
	Author      string `json:"author"` // comma-joined if multiple
	Year        *int   `json:"publication_year,omitempty"`
	Pages       *int   `json:"pages,omitempty"`
	Description string `json:"description,omitempty"`
}

// FillMissingFrom copies optional fields from other into b, but only those
// which b does not carry yet. Present values are NEVER overwritten!
func (b *Book) FillMissingFrom(other *Book) {
	if other == nil {
		return
	}

	if b.Pages == nil && other.Pages != nil {
		b.Pages = other.Pages
	}
	if b.Description == "" && other.Description != "" {
		b.Description = other.Description
	}
}
