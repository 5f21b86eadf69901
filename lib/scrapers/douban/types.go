package douban

// WorkItem is one consumed book/movie/music entry. Immutable once
// parsed; the token-budget layer copies before stripping fields.
type WorkItem struct {
	Title   string `json:"title"`
	Rating  int    `json:"rating,omitempty"` // 1..5, 0 when absent
	Date    string `json:"date,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// CollectionPage is the parse result of one listing page.
//
// DeclaredTotal comes from the page <title> count suffix and is
// authoritative over len(Items): a user may own more items than one
// page shows. 0 means "unknown", never "zero items".
type CollectionPage struct {
	Items         []WorkItem
	DeclaredTotal int
	// NameHint is the display name recovered from the page title,
	// a fallback only, never authoritative.
	NameHint string
}

// Profile is the identity block from the main profile page.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
}
