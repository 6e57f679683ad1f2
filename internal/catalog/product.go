package catalog

// Product is the catalog record as the remote API stores it. The gallery
// list imagesUrl is never persisted empty; writes normalize an empty slice
// to a single empty-string placeholder (see admin.Draft).
type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Unit        string   `json:"unit"`
	OriginPrice float64  `json:"origin_price"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	IsEnabled   int      `json:"is_enabled"`
	ImageURL    string   `json:"imageUrl"`
	ImagesURL   []string `json:"imagesUrl"`
}

// Enabled reports the is_enabled flag as a bool.
func (p Product) Enabled() bool { return p.IsEnabled == 1 }

// PageInfo is the pagination block returned with every admin product page.
// It is read-only and replaced wholesale on each fetch.
type PageInfo struct {
	TotalPages  int    `json:"total_pages"`
	CurrentPage int    `json:"current_page"`
	HasPre      bool   `json:"has_pre"`
	HasNext     bool   `json:"has_next"`
	Category    string `json:"category"`
}
