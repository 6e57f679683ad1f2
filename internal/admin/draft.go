package admin

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/example/storefront-client/internal/catalog"
)

var (
	ErrInvalidOriginPrice = errors.New("origin_price is not a number")
	ErrInvalidPrice       = errors.New("price is not a number")
)

// DialogTarget discriminates what the editor dialog was opened for.
type DialogTarget string

const (
	TargetCreate DialogTarget = "create"
	TargetEdit   DialogTarget = "edit"
)

// Draft is the editable working copy of a product owned by the editor
// dialog. Price fields stay as input text until Submit normalizes them;
// the draft is discarded on cancel and only reaches the server through the
// orchestrator.
type Draft struct {
	ID          string
	Title       string
	Category    string
	Unit        string
	OriginPrice string
	Price       string
	Description string
	Content     string
	IsEnabled   int
	ImageURL    string
	ImagesURL   []string
}

// NewDraft returns the empty draft the create dialog starts from.
func NewDraft() Draft {
	return Draft{ImagesURL: []string{}}
}

// DraftOf builds an edit draft from an existing record.
func DraftOf(p catalog.Product) Draft {
	images := make([]string, len(p.ImagesURL))
	copy(images, p.ImagesURL)
	return Draft{
		ID:          p.ID,
		Title:       p.Title,
		Category:    p.Category,
		Unit:        p.Unit,
		OriginPrice: strconv.FormatFloat(p.OriginPrice, 'f', -1, 64),
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		Description: p.Description,
		Content:     p.Content,
		IsEnabled:   p.IsEnabled,
		ImageURL:    p.ImageURL,
		ImagesURL:   images,
	}
}

// AddGalleryImage appends an empty slot for a new gallery URL input.
func (d *Draft) AddGalleryImage() {
	d.ImagesURL = append(d.ImagesURL, "")
}

// RemoveGalleryImage drops the slot at i; out-of-range indexes are ignored.
func (d *Draft) RemoveGalleryImage(i int) {
	if i < 0 || i >= len(d.ImagesURL) {
		return
	}
	d.ImagesURL = append(d.ImagesURL[:i], d.ImagesURL[i+1:]...)
}

// SetGalleryImage updates the slot at i; out-of-range indexes are ignored.
func (d *Draft) SetGalleryImage(i int, url string) {
	if i < 0 || i >= len(d.ImagesURL) {
		return
	}
	d.ImagesURL[i] = url
}

// ApplyCategoryFacet fills the category from a quick-select badge.
func (d *Draft) ApplyCategoryFacet(category string) { d.Category = category }

// ApplyUnitFacet fills the unit from a quick-select badge.
func (d *Draft) ApplyUnitFacet(unit string) { d.Unit = unit }

// normalize converts the draft to the record the API accepts: price fields
// parsed from input text, and an empty gallery replaced by the single
// empty-string placeholder the API requires.
func (d Draft) normalize() (catalog.Product, error) {
	originPrice, err := strconv.ParseFloat(d.OriginPrice, 64)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("%w: %q", ErrInvalidOriginPrice, d.OriginPrice)
	}
	price, err := strconv.ParseFloat(d.Price, 64)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("%w: %q", ErrInvalidPrice, d.Price)
	}

	images := d.ImagesURL
	if len(images) == 0 {
		images = []string{""}
	}

	return catalog.Product{
		ID:          d.ID,
		Title:       d.Title,
		Category:    d.Category,
		Unit:        d.Unit,
		OriginPrice: originPrice,
		Price:       price,
		Description: d.Description,
		Content:     d.Content,
		IsEnabled:   d.IsEnabled,
		ImageURL:    d.ImageURL,
		ImagesURL:   images,
	}, nil
}
