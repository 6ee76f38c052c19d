package report

// Item is a single repair entry: a free-text description plus the ordered
// photographs attached to it.
type Item struct {
	ID          int      `json:"id"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	images := make([]string, len(it.Images))
	copy(images, it.Images)
	return &Item{
		ID:          it.ID,
		Description: it.Description,
		Images:      images,
	}
}

// HasImage reports whether path is already attached to the item.
func (it *Item) HasImage(path string) bool {
	for _, img := range it.Images {
		if img == path {
			return true
		}
	}
	return false
}
