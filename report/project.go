package report

import (
	"fmt"
	"strings"
	"time"
)

// Version is stamped into saved project files.
const Version = "2.1.0"

// DefaultTitle is used when a project is exported without a title of its own.
const DefaultTitle = "维修检查报告"

// Project is an editable repair report: an ordered list of items plus the
// layout metadata derived from them. Project is not safe for concurrent
// mutation; callers that share one across goroutines must serialize access.
type Project struct {
	Title           string    `json:"title"`
	Items           []*Item   `json:"items"`
	CreatedTime     time.Time `json:"created_time"`
	MaxImagesPerRow int       `json:"max_images_per_row"`
	Version         string    `json:"version"`

	lastID int
}

// New returns an empty project with the given title.
func New(title string) *Project {
	return &Project{
		Title:           title,
		Items:           []*Item{},
		CreatedTime:     time.Now(),
		MaxImagesPerRow: 1,
		Version:         Version,
	}
}

// ExportTitle returns the title to render into documents, falling back to
// DefaultTitle when the project title is blank.
func (p *Project) ExportTitle() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return DefaultTitle
}

// AddItem appends a new item with the given description and returns it.
func (p *Project) AddItem(description string) *Item {
	p.lastID++
	item := &Item{
		ID:          p.lastID,
		Description: description,
		Images:      []string{},
	}
	p.Items = append(p.Items, item)
	p.recompute()
	return item
}

// ItemAt returns the item at index.
func (p *Project) ItemAt(index int) (*Item, error) {
	if index < 0 || index >= len(p.Items) {
		return nil, fmt.Errorf("item index %d out of range (have %d items)", index, len(p.Items))
	}
	return p.Items[index], nil
}

// IndexByID returns the position of the item with the given id, or -1.
func (p *Project) IndexByID(id int) int {
	for i, it := range p.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// RemoveItems deletes the items at the given indices and returns how many
// were removed. Invalid indices are ignored.
func (p *Project) RemoveItems(indices ...int) int {
	keep := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(p.Items) {
			keep[i] = true
		}
	}
	if len(keep) == 0 {
		return 0
	}
	items := p.Items[:0]
	for i, it := range p.Items {
		if !keep[i] {
			items = append(items, it)
		}
	}
	removed := len(p.Items) - len(items)
	p.Items = items
	p.recompute()
	return removed
}

// RemoveItemByID deletes the item with the given id.
func (p *Project) RemoveItemByID(id int) bool {
	i := p.IndexByID(id)
	if i < 0 {
		return false
	}
	return p.RemoveItems(i) == 1
}

// Move shifts the item at index by offset positions (negative moves it up).
func (p *Project) Move(index, offset int) error {
	if index < 0 || index >= len(p.Items) {
		return fmt.Errorf("item index %d out of range (have %d items)", index, len(p.Items))
	}
	target := index + offset
	if target < 0 || target >= len(p.Items) {
		return fmt.Errorf("cannot move item %d by %d", index, offset)
	}
	p.Items[index], p.Items[target] = p.Items[target], p.Items[index]
	return nil
}

// SetDescription replaces the description of the item at index.
func (p *Project) SetDescription(index int, description string) error {
	item, err := p.ItemAt(index)
	if err != nil {
		return err
	}
	item.Description = description
	return nil
}

// AddImages attaches paths to the item at index, skipping any the item
// already holds. It returns how many were actually added.
func (p *Project) AddImages(index int, paths ...string) (int, error) {
	item, err := p.ItemAt(index)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, path := range paths {
		if item.HasImage(path) {
			continue
		}
		item.Images = append(item.Images, path)
		added++
	}
	if added > 0 {
		p.recompute()
	}
	return added, nil
}

// RemoveImage detaches path from the item at index.
func (p *Project) RemoveImage(index int, path string) error {
	item, err := p.ItemAt(index)
	if err != nil {
		return err
	}
	for i, img := range item.Images {
		if img == path {
			item.Images = append(item.Images[:i], item.Images[i+1:]...)
			p.recompute()
			return nil
		}
	}
	return fmt.Errorf("image %q not attached to item %d", path, index)
}

// ClearImages detaches every image from the item at index.
func (p *Project) ClearImages(index int) error {
	item, err := p.ItemAt(index)
	if err != nil {
		return err
	}
	item.Images = []string{}
	p.recompute()
	return nil
}

// Stats summarizes the project for status displays.
type Stats struct {
	Items  int `json:"items"`
	Images int `json:"images"`
}

// Stats returns the current item and image counts.
func (p *Project) Stats() Stats {
	s := Stats{Items: len(p.Items)}
	for _, it := range p.Items {
		s.Images += len(it.Images)
	}
	return s
}

// Snapshot returns a deep copy safe to hand to an exporter while the
// original keeps being edited.
func (p *Project) Snapshot() *Project {
	items := make([]*Item, len(p.Items))
	for i, it := range p.Items {
		items[i] = it.Clone()
	}
	return &Project{
		Title:           p.Title,
		Items:           items,
		CreatedTime:     p.CreatedTime,
		MaxImagesPerRow: p.MaxImagesPerRow,
		Version:         p.Version,
		lastID:          p.lastID,
	}
}

// recompute re-establishes the MaxImagesPerRow invariant: the largest image
// count across items, floored at one.
func (p *Project) recompute() {
	maxImages := 0
	for _, it := range p.Items {
		if len(it.Images) > maxImages {
			maxImages = len(it.Images)
		}
	}
	if maxImages == 0 {
		maxImages = 1
	}
	p.MaxImagesPerRow = maxImages
}
