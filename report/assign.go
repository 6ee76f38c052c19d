package report

import "fmt"

// Strategy selects how a batch of image files is spread across items.
type Strategy string

const (
	// StrategyFirst attaches every file to the first item.
	StrategyFirst Strategy = "first"
	// StrategyRoundRobin deals files out across items in order.
	StrategyRoundRobin Strategy = "round-robin"
	// StrategyItem attaches every file to one chosen item.
	StrategyItem Strategy = "item"
)

// Assignment maps an image path to the index of the item that receives it.
type Assignment map[string]int

// BatchResult summarizes a batch assignment: how many files were attached,
// how many were skipped as duplicates, how many failed, and a per-item
// tally of additions.
type BatchResult struct {
	Added   int         `json:"added"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
	PerItem map[int]int `json:"per_item"`
}

// BuildAssignment produces an Assignment for files according to strategy.
// target is only consulted for StrategyItem.
func BuildAssignment(files []string, strategy Strategy, itemCount, target int) (Assignment, error) {
	if itemCount <= 0 {
		return nil, fmt.Errorf("cannot assign images: project has no items")
	}
	assign := make(Assignment, len(files))
	switch strategy {
	case StrategyFirst:
		for _, f := range files {
			assign[f] = 0
		}
	case StrategyRoundRobin:
		for i, f := range files {
			assign[f] = i % itemCount
		}
	case StrategyItem:
		if target < 0 || target >= itemCount {
			return nil, fmt.Errorf("item index %d out of range (have %d items)", target, itemCount)
		}
		for _, f := range files {
			assign[f] = target
		}
	default:
		return nil, fmt.Errorf("unknown assignment strategy %q", strategy)
	}
	return assign, nil
}

// ApplyAssignment walks files in order and attaches each to its assigned
// item. Files missing from the assignment are skipped; files whose target
// index is out of range count as failed; files the item already holds count
// as skipped. The image-row invariant is re-established once at the end.
func (p *Project) ApplyAssignment(files []string, assign Assignment) *BatchResult {
	res := &BatchResult{PerItem: map[int]int{}}
	for _, f := range files {
		idx, ok := assign[f]
		if !ok {
			res.Skipped++
			continue
		}
		if idx < 0 || idx >= len(p.Items) {
			res.Failed++
			continue
		}
		item := p.Items[idx]
		if item.HasImage(f) {
			res.Skipped++
			continue
		}
		item.Images = append(item.Images, f)
		res.Added++
		res.PerItem[idx]++
	}
	p.recompute()
	return res
}
