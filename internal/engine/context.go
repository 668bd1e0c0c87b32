package engine

import (
	"context"
	"sort"
)

// ContextResult represents the documents around an anchor timestamp.
type ContextResult struct {
	Pre    []Document `json:"pre"`    // Documents before the anchor
	Anchor *Document  `json:"anchor"` // The document closest to the timestamp
	Post   []Document `json:"post"`   // Documents after the anchor
}

// GetContext returns up to limit documents on each side of the document
// matching expr whose timestamp is closest to ts.
func (qe *QueryEngine) GetContext(ctx context.Context, ts int64, expr string, limit int) (*ContextResult, error) {
	if limit <= 0 {
		limit = 10
	}

	q, err := qe.compileFilter(ctx, expr)
	if err != nil {
		return nil, err
	}

	result := &ContextResult{
		Pre:  make([]Document, 0, limit),
		Post: make([]Document, 0, limit),
	}

	var all []Document
	for _, mt := range qe.generations() {
		mt.Scan(q, 0, 0, func(d *Document) bool {
			all = append(all, *d)
			return true
		})
	}
	if len(all) == 0 {
		return result, nil
	}

	// Scans run newest first; flip to ingestion order so equal timestamps
	// keep it after the stable sort.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp < all[j].Timestamp
	})

	// First document at or after ts, or the one just before it if closer
	anchorIdx := sort.Search(len(all), func(i int) bool { return all[i].Timestamp >= ts })
	switch {
	case anchorIdx == len(all):
		anchorIdx--
	case anchorIdx > 0 && ts-all[anchorIdx-1].Timestamp < all[anchorIdx].Timestamp-ts:
		anchorIdx--
	}
	result.Anchor = &all[anchorIdx]

	preStart := anchorIdx - limit
	if preStart < 0 {
		preStart = 0
	}
	result.Pre = append(result.Pre, all[preStart:anchorIdx]...)

	postEnd := anchorIdx + limit + 1
	if postEnd > len(all) {
		postEnd = len(all)
	}
	result.Post = append(result.Post, all[anchorIdx+1:postEnd]...)

	return result, nil
}
