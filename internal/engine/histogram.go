package engine

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

type HistogramPoint struct {
	Time  int64 `json:"time"`
	Count int   `json:"count"`
}

// HistogramRequest counts matching documents in [Start, End] per Interval.
type HistogramRequest struct {
	Query    string
	Start    int64
	End      int64
	Interval int64
}

// ComputeHistogram aggregates document counts over time buckets.
func (qe *QueryEngine) ComputeHistogram(ctx context.Context, req HistogramRequest) ([]HistogramPoint, error) {
	if req.Interval <= 0 {
		return nil, errors.Errorf("histogram interval must be positive, got %d", req.Interval)
	}
	if req.End < req.Start {
		return nil, errors.Errorf("histogram end %d is before start %d", req.End, req.Start)
	}

	q, err := qe.compileFilter(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	// 1. Bucketize every generation
	buckets := make(map[int64]int)
	for _, mt := range qe.generations() {
		mt.Scan(q, req.Start, req.End, func(d *Document) bool {
			buckets[(d.Timestamp/req.Interval)*req.Interval]++
			return true
		})
	}

	// 2. Convert map to sorted slice
	points := make([]HistogramPoint, 0, len(buckets))
	for t, c := range buckets {
		points = append(points, HistogramPoint{Time: t, Count: c})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Time < points[j].Time
	})

	return points, nil
}
