package engine

import (
	"math"
	"sync/atomic"
)

// droppedStats holds cumulative counts of documents no longer in memory.
type droppedStats struct {
	TotalDocs     int64
	TotalBytes    int64
	LevelCounts   map[uint8]int64
	ServiceCounts map[string]int64
}

func newDroppedStats() droppedStats {
	return droppedStats{
		LevelCounts:   make(map[uint8]int64),
		ServiceCounts: make(map[string]int64),
	}
}

func (d *droppedStats) add(s MemStats) {
	d.TotalDocs += int64(s.RowCount)
	d.TotalBytes += int64(s.Bytes)
	for k, v := range s.LevelCounts {
		d.LevelCounts[k] += int64(v)
	}
	for k, v := range s.ServiceCounts {
		d.ServiceCounts[k] += int64(v)
	}
}

// SystemStats contains high-level metrics for the API response.
type SystemStats struct {
	IngestionRate float64        `json:"ingestion_rate"` // docs/sec
	TotalDocs     int64          `json:"total_docs"`     // ever ingested
	RetainedDocs  int            `json:"retained_docs"`  // currently searchable
	MemoryBytes   int            `json:"memory_bytes"`
	CachedQueries int            `json:"cached_queries"`
	LevelDist     map[string]int `json:"level_dist"`   // e.g. "INFO": 100
	TopServices   map[string]int `json:"top_services"` // e.g. "order-svc": 50
}

func (qe *QueryEngine) setRate(r float64) {
	atomic.StoreUint64(&qe.rateBits, math.Float64bits(r))
}

// IngestionRate returns the last measured docs/sec.
func (qe *QueryEngine) IngestionRate() float64 {
	return math.Float64frombits(atomic.LoadUint64(&qe.rateBits))
}

// GetStats merges the retained tables with the counts of dropped ones.
func (qe *QueryEngine) GetStats() SystemStats {
	stats := SystemStats{
		IngestionRate: qe.IngestionRate(),
		CachedQueries: qe.cache.Len(),
		LevelDist:     make(map[string]int),
		TopServices:   make(map[string]int),
	}

	// 1. Tables still in memory
	for _, mt := range qe.generations() {
		s := mt.GetStats()
		stats.RetainedDocs += s.RowCount
		stats.MemoryBytes += s.Bytes
		for lvl, count := range s.LevelCounts {
			stats.LevelDist[DecodeLevel(lvl)] += count
		}
		for svc, count := range s.ServiceCounts {
			stats.TopServices[svc] += count
		}
	}

	// 2. Dropped tables
	qe.statsLock.RLock()
	stats.TotalDocs = qe.dropped.TotalDocs + int64(stats.RetainedDocs)
	for lvl, count := range qe.dropped.LevelCounts {
		stats.LevelDist[DecodeLevel(lvl)] += int(count)
	}
	for svc, count := range qe.dropped.ServiceCounts {
		stats.TopServices[svc] += int(count)
	}
	qe.statsLock.RUnlock()

	return stats
}
