package engine

import (
	"sync"

	"github.com/coffersTech/nanosearch/internal/pkg/nanoql"
)

// MemTable stores documents in columnar format.
type MemTable struct {
	mu sync.RWMutex

	capacity int

	idCol   *BytesColumn
	tsCol   *Int64Column
	lvlCol  *Uint8Column
	rawLvl  *BytesColumn // level text of rows coded LevelUnknown, empty otherwise
	svcCol  *BytesColumn
	hostCol *BytesColumn
	msgCol  *BytesColumn
	attrs   []map[string]string

	minTs, maxTs int64
}

// MemStats is a snapshot of what a MemTable holds.
type MemStats struct {
	RowCount      int
	Bytes         int
	LevelCounts   map[uint8]int
	ServiceCounts map[string]int
}

// NewMemTable initializes a MemTable that holds up to capacity rows.
func NewMemTable(capacity int) *MemTable {
	return &MemTable{
		capacity: capacity,
		idCol:    NewBytesColumn(capacity*36, capacity),
		tsCol:    NewInt64Column(capacity),
		lvlCol:   NewUint8Column(capacity),
		rawLvl:   NewBytesColumn(0, capacity),
		svcCol:   NewBytesColumn(capacity*16, capacity),
		hostCol:  NewBytesColumn(capacity*16, capacity),
		msgCol:   NewBytesColumn(capacity*128, capacity),
		attrs:    make([]map[string]string, 0, capacity),
	}
}

func (mt *MemTable) columns() []Column {
	return []Column{mt.idCol, mt.tsCol, mt.lvlCol, mt.rawLvl, mt.svcCol, mt.hostCol, mt.msgCol}
}

// Append adds a document. It reports false, and stores nothing, when the
// table is full.
func (mt *MemTable) Append(doc *Document) bool {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	n := mt.tsCol.Size()
	if n >= mt.capacity {
		return false
	}

	mt.idCol.AppendString(doc.ID)
	mt.tsCol.Append(doc.Timestamp)
	lvl := EncodeLevel(doc.Level)
	mt.lvlCol.Append(lvl)
	if lvl == LevelUnknown {
		mt.rawLvl.AppendString(doc.Level)
	} else {
		mt.rawLvl.AppendString("")
	}
	mt.svcCol.AppendString(doc.Service)
	mt.hostCol.AppendString(doc.Host)
	mt.msgCol.AppendString(doc.Message)
	mt.attrs = append(mt.attrs, doc.Attributes)

	if n == 0 || doc.Timestamp < mt.minTs {
		mt.minTs = doc.Timestamp
	}
	if n == 0 || doc.Timestamp > mt.maxTs {
		mt.maxTs = doc.Timestamp
	}
	return true
}

// Len returns the number of rows.
func (mt *MemTable) Len() int {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.tsCol.Size()
}

// Bytes returns the estimated memory usage of the columns.
func (mt *MemTable) Bytes() int {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.bytesLocked()
}

func (mt *MemTable) bytesLocked() int {
	total := 0
	for _, c := range mt.columns() {
		total += c.Bytes()
	}
	return total
}

// Reset clears all column data for memory reuse.
func (mt *MemTable) Reset() {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for _, c := range mt.columns() {
		c.Reset()
	}
	mt.attrs = mt.attrs[:0]
	mt.minTs, mt.maxTs = 0, 0
}

// TimeRange returns the smallest and largest timestamps held.
func (mt *MemTable) TimeRange() (min, max int64) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.minTs, mt.maxTs
}

// overlaps reports whether any row can fall in [minT, maxT]. Zero bounds
// are open.
func (mt *MemTable) overlaps(minT, maxT int64) bool {
	if mt.tsCol.Size() == 0 {
		return false
	}
	if minT > 0 && mt.maxTs < minT {
		return false
	}
	if maxT > 0 && mt.minTs > maxT {
		return false
	}
	return true
}

// row materializes row i into d. Caller holds mu.
func (mt *MemTable) row(i int, d *Document) {
	d.ID = mt.idCol.String(i)
	d.Timestamp = mt.tsCol.Data[i]
	if lvl := mt.lvlCol.Data[i]; lvl == LevelUnknown {
		d.Level = mt.rawLvl.String(i)
	} else {
		d.Level = DecodeLevel(lvl)
	}
	d.Service = mt.svcCol.String(i)
	d.Host = mt.hostCol.String(i)
	d.Message = mt.msgCol.String(i)
	d.Attributes = mt.attrs[i]
}

// Scan calls fn for every row inside [minT, maxT] that matches q, newest
// first, until fn returns false. A nil q matches every row.
func (mt *MemTable) Scan(q *nanoql.Query, minT, maxT int64, fn func(*Document) bool) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	if !mt.overlaps(minT, maxT) {
		return
	}

	// Scan backwards (newest first)
	for i := mt.tsCol.Size() - 1; i >= 0; i-- {
		ts := mt.tsCol.Data[i]
		if minT > 0 && ts < minT {
			continue
		}
		if maxT > 0 && ts > maxT {
			continue
		}

		var doc Document
		mt.row(i, &doc)
		if q != nil && !q.Match(&doc) {
			continue
		}
		if !fn(&doc) {
			return
		}
	}
}

// Search returns up to limit matching documents, newest first.
func (mt *MemTable) Search(q *nanoql.Query, minT, maxT int64, limit int) []Document {
	var result []Document
	if limit <= 0 {
		return result
	}
	mt.Scan(q, minT, maxT, func(d *Document) bool {
		result = append(result, *d)
		return len(result) < limit
	})
	return result
}

// GetStats counts rows by level and by service.
func (mt *MemTable) GetStats() MemStats {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	stats := MemStats{
		RowCount:      mt.tsCol.Size(),
		Bytes:         mt.bytesLocked(),
		LevelCounts:   make(map[uint8]int),
		ServiceCounts: make(map[string]int),
	}
	for i := 0; i < stats.RowCount; i++ {
		stats.LevelCounts[mt.lvlCol.Data[i]]++
		stats.ServiceCounts[string(mt.svcCol.Get(i))]++
	}
	return stats
}
