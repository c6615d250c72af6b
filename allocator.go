package etwtrace

import "fmt"

// AllocTag groups allocations by call site for diagnostics. It carries no
// behavior.
type AllocTag uint8

//nolint:golint,stylecheck
const (
	TagProviderMetadata AllocTag = iota + 1
	TagEventMetadata
	TagFieldValue
)

func (t AllocTag) String() string {
	switch t {
	case TagProviderMetadata:
		return "provider-metadata"
	case TagEventMetadata:
		return "event-metadata"
	case TagFieldValue:
		return "field-value"
	default:
		return fmt.Sprintf("AllocTag(%d)", uint8(t))
	}
}

// Allocator hands out the buffers that back metadata blocks and field
// values. Allocate may fail; Free must accept any buffer Allocate returned
// with the same tag.
type Allocator interface {
	Allocate(size int, tag AllocTag) ([]byte, error)
	Free(buf []byte, tag AllocTag)
}

// AllocStats counts allocations for a single tag.
type AllocStats struct {
	Allocs    int
	Frees     int
	LiveBytes int
}

// Live returns the number of allocations not yet freed.
func (s AllocStats) Live() int {
	return s.Allocs - s.Frees
}

// HeapAllocator is the default Allocator. It allocates from the Go heap and
// keeps per-tag statistics, which makes buffers that are never handed back
// visible. It is not safe for concurrent use.
type HeapAllocator struct {
	limit     int
	liveBytes int
	stats     map[AllocTag]*AllocStats
}

// NewHeapAllocator returns a HeapAllocator. A positive limit caps the number
// of live bytes; requests beyond it fail with ErrAllocation.
func NewHeapAllocator(limit int) *HeapAllocator {
	return &HeapAllocator{
		limit: limit,
		stats: make(map[AllocTag]*AllocStats),
	}
}

func (a *HeapAllocator) Allocate(size int, tag AllocTag) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%d bytes for %s; %w", size, tag, ErrAllocation)
	}
	if a.limit > 0 && a.liveBytes+size > a.limit {
		return nil, fmt.Errorf("%d bytes for %s over limit %d; %w", size, tag, a.limit, ErrAllocation)
	}

	st := a.statsFor(tag)
	st.Allocs++
	st.LiveBytes += size
	a.liveBytes += size

	return make([]byte, size), nil
}

func (a *HeapAllocator) Free(buf []byte, tag AllocTag) {
	if buf == nil {
		return
	}

	st := a.statsFor(tag)
	st.Frees++
	st.LiveBytes -= len(buf)
	a.liveBytes -= len(buf)
}

// Stats returns a copy of the statistics for tag.
func (a *HeapAllocator) Stats(tag AllocTag) AllocStats {
	if st, ok := a.stats[tag]; ok {
		return *st
	}
	return AllocStats{}
}

// LiveBytes returns the bytes currently allocated across all tags.
func (a *HeapAllocator) LiveBytes() int {
	return a.liveBytes
}

func (a *HeapAllocator) statsFor(tag AllocTag) *AllocStats {
	st, ok := a.stats[tag]
	if !ok {
		st = &AllocStats{}
		a.stats[tag] = st
	}
	return st
}
