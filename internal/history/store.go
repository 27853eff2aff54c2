// Package history is the in-memory, retention-bounded time series fed
// by the snapshot pipeline. Entries are evicted from the front as they
// age past the retention window, so the buffer only ever holds
// [now − retention, now].
package history

import (
	"sort"
	"sync"
	"time"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
)

type Store struct {
	mu        sync.RWMutex
	entries   []domain.HistoryEntry
	retention time.Duration

	now func() time.Time
}

func NewStore(retention time.Duration) *Store {
	return &Store{
		retention: retention,
		now:       time.Now,
	}
}

var bucketWidths = map[domain.Resolution]int64{
	domain.ResolutionMinute: 60_000,
	domain.ResolutionHour:   3_600_000,
	domain.ResolutionDay:    86_400_000,
}

// Ingest appends one entry and evicts everything older than the
// retention window. Entries arrive in timestamp order from the
// non-overlapping collection cycle, so eviction only trims the front.
func (s *Store) Ingest(entry domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)

	cutoff := s.now().UnixMilli() - s.retention.Milliseconds()
	i := 0
	for ; i < len(s.entries); i++ {
		if s.entries[i].Timestamp >= cutoff {
			break
		}
	}
	s.entries = s.entries[i:]
}

// IngestReadings flattens a reading batch into a single entry keyed by
// canonical path.
func (s *Store) IngestReadings(readings []domain.SensorReading) {
	if len(readings) == 0 {
		return
	}

	values := make(map[string]float64, len(readings))
	for _, r := range readings {
		values[r.Source] = r.Value
	}

	s.Ingest(domain.HistoryEntry{
		Timestamp: readings[0].RecordedAt.UnixMilli(),
		Values:    values,
	})
}

// Query filters entries to [Start, End] (defaulting to the epoch and
// now), optionally downsamples them into fixed-width buckets of
// per-key means, and decimates by stride if the result still exceeds
// Limit. An empty window yields an empty result, not an error.
func (s *Store) Query(q domain.HistoryQuery) []domain.HistoryEntry {
	start := q.Start
	end := q.End
	if end == 0 {
		end = s.now().UnixMilli()
	}

	s.mu.RLock()
	filtered := make([]domain.HistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Timestamp >= start && e.Timestamp <= end {
			filtered = append(filtered, e)
		}
	}
	s.mu.RUnlock()

	if width, ok := bucketWidths[q.Resolution]; ok {
		filtered = downsample(filtered, width)
	}

	if q.Limit > 0 && len(filtered) > q.Limit {
		filtered = decimate(filtered, q.Limit)
	}

	return filtered
}

// downsample groups entries into buckets keyed by
// floor(ts/width)*width and emits the arithmetic mean per sensor key.
// Keys missing from a bucket stay absent rather than reading as zero.
func downsample(entries []domain.HistoryEntry, width int64) []domain.HistoryEntry {
	type agg struct {
		sum   map[string]float64
		count map[string]int
	}

	buckets := make(map[int64]*agg)
	for _, e := range entries {
		key := e.Timestamp / width * width
		b, ok := buckets[key]
		if !ok {
			b = &agg{sum: make(map[string]float64), count: make(map[string]int)}
			buckets[key] = b
		}

		for path, v := range e.Values {
			b.sum[path] += v
			b.count[path]++
		}
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]domain.HistoryEntry, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		values := make(map[string]float64, len(b.sum))
		for path, sum := range b.sum {
			values[path] = sum / float64(b.count[path])
		}
		out = append(out, domain.HistoryEntry{Timestamp: k, Values: values})
	}

	return out
}

// decimate keeps every ceil(n/limit)-th element. Stride sampling
// preserves the temporal shape of the series where random sampling
// would not.
func decimate(entries []domain.HistoryEntry, limit int) []domain.HistoryEntry {
	n := len(entries)
	stride := (n + limit - 1) / limit

	out := make([]domain.HistoryEntry, 0, limit)
	for i := 0; i < n; i += stride {
		out = append(out, entries[i])
	}

	return out
}

// SensorHistory returns the {timestamp, value} series of one canonical
// path over the trailing window.
func (s *Store) SensorHistory(path string, window time.Duration) []domain.SensorPoint {
	cutoff := s.now().UnixMilli() - window.Milliseconds()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SensorPoint, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Timestamp < cutoff {
			continue
		}
		if v, ok := e.Values[path]; ok {
			out = append(out, domain.SensorPoint{Timestamp: e.Timestamp, Value: v})
		}
	}

	return out
}

// Latest returns the most recent value for every known sensor key.
func (s *Store) Latest() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]float64)
	for _, e := range s.entries {
		for path, v := range e.Values {
			out[path] = v
		}
	}

	return out
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

func (s *Store) Stats() domain.HistoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.HistoryStats{Count: len(s.entries)}
	if len(s.entries) > 0 {
		stats.Oldest = s.entries[0].Timestamp
		stats.Newest = s.entries[len(s.entries)-1].Timestamp
	}

	return stats
}
