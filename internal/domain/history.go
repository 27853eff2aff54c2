package domain

type Resolution string

const (
	ResolutionRaw    Resolution = "raw"
	ResolutionMinute Resolution = "minute"
	ResolutionHour   Resolution = "hour"
	ResolutionDay    Resolution = "day"
)

// HistoryEntry is one ingest tick: a timestamp in unix milliseconds
// and the flattened sensor values recorded at that instant, keyed by
// canonical path.
type HistoryEntry struct {
	Timestamp int64              `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// HistoryQuery bounds a range query. Zero Start means the epoch, zero
// End means now. Limit caps the result length via stride decimation.
type HistoryQuery struct {
	Start      int64
	End        int64
	Resolution Resolution
	Limit      int
}

type HistoryStats struct {
	Count  int   `json:"count"`
	Oldest int64 `json:"oldest"`
	Newest int64 `json:"newest"`
}

// SensorPoint is one value of a single sensor path over time.
type SensorPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}
