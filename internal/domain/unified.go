package domain

type SensorStatus string

const (
	StatusOK       SensorStatus = "ok"
	StatusWarning  SensorStatus = "warning"
	StatusCritical SensorStatus = "critical"
)

// UnifiedSensor is a normalized, status-annotated sensor fused from
// one of several independent source subsystems. Distinct from
// SensorReading: it carries provenance and health status rather than
// a snapshot projection. Two sources reporting the same physical
// quantity yield two entries, distinguished by Source.
type UnifiedSensor struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Type   SensorType   `json:"type"`
	Value  float64      `json:"value"`
	Unit   string       `json:"unit"`
	Source string       `json:"source"`
	Status SensorStatus `json:"status"`
}
