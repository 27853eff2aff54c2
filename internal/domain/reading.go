package domain

import "time"

type SensorType string

const (
	SensorTemperature SensorType = "temperature"
	SensorVoltage     SensorType = "voltage"
	SensorFan         SensorType = "fan"
	SensorPower       SensorType = "power"
	SensorLoad        SensorType = "load"
	SensorClock       SensorType = "clock"
	SensorData        SensorType = "data"
	SensorOther       SensorType = "other"
)

// SensorReading is a single flattened sensor value projected out of a
// Snapshot. Source is the canonical dotted path (e.g. "cpu.load",
// "gpu.0.temperature") used to address the reading across history and
// alerting.
type SensorReading struct {
	Name       string     `json:"name"`
	Type       SensorType `json:"type"`
	Value      float64    `json:"value"`
	Min        float64    `json:"min"`
	Max        float64    `json:"max"`
	Unit       string     `json:"unit"`
	Source     string     `json:"source"`
	RecordedAt time.Time  `json:"recorded_at"`
}
