// Package unified fuses sensor readings pulled independently from
// several source subsystems into one canonical, status-annotated list.
package unified

import "context"

// RawSensor is a sensor as one source subsystem natively reports it,
// before type mapping and status derivation.
type RawSensor struct {
	ID        string
	Name      string
	TypeLabel string
	Value     float64
	Unit      string
	Max       float64 // 0 = unknown
	Nominal   float64 // for voltage rails, 0 = unknown
	Alarm     bool
}

// Source is one independent sensor subsystem. A source that is
// unavailable on this host returns an error and contributes zero
// entries to the merge.
type Source interface {
	Name() string
	Read(ctx context.Context) ([]RawSensor, error)
}
