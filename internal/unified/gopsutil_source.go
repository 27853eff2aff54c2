package unified

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/sensors"
)

// GopsutilSource exposes the host temperature sensors gopsutil can
// enumerate (thermal zones, SMC keys, WMI) as one unified source.
type GopsutilSource struct{}

func NewGopsutilSource() *GopsutilSource {
	return &GopsutilSource{}
}

func (s *GopsutilSource) Name() string { return "gopsutil" }

func (s *GopsutilSource) Read(ctx context.Context) ([]RawSensor, error) {
	temps, err := sensors.TemperaturesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("sensors temperatures: %w", err)
	}

	out := make([]RawSensor, 0, len(temps))
	for _, t := range temps {
		max := t.High
		if max <= 0 {
			max = t.Critical
		}

		out = append(out, RawSensor{
			ID:        t.SensorKey,
			Name:      t.SensorKey,
			TypeLabel: "temperature",
			Value:     t.Temperature,
			Unit:      "°C",
			Max:       max,
			Alarm:     t.Critical > 0 && t.Temperature >= t.Critical,
		})
	}

	return out, nil
}
