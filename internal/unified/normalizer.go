package unified

import (
	"context"
	"math"
	"strings"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
)

// typeTable maps source-native sensor type labels onto the canonical
// type enum. Unmapped labels fall through to "other".
var typeTable = map[string]domain.SensorType{
	"temp":        domain.SensorTemperature,
	"temperature": domain.SensorTemperature,
	"thermal":     domain.SensorTemperature,
	"in":          domain.SensorVoltage,
	"volt":        domain.SensorVoltage,
	"voltage":     domain.SensorVoltage,
	"fan":         domain.SensorFan,
	"rpm":         domain.SensorFan,
	"power":       domain.SensorPower,
	"watt":        domain.SensorPower,
	"energy":      domain.SensorPower,
	"load":        domain.SensorLoad,
	"usage":       domain.SensorLoad,
	"util":        domain.SensorLoad,
	"freq":        domain.SensorClock,
	"clock":       domain.SensorClock,
	"data":        domain.SensorData,
	"mem":         domain.SensorData,
}

type Normalizer struct {
	sources []Source
	log     logger.Logger
}

func NewNormalizer(sources []Source, log logger.Logger) *Normalizer {
	return &Normalizer{sources: sources, log: log}
}

// Collect reads every source and merges the results. No cross-source
// deduplication happens: two sources reporting the same physical
// quantity produce two entries, told apart by their source tag.
func (n *Normalizer) Collect(ctx context.Context) []domain.UnifiedSensor {
	out := make([]domain.UnifiedSensor, 0, 32)

	for _, src := range n.sources {
		raws, err := src.Read(ctx)
		if err != nil {
			n.log.Debug("unified: source unavailable", "source", src.Name(), "error", err)
			continue
		}

		for _, raw := range raws {
			typ := MapType(raw.TypeLabel)
			out = append(out, domain.UnifiedSensor{
				ID:     src.Name() + "." + raw.ID,
				Name:   raw.Name,
				Type:   typ,
				Value:  raw.Value,
				Unit:   raw.Unit,
				Source: src.Name(),
				Status: DeriveStatus(typ, raw.Value, raw.Max, raw.Nominal, raw.Alarm),
			})
		}
	}

	return out
}

// MapType resolves a native type label through the fixed type table.
func MapType(label string) domain.SensorType {
	key := strings.ToLower(strings.TrimSpace(label))
	if typ, ok := typeTable[key]; ok {
		return typ
	}

	// Labels like "temp1" carry a channel suffix.
	for prefix, typ := range typeTable {
		if strings.HasPrefix(key, prefix) {
			return typ
		}
	}

	return domain.SensorOther
}

// DeriveStatus computes health from the value alone, never from
// history. An explicit source alarm flag forces critical regardless
// of type.
func DeriveStatus(typ domain.SensorType, value, max, nominal float64, alarm bool) domain.SensorStatus {
	if alarm {
		return domain.StatusCritical
	}

	switch typ {
	case domain.SensorTemperature:
		if max > 0 {
			switch {
			case value >= 0.95*max:
				return domain.StatusCritical
			case value >= 0.85*max:
				return domain.StatusWarning
			}
			return domain.StatusOK
		}
		switch {
		case value >= 90:
			return domain.StatusCritical
		case value >= 80:
			return domain.StatusWarning
		}

	case domain.SensorVoltage:
		if nominal > 0 {
			deviation := math.Abs(1 - value/nominal)
			switch {
			case deviation > 0.10:
				return domain.StatusCritical
			case deviation > 0.05:
				return domain.StatusWarning
			}
		}

	case domain.SensorFan:
		// Stalled-fan heuristic: a fan reporting a fraction of its
		// known max is likely seized, not idle.
		if max > 0 && value < 0.1*max {
			return domain.StatusWarning
		}
	}

	return domain.StatusOK
}
