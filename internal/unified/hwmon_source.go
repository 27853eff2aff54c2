package unified

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const hwmonRoot = "/sys/class/hwmon"

// HwmonSource reads the kernel hwmon tree directly. It sees voltage
// rails, fans, and power meters that higher-level libraries skip, at
// the cost of being Linux-only.
type HwmonSource struct {
	root string
}

func NewHwmonSource() *HwmonSource {
	return &HwmonSource{root: hwmonRoot}
}

func (s *HwmonSource) Name() string { return "hwmon" }

func (s *HwmonSource) Read(ctx context.Context) ([]RawSensor, error) {
	chips, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read hwmon root: %w", err)
	}

	var out []RawSensor
	for _, chip := range chips {
		base := s.root + "/" + chip.Name()
		chipName := readFile(base + "/name")
		if chipName == "" {
			chipName = chip.Name()
		}

		out = append(out, s.readChannels(base, chipName, "temp", "temperature", "°C", 1000)...)
		out = append(out, s.readChannels(base, chipName, "in", "voltage", "V", 1000)...)
		out = append(out, s.readChannels(base, chipName, "fan", "fan", "RPM", 1)...)
		out = append(out, s.readChannels(base, chipName, "power", "power", "W", 1e6)...)
	}

	return out, nil
}

// readChannels scans numbered channel files of one kind, e.g.
// temp1_input, temp2_input. scale divides the raw integer into the
// conventional unit. Voltage channels are zero-based (in0 is usually
// Vcore); temp, fan, and power start at 1.
func (s *HwmonSource) readChannels(base, chipName, kind, typeLabel, unit string, scale float64) []RawSensor {
	var out []RawSensor

	start := 1
	if kind == "in" {
		start = 0
	}

	for ch := start; ch <= 16; ch++ {
		prefix := fmt.Sprintf("%s/%s%d", base, kind, ch)

		raw := readFile(prefix + "_input")
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}

		label := readFile(prefix + "_label")
		if label == "" {
			label = fmt.Sprintf("%s %s%d", chipName, kind, ch)
		}

		sensor := RawSensor{
			ID:        fmt.Sprintf("%s.%s%d", chipName, kind, ch),
			Name:      label,
			TypeLabel: typeLabel,
			Value:     value / scale,
			Unit:      unit,
			Alarm:     readFile(prefix+"_alarm") == "1",
		}

		if max := parseFloat(readFile(prefix + "_max")); max > 0 {
			sensor.Max = max / scale
		} else if crit := parseFloat(readFile(prefix + "_crit")); crit > 0 {
			sensor.Max = crit / scale
		}

		// For voltage rails the nominal sits midway between the chip's
		// configured limits.
		if kind == "in" {
			min := parseFloat(readFile(prefix + "_min"))
			max := parseFloat(readFile(prefix + "_max"))
			if min > 0 && max > min {
				sensor.Nominal = (min + max) / 2 / scale
			}
		}

		out = append(out, sensor)
	}

	return out
}

func readFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func parseFloat(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}
