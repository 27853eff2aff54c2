package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/sensors"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
)

type CPUAdapter struct {
	log logger.Logger
}

func NewCPUAdapter(log logger.Logger) *CPUAdapter {
	return &CPUAdapter{log: log}
}

func (a *CPUAdapter) Category() string { return domain.CategoryCPU }

func (a *CPUAdapter) Collect(ctx context.Context) (any, error) {
	total, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(total) == 0 {
		return nil, fmt.Errorf("cpu percent: %w", err)
	}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return nil, fmt.Errorf("cpu per-core percent: %w", err)
	}

	out := domain.CPUInfo{
		LoadPercent: total[0],
		PerCore:     perCore,
	}

	if info, err := cpu.InfoWithContext(ctx); err == nil && len(info) > 0 {
		out.Model = info[0].ModelName
		out.FrequencyMHz = info[0].Mhz
	}
	if cores, err := cpu.CountsWithContext(ctx, true); err == nil {
		out.Cores = cores
	}

	out.TemperatureC = a.readTemperature(ctx)

	return out, nil
}

// readTemperature picks the CPU package sensor out of the host's
// temperature list. Missing sensors are not an error.
func (a *CPUAdapter) readTemperature(ctx context.Context) float64 {
	temps, err := sensors.TemperaturesWithContext(ctx)
	if err != nil {
		a.log.Debug("cpu temperature unavailable", "error", err)
		return 0
	}

	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		if strings.Contains(key, "coretemp") || strings.Contains(key, "k10temp") || strings.Contains(key, "cpu") {
			return t.Temperature
		}
	}

	return 0
}
