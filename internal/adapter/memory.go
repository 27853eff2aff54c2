package adapter

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
)

const bytesPerMB = 1024 * 1024

type MemoryAdapter struct{}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{}
}

func (a *MemoryAdapter) Category() string { return domain.CategoryMemory }

func (a *MemoryAdapter) Collect(ctx context.Context) (any, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}

	out := domain.MemoryInfo{
		TotalMB:     float64(vm.Total) / bytesPerMB,
		UsedMB:      float64(vm.Used) / bytesPerMB,
		AvailableMB: float64(vm.Available) / bytesPerMB,
		UsedPercent: vm.UsedPercent,
	}

	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		out.SwapTotalMB = float64(swap.Total) / bytesPerMB
		out.SwapUsedMB = float64(swap.Used) / bytesPerMB
	}

	return out, nil
}
