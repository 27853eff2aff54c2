package adapter

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
)

type HostAdapter struct{}

func NewHostAdapter() *HostAdapter {
	return &HostAdapter{}
}

func (a *HostAdapter) Category() string { return domain.CategoryHost }

func (a *HostAdapter) Collect(ctx context.Context) (any, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}

	return domain.HostInfo{
		Hostname:      info.Hostname,
		OS:            info.OS,
		Platform:      info.Platform,
		KernelVersion: info.KernelVersion,
		UptimeSeconds: info.Uptime,
	}, nil
}
