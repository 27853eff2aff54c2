package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
)

const bytesPerGB = 1024 * 1024 * 1024

type DiskAdapter struct{}

func NewDiskAdapter() *DiskAdapter {
	return &DiskAdapter{}
}

func (a *DiskAdapter) Category() string { return domain.CategoryDisk }

func (a *DiskAdapter) Collect(ctx context.Context) (any, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("disk partitions: %w", err)
	}

	var out []domain.DiskInfo
	for _, p := range parts {
		if skipFsType(p.Fstype) {
			continue
		}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}

		out = append(out, domain.DiskInfo{
			Device:      p.Device,
			Mountpoint:  p.Mountpoint,
			TotalGB:     float64(usage.Total) / bytesPerGB,
			UsedGB:      float64(usage.Used) / bytesPerGB,
			UsedPercent: usage.UsedPercent,
		})
	}

	return out, nil
}

func skipFsType(fstype string) bool {
	switch strings.ToLower(fstype) {
	case "tmpfs", "devtmpfs", "squashfs", "overlay", "proc", "sysfs":
		return true
	}
	return false
}
