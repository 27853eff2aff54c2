// Package extractor projects a Snapshot into the flat, ordered list of
// canonical sensor readings consumed by history and alerting. The
// projection is pure: identical snapshots always yield identical,
// identically-ordered reading lists.
package extractor

import (
	"fmt"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
)

// Extract flattens a Snapshot. Readings for absent sub-records (zero
// defaults from disabled or failed categories) are omitted, never
// zero-filled.
func Extract(s *domain.Snapshot) []domain.SensorReading {
	if s == nil {
		return nil
	}

	var out []domain.SensorReading

	add := func(source, name string, typ domain.SensorType, value, min, max float64, unit string) {
		out = append(out, domain.SensorReading{
			Name:       name,
			Type:       typ,
			Value:      value,
			Min:        min,
			Max:        max,
			Unit:       unit,
			Source:     source,
			RecordedAt: s.RecordedAt,
		})
	}

	if cpuPresent(s.CPU) {
		add("cpu.load", "CPU Load", domain.SensorLoad, s.CPU.LoadPercent, 0, 100, "%")
		if s.CPU.TemperatureC > 0 {
			add("cpu.temperature", "CPU Temperature", domain.SensorTemperature, s.CPU.TemperatureC, 0, 100, "°C")
		}
		if s.CPU.FrequencyMHz > 0 {
			add("cpu.frequency", "CPU Frequency", domain.SensorClock, s.CPU.FrequencyMHz, 0, 0, "MHz")
		}
		if s.CPU.PowerWatt > 0 {
			add("cpu.power", "CPU Power", domain.SensorPower, s.CPU.PowerWatt, 0, 0, "W")
		}
	}

	if s.Memory.TotalMB > 0 {
		add("memory.used", "Memory Used", domain.SensorData, s.Memory.UsedMB, 0, s.Memory.TotalMB, "MB")
		add("memory.load", "Memory Load", domain.SensorLoad, s.Memory.UsedPercent, 0, 100, "%")
		if s.Memory.SwapTotalMB > 0 {
			add("memory.swap_used", "Swap Used", domain.SensorData, s.Memory.SwapUsedMB, 0, s.Memory.SwapTotalMB, "MB")
		}
	}

	for i, gpu := range s.GPU {
		prefix := fmt.Sprintf("gpu.%d", i)
		label := fmt.Sprintf("GPU %d", i)

		add(prefix+".load", label+" Load", domain.SensorLoad, gpu.LoadPercent, 0, 100, "%")
		if gpu.TemperatureC > 0 {
			add(prefix+".temperature", label+" Temperature", domain.SensorTemperature, gpu.TemperatureC, 0, 110, "°C")
		}
		if gpu.VRAMTotalMB > 0 {
			add(prefix+".memory_used", label+" Memory Used", domain.SensorData, gpu.VRAMUsedMB, 0, gpu.VRAMTotalMB, "MB")
		}
		if gpu.PowerWatt > 0 {
			add(prefix+".power", label+" Power", domain.SensorPower, gpu.PowerWatt, 0, 0, "W")
		}
		if gpu.FanRPM > 0 {
			add(prefix+".fan", label+" Fan", domain.SensorFan, gpu.FanRPM, 0, 0, "RPM")
		}
	}

	for i, disk := range s.Disk {
		prefix := fmt.Sprintf("disk.%d", i)
		label := fmt.Sprintf("Disk %d (%s)", i, disk.Mountpoint)

		add(prefix+".used_percent", label+" Usage", domain.SensorLoad, disk.UsedPercent, 0, 100, "%")
		if disk.TemperatureC > 0 {
			add(prefix+".temperature", label+" Temperature", domain.SensorTemperature, disk.TemperatureC, 0, 70, "°C")
		}
	}

	if len(s.Network) > 0 {
		var rx, tx float64
		for _, nic := range s.Network {
			rx += nic.RXSpeedKBs
			tx += nic.TXSpeedKBs
		}
		add("network.rx", "Network Download", domain.SensorData, rx, 0, 0, "KB/s")
		add("network.tx", "Network Upload", domain.SensorData, tx, 0, 0, "KB/s")
	}

	return out
}

// cpuPresent reports whether the CPU sub-record carries real data. A
// zero-value record is the substitute for a disabled or failed
// category and yields no readings.
func cpuPresent(c domain.CPUInfo) bool {
	return c.Cores > 0 || c.Model != "" || c.LoadPercent > 0
}
