package domain

import "time"

const (
	CategoryCPU     = "cpu"
	CategoryGPU     = "gpu"
	CategoryMemory  = "memory"
	CategoryDisk    = "disk"
	CategoryNetwork = "network"
	CategoryHost    = "host"
)

// Categories lists every hardware category in its canonical order.
var Categories = []string{
	CategoryCPU,
	CategoryGPU,
	CategoryMemory,
	CategoryDisk,
	CategoryNetwork,
	CategoryHost,
}

// Snapshot is one complete point-in-time capture of all hardware
// categories. It is immutable once composed; a new poll produces a
// new Snapshot rather than mutating the cached one.
type Snapshot struct {
	RecordedAt time.Time     `json:"recorded_at"`
	CPU        CPUInfo       `json:"cpu"`
	GPU        []GPUInfo     `json:"gpu"`
	Memory     MemoryInfo    `json:"memory"`
	Disk       []DiskInfo    `json:"disk"`
	Network    []NetworkInfo `json:"network"`
	Host       HostInfo      `json:"host"`
}

type CPUInfo struct {
	Model        string    `json:"model"`
	Cores        int       `json:"cores"`
	LoadPercent  float64   `json:"load_percent"`
	PerCore      []float64 `json:"per_core"`
	TemperatureC float64   `json:"temperature_c"`
	FrequencyMHz float64   `json:"frequency_mhz"`
	PowerWatt    float64   `json:"power_watt"`
}

type GPUInfo struct {
	Index        int     `json:"index"`
	Vendor       string  `json:"vendor"`
	Model        string  `json:"model"`
	LoadPercent  float64 `json:"load_percent"`
	TemperatureC float64 `json:"temperature_c"`
	VRAMTotalMB  float64 `json:"vram_total_mb"`
	VRAMUsedMB   float64 `json:"vram_used_mb"`
	PowerWatt    float64 `json:"power_watt"`
	FanRPM       float64 `json:"fan_rpm"`
}

type MemoryInfo struct {
	TotalMB     float64 `json:"total_mb"`
	UsedMB      float64 `json:"used_mb"`
	AvailableMB float64 `json:"available_mb"`
	UsedPercent float64 `json:"used_percent"`
	SwapTotalMB float64 `json:"swap_total_mb"`
	SwapUsedMB  float64 `json:"swap_used_mb"`
}

type DiskInfo struct {
	Device       string  `json:"device"`
	Mountpoint   string  `json:"mountpoint"`
	TotalGB      float64 `json:"total_gb"`
	UsedGB       float64 `json:"used_gb"`
	UsedPercent  float64 `json:"used_percent"`
	TemperatureC float64 `json:"temperature_c"`
}

type NetworkInfo struct {
	Interface  string  `json:"interface"`
	RXBytes    uint64  `json:"rx_bytes"`
	TXBytes    uint64  `json:"tx_bytes"`
	RXSpeedKBs float64 `json:"rx_speed_kbs"`
	TXSpeedKBs float64 `json:"tx_speed_kbs"`
}

type HostInfo struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernel_version"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}
