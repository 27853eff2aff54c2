package adapter

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
)

const drmRoot = "/sys/class/drm"

// GPUAdapter reads discrete GPU state from sysfs. Cards that expose no
// hwmon data simply report zero values; a host without /sys/class/drm
// yields an empty list, not an error.
type GPUAdapter struct {
	log logger.Logger
}

func NewGPUAdapter(log logger.Logger) *GPUAdapter {
	return &GPUAdapter{log: log}
}

func (a *GPUAdapter) Category() string { return domain.CategoryGPU }

func (a *GPUAdapter) Collect(ctx context.Context) (any, error) {
	var out []domain.GPUInfo

	for i, card := range detectCards() {
		device := drmRoot + "/" + card + "/device"

		info := domain.GPUInfo{
			Index:       i,
			Vendor:      vendorName(readString(device + "/vendor")),
			Model:       readString(device + "/product_name"),
			LoadPercent: readFloat(device + "/gpu_busy_percent"),
		}

		if total := readFloat(device + "/mem_info_vram_total"); total > 0 {
			info.VRAMTotalMB = total / bytesPerMB
			info.VRAMUsedMB = readFloat(device+"/mem_info_vram_used") / bytesPerMB
		}

		a.readHwmon(device, &info)
		out = append(out, info)
	}

	return out, nil
}

func detectCards() []string {
	entries, err := os.ReadDir(drmRoot)
	if err != nil {
		return nil
	}

	var cards []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "card") && !strings.Contains(name, "-") {
			cards = append(cards, name)
		}
	}

	return cards
}

func (a *GPUAdapter) readHwmon(device string, info *domain.GPUInfo) {
	hwmons, err := os.ReadDir(device + "/hwmon")
	if err != nil {
		a.log.Debug("gpu hwmon unavailable", "device", device, "error", err)
		return
	}

	for _, hw := range hwmons {
		base := device + "/hwmon/" + hw.Name()

		if v := readFloat(base + "/temp1_input"); v > 0 {
			info.TemperatureC = v / 1000
		}
		if v := readFloat(base + "/power1_input"); v > 0 {
			info.PowerWatt = v / 1e6
		}
		if v := readFloat(base + "/fan1_input"); v > 0 {
			info.FanRPM = v
		}
	}
}

func vendorName(id string) string {
	switch id {
	case "0x10de":
		return "NVIDIA"
	case "0x1002":
		return "AMD"
	case "0x8086":
		return "Intel"
	}
	return id
}

func readString(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func readFloat(path string) float64 {
	raw := readString(path)
	if raw == "" {
		return 0
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}
