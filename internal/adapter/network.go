package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
)

type nicSample struct {
	rxBytes uint64
	txBytes uint64
	at      time.Time
}

// NetworkAdapter reports per-interface counters and derives transfer
// rates from the delta against the previous collection cycle. The
// first cycle reports zero rates.
type NetworkAdapter struct {
	mu   sync.Mutex
	last map[string]nicSample
}

func NewNetworkAdapter() *NetworkAdapter {
	return &NetworkAdapter{last: make(map[string]nicSample)}
}

func (a *NetworkAdapter) Category() string { return domain.CategoryNetwork }

func (a *NetworkAdapter) Collect(ctx context.Context) (any, error) {
	counters, err := gnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("net io counters: %w", err)
	}

	now := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	var out []domain.NetworkInfo
	for _, c := range counters {
		if skipInterface(c.Name) {
			continue
		}

		info := domain.NetworkInfo{
			Interface: c.Name,
			RXBytes:   c.BytesRecv,
			TXBytes:   c.BytesSent,
		}

		if prev, ok := a.last[c.Name]; ok {
			elapsed := now.Sub(prev.at).Seconds()
			if elapsed > 0 && c.BytesRecv >= prev.rxBytes && c.BytesSent >= prev.txBytes {
				info.RXSpeedKBs = float64(c.BytesRecv-prev.rxBytes) / elapsed / 1024
				info.TXSpeedKBs = float64(c.BytesSent-prev.txBytes) / elapsed / 1024
			}
		}

		a.last[c.Name] = nicSample{rxBytes: c.BytesRecv, txBytes: c.BytesSent, at: now}
		out = append(out, info)
	}

	return out, nil
}

func skipInterface(name string) bool {
	return name == "lo" || strings.HasPrefix(name, "veth") || strings.HasPrefix(name, "docker")
}
