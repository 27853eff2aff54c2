// Package composer drives the snapshot collection cycle: a single
// timer fans out to all enabled category adapters concurrently,
// assembles an immutable Snapshot, caches it, and hands the result to
// the configured sinks.
package composer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/adapter"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/extractor"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
)

type Sinks struct {
	Snapshot func(*domain.Snapshot)
	Readings func([]domain.SensorReading)
}

type Composer struct {
	adapters map[string]adapter.Adapter
	enabled  map[string]bool
	interval time.Duration
	sinks    Sinks
	log      logger.Logger

	mu     sync.RWMutex
	last   *domain.Snapshot
	lastTS time.Time

	// busy gates the cycle: a tick that lands while a cycle is still
	// in flight is skipped, never queued.
	busy atomic.Bool

	cancel  context.CancelFunc
	stopped atomic.Bool
}

func New(adapters map[string]adapter.Adapter, enabled []string, interval time.Duration, sinks Sinks, log logger.Logger) *Composer {
	enabledSet := make(map[string]bool, len(enabled))
	for _, cat := range enabled {
		enabledSet[cat] = true
	}

	return &Composer{
		adapters: adapters,
		enabled:  enabledSet,
		interval: interval,
		sinks:    sinks,
		log:      log,
	}
}

// Start begins the repeating collection cycle. The first cycle runs
// immediately rather than waiting one interval.
func (c *Composer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.Poll(ctx)

		for {
			select {
			case <-ticker.C:
				c.Poll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the timer. Safe to call repeatedly or before Start.
func (c *Composer) Stop() {
	if c.stopped.CompareAndSwap(false, true) && c.cancel != nil {
		c.cancel()
	}
}

// Poll performs one collection cycle synchronously and replaces the
// cached snapshot. If a cycle is already in flight the call returns
// the cached snapshot instead of starting an overlapping one.
func (c *Composer) Poll(ctx context.Context) *domain.Snapshot {
	if !c.busy.CompareAndSwap(false, true) {
		c.log.Debug("composer: cycle in flight, skipping poll")
		return c.LastSnapshot()
	}
	defer c.busy.Store(false)

	snap := c.cycle(ctx)

	c.mu.Lock()
	c.last = snap
	c.mu.Unlock()

	if c.sinks.Snapshot != nil {
		c.sinks.Snapshot(snap)
	}
	if c.sinks.Readings != nil {
		c.sinks.Readings(extractor.Extract(snap))
	}

	return snap
}

// LastSnapshot returns the cached snapshot, or nil before the first
// completed poll.
func (c *Composer) LastSnapshot() *domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// cycle fans out to every enabled adapter concurrently and assembles
// the results. A failing or disabled category keeps its zero-value
// sub-record so the snapshot shape is always complete.
func (c *Composer) cycle(ctx context.Context) *domain.Snapshot {
	snap := &domain.Snapshot{}

	var wg sync.WaitGroup
	var assembleMu sync.Mutex

	for _, category := range domain.Categories {
		if !c.enabled[category] {
			continue
		}

		ad, ok := c.adapters[category]
		if !ok {
			c.log.Warn("composer: no adapter registered", "category", category)
			continue
		}

		wg.Add(1)
		go func(category string, ad adapter.Adapter) {
			defer wg.Done()

			val, err := ad.Collect(ctx)
			if err != nil {
				c.log.Warn("composer: adapter failed, using defaults", "category", category, "error", err)
				return
			}

			assembleMu.Lock()
			c.assign(snap, category, val)
			assembleMu.Unlock()
		}(category, ad)
	}

	wg.Wait()

	c.mu.Lock()
	now := time.Now()
	if now.Before(c.lastTS) {
		now = c.lastTS
	}
	c.lastTS = now
	c.mu.Unlock()

	snap.RecordedAt = now
	return snap
}

func (c *Composer) assign(snap *domain.Snapshot, category string, val any) {
	switch category {
	case domain.CategoryCPU:
		if v, ok := val.(domain.CPUInfo); ok {
			snap.CPU = v
		}
	case domain.CategoryGPU:
		if v, ok := val.([]domain.GPUInfo); ok {
			snap.GPU = v
		}
	case domain.CategoryMemory:
		if v, ok := val.(domain.MemoryInfo); ok {
			snap.Memory = v
		}
	case domain.CategoryDisk:
		if v, ok := val.([]domain.DiskInfo); ok {
			snap.Disk = v
		}
	case domain.CategoryNetwork:
		if v, ok := val.([]domain.NetworkInfo); ok {
			snap.Network = v
		}
	case domain.CategoryHost:
		if v, ok := val.(domain.HostInfo); ok {
			snap.Host = v
		}
	default:
		c.log.Warn("composer: unknown category payload", "category", category)
	}
}
