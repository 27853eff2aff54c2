// Package adapter holds the per-category sensor source adapters. Each
// adapter pulls one hardware category and returns its payload; a
// failing adapter degrades to a default sub-record upstream and never
// aborts the collection cycle.
package adapter

import (
	"context"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
)

type Adapter interface {
	Category() string
	Collect(ctx context.Context) (any, error)
}

// Defaults returns the built-in adapter set, one per hardware category.
func Defaults(log logger.Logger) map[string]Adapter {
	return map[string]Adapter{
		domain.CategoryCPU:     NewCPUAdapter(log),
		domain.CategoryGPU:     NewGPUAdapter(log),
		domain.CategoryMemory:  NewMemoryAdapter(),
		domain.CategoryDisk:    NewDiskAdapter(),
		domain.CategoryNetwork: NewNetworkAdapter(),
		domain.CategoryHost:    NewHostAdapter(),
	}
}
