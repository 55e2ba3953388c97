// Package workerpool runs independent, CPU-bound work items with bounded
// parallelism.
package workerpool

import (
	"sync"

	"go.uber.org/zap"
)

// Config configures the pool.
type Config struct {
	MaxConcurrent int // Maximum items processed at once (default: 4)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 4,
	}
}

// Pool bounds how many items are processed at once. A semaphore limits the
// goroutines doing work; a new item starts as soon as a slot frees up.
type Pool struct {
	config Config
	logger *zap.Logger
}

// New creates a pool.
func New(config Config, logger *zap.Logger) *Pool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	return &Pool{
		config: config,
		logger: logger.Named("worker-pool"),
	}
}

// MaxConcurrent returns the effective concurrency limit.
func (p *Pool) MaxConcurrent() int {
	return p.config.MaxConcurrent
}

// Process applies fn to every item with bounded parallelism and returns the
// results in submission order, so output does not depend on scheduling.
// fn must not share mutable state between items.
func Process[In, Out any](pool *Pool, items []In, fn func(index int, item In) Out) []Out {
	if len(items) == 0 {
		return nil
	}

	results := make([]Out, len(items))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{} // Acquire a slot (blocks at max concurrency)
		go func(i int, item In) {
			defer wg.Done()
			defer func() { <-sem }()
			// Each goroutine owns one slot of results.
			results[i] = fn(i, item)
		}(i, item)
	}
	wg.Wait()

	pool.logger.Debug("Processed work items",
		zap.Int("count", len(items)),
		zap.Int("max_concurrent", pool.config.MaxConcurrent))

	return results
}
