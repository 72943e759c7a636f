package task

import (
	"context"
	"sync"

	"modelman/pkg/logger"
)

// DefaultBatchSize bounds how many operations run concurrently per chunk.
const DefaultBatchSize = 3

// Batch runs ops in sequential chunks of size, executing each chunk's
// operations concurrently and waiting for the whole chunk to settle before
// starting the next. Successful results are collected in original order;
// individual failures are logged and skipped, never raised.
func Batch[T any](ctx context.Context, ops []func(context.Context) (T, error), size int) []T {
	if size <= 0 {
		size = DefaultBatchSize
	}

	type slot struct {
		value T
		ok    bool
	}
	slots := make([]slot, len(ops))

	for start := 0; start < len(ops); start += size {
		end := start + size
		if end > len(ops) {
			end = len(ops)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				value, err := ops[i](ctx)
				if err != nil {
					log := logger.With("task")
					log.Warn().
						Int("index", i).
						Err(err).
						Msg("Batch operation failed")
					return
				}
				slots[i] = slot{value: value, ok: true}
			}(i)
		}
		wg.Wait()
	}

	results := make([]T, 0, len(ops))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.value)
		}
	}
	return results
}
