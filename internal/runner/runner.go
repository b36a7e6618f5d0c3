// Package runner applies an operation across an ordered list of inputs with a
// fixed number of operations in flight.
//
// Items are dispatched by increasing index onto an ants goroutine pool sized to the
// concurrency limit, so a slot that finishes item i immediately picks up the next
// unclaimed index. Completion order is whatever the operations produce; every
// callback carries the item's original index.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Op is the per-item operation.
type Op[T, U any] func(ctx context.Context, item T) (U, error)

// Run calls op for every item with at most limit calls pending at once. For each
// item exactly one of onSuccess or onFailure is invoked with the item's index; a
// failing item never stops the rest from being scheduled. Callbacks may run
// concurrently on pool goroutines.
//
// Run returns once every item has produced its callback. It only returns an error
// when the pool itself cannot be created, in which case no callback has fired.
func Run[T, U any](ctx context.Context, items []T, limit int, op Op[T, U], onSuccess func(int, U), onFailure func(int, error)) error {
	if len(items) == 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	pool, err := ants.NewPool(limit)
	if err != nil {
		return fmt.Errorf("runner: create pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range items {
		i, item := i, items[i]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			apply(ctx, i, item, op, onSuccess, onFailure)
		}
		// Submit blocks while all slots are busy.
		if err := pool.Submit(task); err != nil {
			wg.Done()
			onFailure(i, fmt.Errorf("runner: submit item %d: %w", i, err))
		}
	}
	wg.Wait()
	return nil
}

func apply[T, U any](ctx context.Context, i int, item T, op Op[T, U], onSuccess func(int, U), onFailure func(int, error)) {
	reported := false
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if reported {
			// the panic came from a callback, not from op
			panic(r)
		}
		reported = true
		onFailure(i, fmt.Errorf("runner: item %d panicked: %v", i, r))
	}()

	v, err := op(ctx, item)
	reported = true
	if err != nil {
		onFailure(i, err)
		return
	}
	onSuccess(i, v)
}
