package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func letter(item int) string { return string(rune('a' + item - 1)) }

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 4, opts.MaxWorkers)
	assert.False(t, opts.FailFast, "FailFast is off by default")
}

func TestWorkers(t *testing.T) {
	testCases := []struct {
		max      int
		items    int
		expected int
	}{
		{0, 10, 4},
		{-1, 10, 4},
		{8, 3, 3},
		{2, 10, 2},
		{1, 10, 1},
	}

	for _, tc := range testCases {
		got := ParallelOptions{MaxWorkers: tc.max}.workers(tc.items)
		assert.Equal(t, tc.expected, got, "workers(max=%d, items=%d)", tc.max, tc.items)
	}
}

func TestProcessParallel(t *testing.T) {
	ctx := context.Background()

	results, errs := ProcessParallel(ctx, []int{}, DefaultOptions(), func(ctx context.Context, index int, item int) (string, error) {
		return "", nil
	})
	assert.Empty(t, results)
	assert.Nil(t, errs)

	input := []int{1, 2, 3, 4, 5}
	for _, workers := range []int{1, 2, 5, -1} {
		results, errs = ProcessParallel(ctx, input, ParallelOptions{MaxWorkers: workers}, func(ctx context.Context, index int, item int) (string, error) {
			return letter(item), nil
		})
		assert.Empty(t, errs, "workers=%d", workers)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, results, "workers=%d", workers)
	}

	results, errs = ProcessParallel(ctx, input, DefaultOptions(), func(ctx context.Context, index int, item int) (string, error) {
		if item%2 == 0 {
			return "", errors.New("even number error")
		}
		return letter(item), nil
	})
	assert.Len(t, results, len(input))
	assert.Len(t, errs, 2)
}

func TestProcessParallelCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	results, errs := ProcessParallel(ctx, []int{1, 2, 3}, DefaultOptions(), func(ctx context.Context, index int, item int) (string, error) {
		atomic.AddInt32(&ran, 1)
		return letter(item), nil
	})
	assert.Len(t, results, 3, "zero-value results")
	assert.Empty(t, errs)
	assert.Zero(t, atomic.LoadInt32(&ran), "no item runs")
}

func TestProcessParallelFailFastSequential(t *testing.T) {
	var ran []int
	_, errs := ProcessParallel(context.Background(), []int{1, 2, 3, 4}, ParallelOptions{MaxWorkers: 1, FailFast: true}, func(ctx context.Context, index int, item int) (int, error) {
		ran = append(ran, item)
		if item == 2 {
			return 0, errors.New("boom")
		}
		return item, nil
	})

	require.Len(t, errs, 1)
	assert.Equal(t, []int{1, 2}, ran, "processing stops after item 2")
}

func TestProcessParallelFailFastParallel(t *testing.T) {
	input := make([]int, 50)
	for i := range input {
		input[i] = i
	}

	var ran int32
	_, errs := ProcessParallel(context.Background(), input, ParallelOptions{MaxWorkers: 2, FailFast: true}, func(ctx context.Context, index int, item int) (int, error) {
		atomic.AddInt32(&ran, 1)
		if item == 0 {
			return 0, errors.New("boom")
		}
		time.Sleep(5 * time.Millisecond)
		return item, nil
	})

	require.NotEmpty(t, errs)
	assert.Less(t, atomic.LoadInt32(&ran), int32(len(input)), "fail-fast skips items")
}

func TestForEach(t *testing.T) {
	ctx := context.Background()

	errs := ForEach(ctx, []int{}, DefaultOptions(), func(ctx context.Context, index int, item int) error {
		return nil
	})
	assert.Nil(t, errs)

	input := []int{1, 2, 3, 4, 5}
	results := make([]string, len(input))
	errs = ForEach(ctx, input, DefaultOptions(), func(ctx context.Context, index int, item int) error {
		results[index] = letter(item)
		return nil
	})
	assert.Empty(t, errs)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, results)

	errs = ForEach(ctx, input, DefaultOptions(), func(ctx context.Context, index int, item int) error {
		if item%2 == 0 {
			return errors.New("even number error")
		}
		return nil
	})
	assert.Len(t, errs, 2)
}

// Results must follow input order, not completion order.
func TestProcessParallelOrder(t *testing.T) {
	input := []int{5, 3, 1, 4, 2}

	results, errs := ProcessParallel(context.Background(), input, ParallelOptions{MaxWorkers: 5}, func(ctx context.Context, index int, item int) (int, error) {
		time.Sleep(time.Duration(item) * 5 * time.Millisecond)
		return item, nil
	})

	assert.Empty(t, errs)
	assert.Equal(t, input, results)
}
