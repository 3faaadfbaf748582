package async_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageflow/internal/pkg/async"
)

func TestPoolExecute(t *testing.T) {
	pool := async.NewPool(3)
	boom := errors.New("boom")

	tasks := []async.Task{
		{Name: "one", Execute: func() (interface{}, error) { return 1, nil }},
		{Name: "two", Execute: func() (interface{}, error) { return "two", nil }},
		{Name: "fails", Execute: func() (interface{}, error) { return nil, boom }},
		{Name: "panics", Execute: func() (interface{}, error) { panic("bad input") }},
	}

	results := pool.Execute(context.Background(), tasks)

	require.Len(t, results, 4)
	assert.Equal(t, 1, results["one"].Data)
	assert.Equal(t, "two", results["two"].Data)
	assert.ErrorIs(t, results["fails"].Err, boom)
	assert.ErrorContains(t, results["panics"].Err, "bad input")

	err := async.FirstError(tasks, results)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "fails")
}

func TestPoolIsReusable(t *testing.T) {
	pool := async.NewPool(2)
	task := []async.Task{{Name: "n", Execute: func() (interface{}, error) { return 42, nil }}}

	for i := 0; i < 3; i++ {
		results := pool.Execute(context.Background(), task)
		assert.Equal(t, 42, results["n"].Data)
		assert.NoError(t, async.FirstError(task, results))
	}
}

func TestPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []async.Task{
		{Name: "a", Execute: func() (interface{}, error) { return nil, nil }},
		{Name: "b", Execute: func() (interface{}, error) { return nil, nil }},
	}
	results := async.NewPool(1).Execute(ctx, tasks)

	require.Len(t, results, 2)
	for _, r := range results {
		if r.Err != nil {
			assert.ErrorIs(t, r.Err, context.Canceled)
		}
	}
}
