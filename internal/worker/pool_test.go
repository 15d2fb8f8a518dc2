package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResult struct {
	id  int
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

type mockJob struct {
	id        int
	duration  time.Duration
	shouldErr bool
	running   *atomic.Int32
	peak      *atomic.Int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.running != nil {
		n := j.running.Add(1)
		defer j.running.Add(-1)
		for {
			p := j.peak.Load()
			if n <= p || j.peak.CompareAndSwap(p, n) {
				break
			}
		}
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{id: j.id, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{id: j.id, err: errors.New("job error")}
	}
	return &mockResult{id: j.id}
}

func TestNewPool(t *testing.T) {
	assert.Equal(t, 3, NewPool(3).Workers())
	assert.Equal(t, 1, NewPool(0).Workers())
	assert.Equal(t, 1, NewPool(-2).Workers())
}

func TestPool_RunKeepsOrder(t *testing.T) {
	jobs := make([]Job, 6)
	for i := range jobs {
		// later jobs finish first
		jobs[i] = &mockJob{id: i, duration: time.Duration(len(jobs)-i) * 5 * time.Millisecond}
	}

	results := NewPool(3).Run(t.Context(), jobs)
	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, i, r.(*mockResult).id)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = &mockJob{id: i, duration: 10 * time.Millisecond, running: &running, peak: &peak}
	}

	NewPool(2).Run(t.Context(), jobs)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Positive(t, peak.Load())
}

func TestPool_Errors(t *testing.T) {
	jobs := []Job{
		&mockJob{id: 0},
		&mockJob{id: 1, shouldErr: true},
		&mockJob{id: 2},
	}

	results := NewPool(2).Run(t.Context(), jobs)
	errs := Errors(results)
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "job error")
}

func TestPool_Empty(t *testing.T) {
	assert.Empty(t, NewPool(2).Run(t.Context(), nil))
}

func TestPool_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	jobs := []Job{&mockJob{id: 0}, &mockJob{id: 1}}
	results := NewPool(1).Run(ctx, jobs)
	require.Len(t, results, 2)
	assert.Empty(t, Errors(results))
}
