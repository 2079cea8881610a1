package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

func TestRunnerFirstExitCancelsOthers(t *testing.T) {
	errBoom := errors.New("boom")
	r := NewRunner()
	r.Go(
		NamedRun("failing", RunFunc(func(ctx context.Context) error {
			return errBoom
		})),
		NamedRun("waiting", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
	)
	err := r.Wait()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
	assert.Equal(t, "boom", err.Error())
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner()
	for i := 0; i < 3; i++ {
		r.Go(RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}))
	}
	r.Stop()
	assert.NoError(t, r.Wait())
}

func TestRunnerWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))
	cancel()
	assert.NoError(t, r.Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	errs.Add(nil, context.Canceled)
	assert.NoError(t, errs.Aggregate())
	e1, e2 := errors.New("e1"), errors.New("e2")
	errs.Add(e1, e2)
	err := errs.Aggregate()
	require.Error(t, err)
	assert.Equal(t, "multiple errors:\ne1\ne2", err.Error())
	assert.True(t, errors.Is(err, e2))
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	closed := 0
	closer := closerFunc(func() error {
		closed++
		close(unblock)
		return nil
	})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-unblock
		return errors.New("closed")
	})
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, 1, closed)

	closed = 0
	err = RunWithContextCloser(context.Background(), closerFunc(func() error {
		closed++
		return nil
	}), func() error {
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, closed)
}
