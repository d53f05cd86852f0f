package systems

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidation(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestSubmitRunsCallbacks(t *testing.T) {
	js, err := NewJobSystem(2, 4)
	require.NoError(t, err)

	var completed, failed atomic.Int32
	boom := errors.New("boom")
	for i := 0; i < 4; i++ {
		fail := i%2 == 0
		require.NoError(t, js.Submit(Job{
			Name: "work",
			Run: func() error {
				if fail {
					return boom
				}
				return nil
			},
			OnComplete: func() { completed.Add(1) },
			OnFailure: func(err error) {
				assert.ErrorIs(t, err, boom)
				failed.Add(1)
			},
		}))
	}
	require.NoError(t, js.Shutdown())
	assert.Equal(t, int32(2), completed.Load())
	assert.Equal(t, int32(2), failed.Load())
}

func TestSubmitAfterShutdown(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	require.NoError(t, js.Shutdown())
	assert.NoError(t, js.Shutdown())
	assert.ErrorIs(t, js.Submit(Job{Name: "late"}), ErrJobSystemClosed)
}

func TestRunAllReturnsFirstErrorInOrder(t *testing.T) {
	js, err := NewJobSystem(3, 3)
	require.NoError(t, err)
	defer js.Shutdown()

	first := errors.New("first")
	second := errors.New("second")
	var ran atomic.Int32
	err = js.RunAll([]string{"a", "b"},
		func() error { ran.Add(1); return nil },
		func() error { ran.Add(1); return first },
		func() error { ran.Add(1); return second },
	)
	assert.ErrorIs(t, err, first)
	assert.Equal(t, int32(3), ran.Load())

	assert.NoError(t, js.RunAll(nil, func() error { return nil }, nil))
}

func TestRunAllReportsPanickingJob(t *testing.T) {
	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	defer js.Shutdown()

	err = js.RunAll([]string{"decode"}, func() error {
		var accessors []int
		_ = accessors[5]
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job decode panicked")

	assert.NoError(t, js.RunAll(nil, func() error { return nil }), "worker survives the panic")
}
