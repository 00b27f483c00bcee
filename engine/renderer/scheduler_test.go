package renderer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsInRegistrationOrder(t *testing.T) {
	s := NewScheduler(nil)
	var order []string
	s.OnBeforeRender(func(CommandEncoder) error { order = append(order, "a"); return nil })
	s.OnBeforeRender(func(CommandEncoder) error { order = append(order, "b"); return nil })

	require.NoError(t, s.Run(nil))
	require.NoError(t, s.Run(nil))
	assert.Equal(t, []string{"a", "b", "a", "b"}, order)
	assert.Equal(t, 2, s.Len())
}

func TestSchedulerOnceRunsOnce(t *testing.T) {
	s := NewScheduler(nil)
	calls := 0
	id := s.Once(func(CommandEncoder) error { calls++; return nil })
	assert.True(t, s.Has(id))

	require.NoError(t, s.Run(nil))
	require.NoError(t, s.Run(nil))
	assert.Equal(t, 1, calls)
	assert.False(t, s.Has(id))
}

func TestSchedulerRemoveDuringRunSkipsTask(t *testing.T) {
	s := NewScheduler(nil)
	called := false
	var second TaskID
	s.OnBeforeRender(func(CommandEncoder) error {
		assert.True(t, s.Remove(second))
		return nil
	})
	second = s.OnBeforeRender(func(CommandEncoder) error { called = true; return nil })

	require.NoError(t, s.Run(nil))
	assert.False(t, called)
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Remove(second))
}

func TestSchedulerJoinsErrorsAndKeepsRunning(t *testing.T) {
	logger := &recordingLogger{}
	s := NewScheduler(logger)
	errA := errors.New("a failed")
	ran := false
	s.OnBeforeRender(func(CommandEncoder) error { return errA })
	s.OnBeforeRender(func(CommandEncoder) error { ran = true; return nil })

	err := s.Run(nil)
	assert.ErrorIs(t, err, errA)
	assert.True(t, ran)
	assert.Len(t, logger.errors, 1)
}
