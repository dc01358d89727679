package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlotWaitBlocksUntilPublish(t *testing.T) {
	s := NewSlot[int]()
	done := make(chan int, 1)
	go func() {
		v, err := s.Wait(context.Background())
		require.NoError(t, err)
		done <- v
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Publish")
	case <-time.After(20 * time.Millisecond):
	}

	s.Publish(42, nil)
	require.Equal(t, 42, <-done)
}

func TestSlotPublishOnlyFirstCallTakesEffect(t *testing.T) {
	s := NewSlot[string]()
	s.Publish("first", nil)
	s.Publish("second", errors.New("ignored"))
	v, err := s.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "first", v)
}

func TestSlotWaitUnblocksOnContextCancel(t *testing.T) {
	s := NewSlot[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSchedulerRunsDependentItemsInOrder(t *testing.T) {
	source := NewSlot[int]()
	doubled := NewSlot[int]()

	sched := NewScheduler(context.Background())
	sched.Submit(NewItem("double", func(ctx context.Context) error {
		v, err := source.Wait(ctx)
		if err != nil {
			return err
		}
		doubled.Publish(v*2, nil)
		return nil
	}))
	sched.Submit(NewItem("source", func(ctx context.Context) error {
		source.Publish(21, nil)
		return nil
	}))

	require.NoError(t, sched.Wait())
	v, err := doubled.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestSchedulerStopsAcceptingAfterFatalError(t *testing.T) {
	sched := NewScheduler(context.Background())
	sched.Submit(NewItem("failing", func(ctx context.Context) error {
		return errors.New("boom")
	}))
	require.Error(t, sched.Wait())

	ran := false
	sched.Submit(NewItem("late", func(ctx context.Context) error {
		ran = true
		return nil
	}))
	require.False(t, ran, "Submit after a fatal error must not run the item")
}

func TestSchedulerUnblocksWaitingItemsOnFatalError(t *testing.T) {
	never := NewSlot[int]()
	sched := NewScheduler(context.Background())

	blockedErr := make(chan error, 1)
	sched.Submit(NewItem("blocked", func(ctx context.Context) error {
		_, err := never.Wait(ctx)
		blockedErr <- err
		return err
	}))
	sched.Submit(NewItem("failing", func(ctx context.Context) error {
		return errors.New("boom")
	}))

	require.Error(t, sched.Wait())
	require.ErrorIs(t, <-blockedErr, context.Canceled)
	require.Len(t, sched.Errs(), 2)
}
