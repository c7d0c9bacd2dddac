package status

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type httpErr struct {
	msg  string
	code int
}

func (e *httpErr) Error() string       { return fmt.Sprintf("%d: %s", e.code, e.msg) }
func (e *httpErr) HTTPStatus() int     { return e.code }
func (e *httpErr) UserMessage() string { return e.msg }

func TestTracker_BeginSucceed(t *testing.T) {
	tr := NewTracker()

	tr.BeginInitial(OpListUsers)
	assert.True(t, tr.IsLoading(OpListUsers, BucketInitial))
	assert.Equal(t, PhaseLoading, tr.State(OpListUsers, BucketInitial))

	tr.SucceedInitial(OpListUsers)
	assert.False(t, tr.IsLoading(OpListUsers, BucketInitial))
	assert.True(t, tr.HasSucceeded(OpListUsers, BucketInitial))
	assert.False(t, tr.HasFailed(OpListUsers, BucketInitial))
	assert.Equal(t, PhaseSucceeded, tr.State(OpListUsers, BucketInitial))

	// Buckets are independent
	assert.False(t, tr.HasSucceeded(OpListUsers, BucketSubsequent))
	assert.Equal(t, PhaseIdle, tr.State(OpListUsers, BucketSubsequent))
}

func TestTracker_BeginFail(t *testing.T) {
	tr := NewTracker()

	tr.BeginSubsequent(OpListBills)
	tr.FailSubsequent(OpListBills, ErrorInfo{Message: "boom", StatusCode: 500})

	assert.False(t, tr.IsLoading(OpListBills, BucketSubsequent))
	assert.False(t, tr.HasSucceeded(OpListBills, BucketSubsequent))
	assert.True(t, tr.HasFailed(OpListBills, BucketSubsequent))
	assert.Equal(t, "boom", tr.ErrorMessage(OpListBills, BucketSubsequent))

	info, ok := tr.Error(OpListBills, BucketSubsequent)
	require.True(t, ok)
	assert.Equal(t, 500, info.StatusCode)
}

func TestTracker_BeginClearsPreviousTerminalState(t *testing.T) {
	tr := NewTracker()

	tr.BeginInitial(OpListBills)
	tr.FailInitial(OpListBills, ErrorInfo{Message: "boom"})
	tr.BeginInitial(OpListBills)

	assert.True(t, tr.IsLoading(OpListBills, BucketInitial))
	assert.False(t, tr.HasFailed(OpListBills, BucketInitial))
	assert.Empty(t, tr.ErrorMessage(OpListBills, BucketInitial))

	tr.SucceedInitial(OpListBills)
	tr.BeginInitial(OpListBills)
	assert.False(t, tr.HasSucceeded(OpListBills, BucketInitial))
}

func TestTracker_SingleTerminalState(t *testing.T) {
	tr := NewTracker()
	sequences := [][]func(){
		{func() { tr.BeginInitial(OpListUsers) }, func() { tr.SucceedInitial(OpListUsers) }},
		{func() { tr.FailInitial(OpListUsers, ErrorInfo{Message: "x"}) }},
		{func() { tr.FailInitial(OpListUsers, ErrorInfo{Message: "x"}) }, func() { tr.SucceedInitial(OpListUsers) }},
		{func() { tr.SucceedInitial(OpListUsers) }, func() { tr.BeginInitial(OpListUsers) }},
	}

	for i, seq := range sequences {
		t.Run(fmt.Sprintf("sequence %d", i), func(t *testing.T) {
			tr.Clear()
			for _, step := range seq {
				step()
			}
			active := 0
			for _, v := range []bool{
				tr.IsLoading(OpListUsers, BucketInitial),
				tr.HasSucceeded(OpListUsers, BucketInitial),
				tr.HasFailed(OpListUsers, BucketInitial),
			} {
				if v {
					active++
				}
			}
			assert.Equal(t, 1, active)
		})
	}
}

func TestTracker_IsFirstLoad(t *testing.T) {
	tr := NewTracker()

	// Before any dispatch
	assert.True(t, tr.IsFirstLoad(OpListReceivers, BucketInitial))

	tr.BeginInitial(OpListReceivers)
	assert.True(t, tr.IsFirstLoad(OpListReceivers, BucketInitial))

	tr.FailInitial(OpListReceivers, ErrorInfo{Message: "down"})
	assert.False(t, tr.IsFirstLoad(OpListReceivers, BucketInitial))

	// A retry is no longer a first load
	tr.BeginInitial(OpListReceivers)
	assert.False(t, tr.IsFirstLoad(OpListReceivers, BucketInitial))

	tr.Clear()
	assert.True(t, tr.IsFirstLoad(OpListReceivers, BucketInitial))
}

func TestTracker_ClearOperation(t *testing.T) {
	tr := NewTracker()
	tr.SucceedInitial(OpListUsers)
	tr.SucceedInitial(OpListBills)

	tr.ClearOperation(OpListUsers)

	assert.False(t, tr.HasSucceeded(OpListUsers, BucketInitial))
	assert.True(t, tr.HasSucceeded(OpListBills, BucketInitial))
}

func TestTracker_Subscribe(t *testing.T) {
	tr := NewTracker()
	changes, unsubscribe := tr.Subscribe()

	tr.BeginInitial(OpListLocations)
	tr.SucceedInitial(OpListLocations)
	tr.Clear()

	assert.Equal(t, Change{Op: OpListLocations, Bucket: BucketInitial, Phase: PhaseLoading}, <-changes)
	assert.Equal(t, Change{Op: OpListLocations, Bucket: BucketInitial, Phase: PhaseSucceeded}, <-changes)
	assert.Equal(t, Change{Cleared: true}, <-changes)

	unsubscribe()
	unsubscribe()
	_, open := <-changes
	assert.False(t, open)

	// Publishing after unsubscribe must not panic
	tr.BeginInitial(OpListLocations)
}

func TestTracker_SlowSubscriberDoesNotBlock(t *testing.T) {
	tr := NewTracker()
	_, unsubscribe := tr.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer*4; i++ {
		tr.BeginSubsequent(OpListBills)
	}
	assert.True(t, tr.IsLoading(OpListBills, BucketSubsequent))
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			op := OperationID(fmt.Sprintf("op-%d", n%3))
			for j := 0; j < 100; j++ {
				tr.BeginSubsequent(op)
				if j%2 == 0 {
					tr.SucceedSubsequent(op)
				} else {
					tr.FailSubsequent(op, ErrorInfo{Message: "x"})
				}
				_ = tr.IsLoading(op, BucketSubsequent)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 3; i++ {
		op := OperationID(fmt.Sprintf("op-%d", i))
		assert.False(t, tr.IsFirstLoad(op, BucketSubsequent))
	}
}

func TestErrorInfoFrom(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, ErrorInfo{}, ErrorInfoFrom(nil))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t, ErrorInfo{Message: "dial tcp: refused"}, ErrorInfoFrom(errors.New("dial tcp: refused")))
	})

	t.Run("wrapped status error", func(t *testing.T) {
		err := fmt.Errorf("list bills: %w", &httpErr{msg: "boom", code: 500})
		assert.Equal(t, ErrorInfo{Message: "boom", StatusCode: 500}, ErrorInfoFrom(err))
	})
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "initial", BucketInitial.String())
	assert.Equal(t, "subsequent", BucketSubsequent.String())
	assert.Equal(t, "failed", PhaseFailed.String())
}

func TestTracker_Abandon(t *testing.T) {
	tr := NewTracker()

	tr.BeginInitial(OpListUsers)
	tr.Abandon(OpListUsers, BucketInitial)

	assert.False(t, tr.IsLoading(OpListUsers, BucketInitial))
	assert.False(t, tr.HasSucceeded(OpListUsers, BucketInitial))
	assert.False(t, tr.HasFailed(OpListUsers, BucketInitial))
	assert.True(t, tr.IsFirstLoad(OpListUsers, BucketInitial))
	assert.Equal(t, PhaseIdle, tr.State(OpListUsers, BucketInitial))

	tr.SucceedSubsequent(OpListUsers)
	tr.BeginSubsequent(OpListUsers)
	tr.Abandon(OpListUsers, BucketSubsequent)
	assert.False(t, tr.IsFirstLoad(OpListUsers, BucketSubsequent))
}
