package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankctl/internal/status"
)

func TestCenter_NotifyDeliversToSubscribers(t *testing.T) {
	c := NewCenter(5)
	first, unsubFirst := c.Subscribe()
	defer unsubFirst()
	second, unsubSecond := c.Subscribe()
	defer unsubSecond()

	c.Notify(Notice{Level: LevelError, Operation: status.OpListBills, Message: "boom"})

	for _, ch := range []<-chan Notice{first, second} {
		select {
		case n := <-ch:
			assert.Equal(t, "boom", n.Message)
			assert.Equal(t, status.OpListBills, n.Operation)
			assert.False(t, n.At.IsZero())
		case <-time.After(time.Second):
			t.Fatal("notice not delivered")
		}
	}
}

func TestCenter_RecentKeepsLastN(t *testing.T) {
	c := NewCenter(3)
	for i := 0; i < 5; i++ {
		c.Notify(Notice{Message: fmt.Sprintf("n%d", i)})
	}

	recent := c.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "n2", recent[0].Message)
	assert.Equal(t, "n4", recent[2].Message)
}

func TestCenter_DefaultLimit(t *testing.T) {
	c := NewCenter(0)
	for i := 0; i < defaultHistory+5; i++ {
		c.Notify(Notice{Message: "x"})
	}
	assert.Len(t, c.Recent(), defaultHistory)
}

func TestCenter_UnsubscribeClosesChannel(t *testing.T) {
	c := NewCenter(1)
	ch, unsub := c.Subscribe()
	unsub()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)

	// Notifying after unsubscribe must not panic
	c.Notify(Notice{Message: "late"})
}

func TestCenter_SlowSubscriberDoesNotBlock(t *testing.T) {
	c := NewCenter(100)
	_, unsub := c.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			c.Notify(Notice{Message: "spam"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full subscriber")
	}
}

func TestNotifierFunc(t *testing.T) {
	var got Notice
	var n Notifier = NotifierFunc(func(x Notice) { got = x })
	n.Notify(Notice{Message: "hello", Level: LevelWarn})
	assert.Equal(t, "hello", got.Message)

	Discard.Notify(Notice{Message: "ignored"})
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "unknown", Level(9).String())
}
