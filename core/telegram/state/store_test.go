package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct {
	Step  string
	Notes []string
}

func TestStoreGetSetRemove(t *testing.T) {
	s := NewStore[session]()

	_, ok := s.Get(1)
	assert.False(t, ok)

	s.Set(1, session{Step: "year"})
	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "year", got.Step)
	assert.True(t, s.Has(1))
	assert.Equal(t, 1, s.Len())

	s.Remove(1)
	s.Remove(1)
	assert.False(t, s.Has(1))
	assert.Zero(t, s.Len())
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore[session]()
	s.Set(7, session{Step: "month"})

	borrowed, _ := s.Get(7)
	borrowed.Step = "company"

	stored, _ := s.Get(7)
	assert.Equal(t, "month", stored.Step, "mutation must not be visible before Set")
}

func TestStoreConcurrentUsers(t *testing.T) {
	s := NewStore[int]()
	var wg sync.WaitGroup
	for u := int64(0); u < 32; u++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Set(id, i)
				_, _ = s.Get(id)
			}
			s.Remove(id)
		}(u)
	}
	wg.Wait()
	assert.Zero(t, s.Len())
}

func TestStoreLockSerializesPerUser(t *testing.T) {
	s := NewStore[int]()
	unlock := s.Lock(5)

	acquired := make(chan struct{})
	go func() {
		release := s.Lock(5)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock for the same user must wait")
	case <-time.After(50 * time.Millisecond):
	}

	other := make(chan struct{})
	go func() {
		release := s.Lock(6)
		close(other)
		release()
	}()
	select {
	case <-other:
	case <-time.After(time.Second):
		t.Fatal("lock for another user must not block")
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was not released")
	}
}

func TestStoreLockEntriesAreReleased(t *testing.T) {
	s := NewStore[int]()
	var wg sync.WaitGroup
	var counts [4]int
	for u := int64(0); u < 16; u++ {
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				unlock := s.Lock(id % 4)
				counts[id%4]++
				unlock()
				unlock()
			}(u)
		}
	}
	wg.Wait()
	assert.Equal(t, [4]int{32, 32, 32, 32}, counts)
	assert.Zero(t, s.lockEntries())

	unlock := s.Lock(9)
	assert.Equal(t, 1, s.lockEntries())
	unlock()
	assert.Zero(t, s.lockEntries())
}
