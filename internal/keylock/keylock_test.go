package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocker_SameKeySerializes(t *testing.T) {
	l := New()

	const goroutines = 50
	counter := 0

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			unlock := l.Lock("req-1")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter)
	assert.Equal(t, 0, l.Len(), "entries are released once unused")
}

func TestLocker_DifferentKeysIndependent(t *testing.T) {
	l := New()

	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := l.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on key b blocked behind key a")
	}
}

func TestLocker_UnlockIsIdempotent(t *testing.T) {
	l := New()
	unlock := l.Lock("a")
	unlock()
	unlock()
	assert.Equal(t, 0, l.Len())

	unlock = l.Lock("a")
	defer unlock()
	assert.Equal(t, 1, l.Len())
}
