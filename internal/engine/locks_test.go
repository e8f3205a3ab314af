package engine

import (
	"sync"
	"testing"
)

func TestKeyedMutex_SameKeySerializes(t *testing.T) {
	k := NewKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock(7)
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 100 {
		t.Fatalf("expected 100, got %d", counter)
	}
}

func TestKeyedMutex_DistinctKeysIndependent(t *testing.T) {
	k := NewKeyedMutex()
	unlockA := k.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock(2)
		unlock()
		close(done)
	}()
	<-done
}

func TestKeyedMutex_ReusesMutex(t *testing.T) {
	k := NewKeyedMutex()
	if k.get(3) != k.get(3) {
		t.Fatal("expected the same mutex for the same key")
	}
	if k.get(3) == k.get(4) {
		t.Fatal("expected distinct mutexes for distinct keys")
	}
}
