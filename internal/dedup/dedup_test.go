package dedup

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCheckAndMarkFirstDelivery(t *testing.T) {
	f := NewFilter(time.Hour)
	if f.CheckAndMark("wamid.1") {
		t.Error("first delivery should not be reported as duplicate")
	}
	if !f.CheckAndMark("wamid.1") {
		t.Error("second delivery of the same id should be reported as duplicate")
	}
	if f.CheckAndMark("wamid.2") {
		t.Error("different id should not be reported as duplicate")
	}
}

func TestEmptyIDNeverDeduplicated(t *testing.T) {
	f := NewFilter(time.Hour)
	if f.CheckAndMark("") {
		t.Error("empty id should never be deduplicated")
	}
	if f.CheckAndMark("") {
		t.Error("empty id should never be deduplicated, even repeated")
	}
	if f.Seen("") {
		t.Error("empty id should never be recorded")
	}
}

func TestSeenDoesNotMark(t *testing.T) {
	f := NewFilter(time.Hour)
	if f.Seen("wamid.1") {
		t.Error("unseen id reported as seen")
	}
	if f.CheckAndMark("wamid.1") {
		t.Error("Seen must not record the id")
	}
	if !f.Seen("wamid.1") {
		t.Error("marked id not reported as seen")
	}
}

func TestRetentionExpiry(t *testing.T) {
	f := NewFilter(time.Minute)
	now := time.Now()
	f.now = func() time.Time { return now }

	if f.CheckAndMark("wamid.1") {
		t.Fatal("first delivery reported as duplicate")
	}

	// Within the window the id is still a duplicate.
	now = now.Add(30 * time.Second)
	if !f.CheckAndMark("wamid.1") {
		t.Error("id within retention window not reported as duplicate")
	}

	// Past the window the entry expires and redelivery is processed again.
	now = now.Add(2 * time.Minute)
	if f.CheckAndMark("wamid.1") {
		t.Error("expired id should not be reported as duplicate")
	}
	if f.Len() != 1 {
		t.Errorf("expired entries should be pruned, got %d entries", f.Len())
	}
}

func TestConcurrentCheckAndSet(t *testing.T) {
	f := NewFilter(time.Hour)
	const callers = 50

	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("wamid.%d", i)
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for c := 0; c < callers; c++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !f.CheckAndMark(id) {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if fresh != 1 {
			t.Fatalf("id %s: expected exactly 1 fresh delivery, got %d", id, fresh)
		}
	}
}
