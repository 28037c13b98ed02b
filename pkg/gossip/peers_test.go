package gossip

import (
	"sort"
	"testing"
	"time"
)

func TestPeerTable_TouchAndList(t *testing.T) {
	pt := NewPeerTable()
	now := time.Now()

	pt.Touch(5001, now)
	pt.Touch(5002, now)
	pt.Touch(5001, now.Add(time.Second)) // refresh, not duplicate

	got := pt.List()
	sort.Ints(got)
	want := []int{5001, 5002}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() = %v, want %v", got, want)
		}
	}

	heard, ok := pt.LastHeard(5001)
	if !ok || !heard.Equal(now.Add(time.Second)) {
		t.Fatalf("LastHeard(5001) = (%v,%v), want refreshed timestamp", heard, ok)
	}
}

func TestPeerTable_EvictStale(t *testing.T) {
	pt := NewPeerTable()
	base := time.Now()
	timeout := 10 * time.Second

	pt.Touch(5001, base.Add(-11*time.Second)) // past timeout
	pt.Touch(5002, base.Add(-9*time.Second))  // within window
	pt.Touch(5003, base.Add(-10*time.Second)) // exactly at timeout: retained

	evicted := pt.EvictStale(base, timeout)
	if len(evicted) != 1 || evicted[0] != 5001 {
		t.Fatalf("EvictStale evicted %v, want [5001]", evicted)
	}
	if _, ok := pt.LastHeard(5001); ok {
		t.Fatal("5001 still present after eviction")
	}
	if _, ok := pt.LastHeard(5002); !ok {
		t.Fatal("5002 evicted despite being within the window")
	}
	if _, ok := pt.LastHeard(5003); !ok {
		t.Fatal("5003 evicted despite being exactly at the timeout boundary")
	}
}

func TestPeerTable_RejoinAfterEviction(t *testing.T) {
	pt := NewPeerTable()
	base := time.Now()

	pt.Touch(5001, base.Add(-time.Minute))
	pt.EvictStale(base, 10*time.Second)
	if pt.Len() != 0 {
		t.Fatalf("Len = %d after eviction, want 0", pt.Len())
	}

	// Any message heard re-inserts the peer.
	pt.Touch(5001, base)
	if _, ok := pt.LastHeard(5001); !ok {
		t.Fatal("peer did not rejoin on Touch")
	}
}

func TestPeerTable_SnapshotIsCopy(t *testing.T) {
	pt := NewPeerTable()
	now := time.Now()
	pt.Touch(5001, now)

	snap := pt.Snapshot()
	snap[5002] = now
	if pt.Len() != 1 {
		t.Fatalf("mutating snapshot changed the table: Len = %d, want 1", pt.Len())
	}
}
