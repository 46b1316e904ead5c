package queue

import (
	"fmt"
	"sync"
	"testing"
)

func TestPending_New(t *testing.T) {
	q := New[string]()
	if q == nil {
		t.Fatal("expected non-nil set")
	}
	if !q.Empty() {
		t.Error("expected empty set")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestPending_PushDeduplicates(t *testing.T) {
	q := New[string]()

	if n := q.Push("m0", "m1"); n != 2 {
		t.Errorf("expected 2 added, got %d", n)
	}
	if n := q.Push("m0"); n != 0 {
		t.Errorf("expected duplicate to be ignored, got %d added", n)
	}
	if q.Len() != 2 {
		t.Errorf("expected length 2, got %d", q.Len())
	}
}

func TestPending_KeepsFirstPosition(t *testing.T) {
	q := New[string]()
	q.Push("a", "b", "a", "c", "b")

	got := q.GetAndEmpty()
	want := []string{"a", "b", "c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPending_RequeueAfterDrain(t *testing.T) {
	q := New[int]()
	q.Push(1, 2)
	q.GetAndEmpty()

	// a drained key can be queued again
	if n := q.Push(1); n != 1 {
		t.Errorf("expected re-push to add, got %d", n)
	}
}

func TestPending_Remove(t *testing.T) {
	q := New[string]()
	q.Push("a", "b", "c")

	q.Remove("b")
	q.Remove("missing")

	if q.Len() != 2 {
		t.Errorf("expected 2 keys after remove, got %d", q.Len())
	}
	got := q.GetAndEmpty()
	if fmt.Sprint(got) != "[a c]" {
		t.Errorf("expected [a c], got %v", got)
	}
}

func TestPending_Clear(t *testing.T) {
	q := New[string]()
	q.Push("a", "b")

	q.Clear()

	if !q.Empty() {
		t.Error("expected empty set after clear")
	}
	if n := q.Push("a"); n != 1 {
		t.Error("expected a to be cleared")
	}
}

func TestPending_GetAndEmpty(t *testing.T) {
	q := New[string]()
	q.Push("a", "b")

	items := q.GetAndEmpty()
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
	if !q.Empty() {
		t.Error("expected empty set after GetAndEmpty")
	}

	items = q.GetAndEmpty()
	if len(items) != 0 {
		t.Errorf("expected empty slice, got %v", items)
	}
}

func TestPending_Concurrent(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			q.Push(n % 10)
		}(i)
	}
	wg.Wait()

	if q.Len() != 10 {
		t.Errorf("expected 10 distinct keys, got %d", q.Len())
	}
}
