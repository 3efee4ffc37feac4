package midiring

import "testing"

func TestRingWriteReadFIFO(t *testing.T) {
	r := New[int](4)
	for i := 1; i <= 3; i++ {
		if !r.Write(i) {
			t.Fatalf("Write(%d) reported full", i)
		}
	}
	for i := 1; i <= 3; i++ {
		v, ok := r.Read()
		if !ok || v != i {
			t.Fatalf("Read() = %v,%v want %d,true", v, ok, i)
		}
	}
	if _, ok := r.Read(); ok {
		t.Fatal("Read() on empty ring returned ok=true")
	}
}

func TestRingWriteDropsAndCountsOverrunWhenFull(t *testing.T) {
	r := New[int](2)
	r.Write(1)
	r.Write(2)
	if r.Write(3) {
		t.Fatal("Write on a full ring should report false")
	}
	if got := r.Overruns(); got != 1 {
		t.Fatalf("Overruns() = %d, want 1", got)
	}
	v, _ := r.Read()
	if v != 1 {
		t.Fatalf("Read() = %d, want 1 (the dropped write should not have displaced it)", v)
	}
}

func TestRingPeekDoesNotRemove(t *testing.T) {
	r := New[int](4)
	r.Write(42)
	v1, ok1 := r.Peek()
	v2, ok2 := r.Peek()
	if !ok1 || !ok2 || v1 != 42 || v2 != 42 {
		t.Fatalf("Peek() twice = (%v,%v) (%v,%v), want (42,true) twice", v1, ok1, v2, ok2)
	}
	if got := r.Len(); got != 1 {
		t.Fatalf("Len() after two Peeks = %d, want 1", got)
	}
	r.Advance()
	if got := r.Len(); got != 0 {
		t.Fatalf("Len() after Advance = %d, want 0", got)
	}
}

func TestRingAdvanceWithoutPeekIsANoOp(t *testing.T) {
	r := New[int](4)
	r.Write(1)
	r.Advance()
	v, ok := r.Read()
	if !ok || v != 1 {
		t.Fatalf("Advance() with nothing peeked dropped a queued value: Read() = %v,%v", v, ok)
	}
}
