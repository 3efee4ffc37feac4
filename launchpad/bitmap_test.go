package launchpad

import "testing"

func TestBitmapMarkGetUnmark(t *testing.T) {
	var b Bitmap
	if b.Get(3, 5) {
		t.Fatal("fresh bitmap should have nothing marked")
	}
	b.Mark(3, 5)
	if !b.Get(3, 5) {
		t.Fatal("Mark then Get should be true")
	}
	b.Unmark(3, 5)
	if b.Get(3, 5) {
		t.Fatal("Unmark then Get should be false")
	}
}

func TestBitmapCoversBothBanks(t *testing.T) {
	var b Bitmap
	b.Mark(0, 0) // lo bank
	b.Mark(7, 7) // hi bank
	if !b.Get(0, 0) || !b.Get(7, 7) {
		t.Fatal("marks in either bank must be independently observable")
	}
	b.Unmark(0, 0)
	if !b.Get(7, 7) {
		t.Fatal("unmarking one bank must not affect the other")
	}
}

func TestBitmapRow(t *testing.T) {
	var b Bitmap
	b.Mark(0, 3)
	b.Mark(2, 3)
	b.Mark(7, 3)
	if got, want := b.Row(3), uint8(0b10000101); got != want {
		t.Errorf("Row(3) = %08b, want %08b", got, want)
	}
	if got := b.Row(4); got != 0 {
		t.Errorf("Row(4) = %08b, want 0", got)
	}
}

func TestBitmapIterateVisitsExactlyMarkedCells(t *testing.T) {
	var b Bitmap
	want := map[[2]int]bool{{1, 1}: true, {6, 6}: true, {0, 7}: true}
	for xy := range want {
		b.Mark(xy[0], xy[1])
	}
	got := map[[2]int]bool{}
	b.Iterate(func(x, y int) { got[[2]int{x, y}] = true })
	if len(got) != len(want) {
		t.Fatalf("Iterate visited %d cells, want %d", len(got), len(want))
	}
	for xy := range want {
		if !got[xy] {
			t.Errorf("Iterate missed (%d,%d)", xy[0], xy[1])
		}
	}
}

func TestBitmapOrAndNot(t *testing.T) {
	var a, b Bitmap
	a.Mark(1, 1)
	b.Mark(2, 2)

	or := a.Or(b)
	if !or.Get(1, 1) || !or.Get(2, 2) {
		t.Fatal("Or should contain both marks")
	}

	and := a.And(b)
	if and.Any() {
		t.Fatal("disjoint bitmaps should And to nothing")
	}

	both := a.Or(b)
	and2 := both.And(a)
	if !and2.Get(1, 1) || and2.Get(2, 2) {
		t.Fatal("And should keep only cells present in both operands")
	}

	notA := a.Not()
	if notA.Get(1, 1) {
		t.Fatal("Not should clear a previously marked cell")
	}
	if !notA.Get(0, 0) {
		t.Fatal("Not should set a previously unmarked cell")
	}
}
