package bitops

import "testing"

func TestBitmask256GetSetClear(t *testing.T) {
	var b Bitmask256

	indices := []byte{0, 63, 64, 127, 128, 191, 192, 255}
	for _, i := range indices {
		if b.IsSet(i) {
			t.Fatalf("bit %d should be clear initially", i)
		}
	}

	for _, i := range indices {
		b.Set(i)
		if !b.IsSet(i) {
			t.Fatalf("bit %d should be set after Set()", i)
		}
	}

	for _, i := range []byte{1, 2, 60, 65, 129, 254} {
		if b.IsSet(i) {
			t.Fatalf("bit %d should remain clear", i)
		}
	}

	for _, i := range indices {
		b.Clear(i)
		if b.IsSet(i) {
			t.Fatalf("bit %d should be clear after Clear()", i)
		}
	}
}

func TestBitmask256PopCount(t *testing.T) {
	var b Bitmask256
	if got := b.PopCount(); got != 0 {
		t.Fatalf("expected count 0 on new bitmask, got %d", got)
	}
	b.Set(10)
	b.Set(20)
	b.Set(10) // duplicate, should not increase count
	if got := b.PopCount(); got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}
	b.Set(0)
	b.Set(255)
	if got := b.PopCount(); got != 4 {
		t.Fatalf("expected count 4, got %d", got)
	}
	b.Clear(20)
	if got := b.PopCount(); got != 3 {
		t.Fatalf("expected count 3, got %d", got)
	}
}

func TestBitmask256FindNextSet(t *testing.T) {
	var b Bitmask256
	b.Set(5)
	b.Set(64)
	b.Set(200)

	idx, ok := b.FindNextSet(-1)
	if !ok || idx != 5 {
		t.Fatalf("FindNextSet(-1) = (%d, %v), want (5, true)", idx, ok)
	}
	idx, ok = b.FindNextSet(5)
	if !ok || idx != 64 {
		t.Fatalf("FindNextSet(5) = (%d, %v), want (64, true)", idx, ok)
	}
	idx, ok = b.FindNextSet(64)
	if !ok || idx != 200 {
		t.Fatalf("FindNextSet(64) = (%d, %v), want (200, true)", idx, ok)
	}
	_, ok = b.FindNextSet(200)
	if ok {
		t.Fatalf("FindNextSet(200) should report no further bit")
	}
}

func TestBitmask256GroupPopCount(t *testing.T) {
	var b Bitmask256
	b.Set(0)
	b.Set(31)
	b.Set(32)
	b.Set(250)

	if got := b.GroupPopCount(0); got != 2 {
		t.Fatalf("group 0 popcount = %d, want 2", got)
	}
	if got := b.GroupPopCount(1); got != 1 {
		t.Fatalf("group 1 popcount = %d, want 1", got)
	}
	if got := b.GroupPopCount(7); got != 1 {
		t.Fatalf("group 7 popcount = %d, want 1", got)
	}
}
