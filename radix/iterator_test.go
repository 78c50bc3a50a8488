package radix

import "testing"

func TestIteratorFindRepositionsAndSkipsConsumedKeys(t *testing.T) {
	tr := stringTree()
	keys := []string{"apple", "app", "apricot", "banana"}
	for i, k := range keys {
		tr.Insert(k, i)
	}

	it := tr.Begin()
	v, ok := it.Find("apple")
	if !ok || v != 0 {
		t.Fatalf("Find(apple) = %d, %v; want 0, true", v, ok)
	}

	k, _, ok := it.Next()
	if !ok || string(k) != "apricot" {
		t.Fatalf("Next() after Find(apple) = %q, %v; want \"apricot\", true", k, ok)
	}
}

func TestIteratorFindMissingLeavesPositionUnchanged(t *testing.T) {
	tr := stringTree()
	tr.Insert("apple", 1)
	tr.Insert("banana", 2)

	it := tr.Begin()
	if _, ok := it.Find("cherry"); ok {
		t.Fatalf("Find(cherry) should miss")
	}

	k, _, ok := it.Next()
	if !ok || string(k) != "apple" {
		t.Fatalf("Next() after a missed Find = %q, %v; want \"apple\", true", k, ok)
	}
}

func TestIteratorSetValueUpdatesCurrentEntry(t *testing.T) {
	tr := stringTree()
	tr.Insert("apple", 1)

	it := tr.Begin()
	if _, _, ok := it.Next(); !ok {
		t.Fatalf("Next() should hit apple")
	}
	if !it.SetValue(42) {
		t.Fatalf("SetValue should report a current position")
	}
	if v, _ := tr.Find("apple"); v != 42 {
		t.Fatalf("Find(apple) = %d, want 42 after Iterator.SetValue", v)
	}
}

func TestIteratorSetValueWithNoPositionFails(t *testing.T) {
	tr := stringTree()
	it := tr.Begin()
	if it.SetValue(1) {
		t.Fatalf("SetValue before any Next should fail")
	}
}

func TestIteratorInsertRepositionsAndContinues(t *testing.T) {
	tr := stringTree()
	tr.Insert("apple", 1)
	tr.Insert("banana", 2)

	it := tr.Begin()
	if _, _, ok := it.Next(); !ok {
		t.Fatalf("Next() should hit apple")
	}

	if _, existed := it.Insert("apricot", 3); existed {
		t.Fatalf("apricot should be new")
	}

	k, _, ok := it.Next()
	if !ok || string(k) != "banana" {
		t.Fatalf("Next() after Insert(apricot) = %q, %v; want \"banana\", true", k, ok)
	}
}

func TestIteratorEraseAdvancesToNextSurvivingKey(t *testing.T) {
	tr := stringTree()
	tr.Insert("apple", 1)
	tr.Insert("app", 2)
	tr.Insert("banana", 3)

	it := tr.Begin()
	k, _, ok := it.Next()
	if !ok || string(k) != "app" {
		t.Fatalf("first Next() = %q, want \"app\"", k)
	}

	v, ok := it.Erase()
	if !ok || v != 2 {
		t.Fatalf("Erase() = %d, %v; want 2, true", v, ok)
	}

	k, _, ok = it.Next()
	if !ok || string(k) != "apple" {
		t.Fatalf("Next() after Erase() = %q, %v; want \"apple\", true", k, ok)
	}
	if _, ok := tr.Find("app"); ok {
		t.Fatalf("app should have been removed from the tree")
	}
}

func TestIteratorEraseTriggeringParentCollapseStillFindsTail(t *testing.T) {
	// "ab" and "ac" share a branching parent with exactly two children;
	// erasing the iterator's current entry ("ab") collapses that parent
	// into its sole remaining child ("ac"), which must not strand the
	// iterator's own stack frames.
	tr := stringTree()
	tr.Insert("ab", 1)
	tr.Insert("ac", 2)
	tr.Insert("b", 3)

	it := tr.Begin()
	k, _, ok := it.Next()
	if !ok || string(k) != "ab" {
		t.Fatalf("first Next() = %q, want \"ab\"", k)
	}

	if _, ok := it.Erase(); !ok {
		t.Fatalf("Erase() should report a current position")
	}

	var got []string
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, string(k))
	}
	want := []string{"ac", "b"}
	if len(got) != len(want) {
		t.Fatalf("remaining keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("remaining keys = %v, want %v", got, want)
		}
	}
}

func TestIteratorEraseWithNoPositionFails(t *testing.T) {
	tr := stringTree()
	it := tr.Begin()
	if _, ok := it.Erase(); ok {
		t.Fatalf("Erase before any Next should fail")
	}
}
