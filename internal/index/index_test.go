// SPDX-License-Identifier: MIT

package index

import "testing"

func TestBootstrapThenQuery(t *testing.T) {
	ix := New()
	if ix.Ready() {
		t.Fatal("new index must not be ready before Bootstrap")
	}

	err := ix.Bootstrap(map[string][]string{
		"alice": {"a1", "a2"},
		"bob":   {"b1"},
	})
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if !ix.Ready() {
		t.Fatal("index must be ready after Bootstrap")
	}
	if !ix.Has("alice", "a1") || !ix.Has("bob", "b1") {
		t.Fatal("bootstrapped entries must be queryable")
	}
	if ix.OwnerCount() != 2 || ix.RelationCount() != 3 {
		t.Fatalf("OwnerCount/RelationCount = %d/%d, want 2/3", ix.OwnerCount(), ix.RelationCount())
	}
}

func TestBootstrapRefusesAfterMutation(t *testing.T) {
	ix := New()
	ix.Insert("alice", "a1")

	if err := ix.Bootstrap(map[string][]string{"bob": {"b1"}}); err != ErrAlreadyMutated {
		t.Fatalf("Bootstrap() error = %v, want ErrAlreadyMutated", err)
	}
	// The prior incremental mutation must survive untouched.
	if !ix.Has("alice", "a1") {
		t.Fatal("incremental insert must not be wiped by a refused bootstrap")
	}
}

func TestInsertAndDelete(t *testing.T) {
	ix := New()
	ix.Insert("alice", "a1")
	if !ix.Has("alice", "a1") {
		t.Fatal("expected a1 present after insert")
	}

	if !ix.Delete("alice", "a1") {
		t.Fatal("Delete() should report the entry was present")
	}
	if ix.Has("alice", "a1") {
		t.Fatal("expected a1 absent after delete")
	}
	// Idempotent delete: second call reports absence, not an error.
	if ix.Delete("alice", "a1") {
		t.Fatal("second Delete() should report absence")
	}
}

func TestDeleteLastAudioRemovesEmptyOwner(t *testing.T) {
	ix := New()
	ix.Insert("alice", "a1")
	ix.Delete("alice", "a1")

	if ix.OwnerCount() != 0 {
		t.Errorf("OwnerCount() = %d, want 0 once an owner's last audio is deleted", ix.OwnerCount())
	}
}

func TestForEachOwnerSnapshotIsConsistent(t *testing.T) {
	ix := New()
	ix.Insert("alice", "a1")
	ix.Insert("alice", "a2")
	ix.Insert("bob", "b1")

	seen := map[string]int{}
	ix.ForEachOwner(func(owner string, audios []string) {
		seen[owner] = len(audios)
	})

	if seen["alice"] != 2 || seen["bob"] != 1 {
		t.Fatalf("ForEachOwner snapshot = %v, want alice:2 bob:1", seen)
	}
}
