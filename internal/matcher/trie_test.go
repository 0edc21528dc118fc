package matcher

import "testing"

func TestTrieInsertAndLookup(t *testing.T) {
	root := newTrieNode()
	if !root.insert([]string{"new", "york"}) {
		t.Fatal("insert returned false for non-empty sequence")
	}
	n := root.child("new")
	if n == nil {
		t.Fatal("child(\"new\") = nil after insert")
	}
	if n.terminal {
		t.Error("intermediate node marked terminal")
	}
	n = n.child("york")
	if n == nil || !n.terminal {
		t.Errorf("final node = %+v, want terminal", n)
	}
}

func TestTrieInsertEmptyIsNoOp(t *testing.T) {
	root := newTrieNode()
	if root.insert(nil) {
		t.Error("insert(nil) returned true")
	}
	if root.terminal {
		t.Error("root marked terminal by empty insert")
	}
	if len(root.children) != 0 {
		t.Errorf("root has %d children after empty insert", len(root.children))
	}
}

func TestTrieReinsertionSharesPrefix(t *testing.T) {
	root := newTrieNode()
	root.insert([]string{"new", "york"})
	root.insert([]string{"new", "york"})
	root.insert([]string{"new", "jersey"})
	if len(root.children) != 1 {
		t.Errorf("root has %d children, want 1 (shared prefix)", len(root.children))
	}
	n := root.child("new")
	if len(n.children) != 2 {
		t.Errorf("\"new\" node has %d children, want 2", len(n.children))
	}
}

func TestTrieSingleTokenTerminal(t *testing.T) {
	root := newTrieNode()
	root.insert([]string{"bronx"})
	root.insert([]string{"bronx", "zoo"})
	n := root.child("bronx")
	if !n.terminal {
		t.Error("\"bronx\" lost its terminal mark when extended to \"bronx zoo\"")
	}
	if z := n.child("zoo"); z == nil || !z.terminal {
		t.Errorf("\"zoo\" node = %+v, want terminal", z)
	}
}
