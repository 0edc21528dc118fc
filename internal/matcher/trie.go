package matcher

// trieNode is one position in the term trie. Edges are labelled by
// lowercased tokens; terminal marks that a complete term ends at this node.
// The root represents the empty prefix and is never terminal.
type trieNode struct {
	children map[string]*trieNode
	terminal bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// insert descends from n, creating children as needed, and marks the final
// node terminal. Inserting a sequence twice has no effect beyond re-marking
// the same node. An empty sequence is a no-op and returns false.
func (n *trieNode) insert(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	node := n
	for _, tok := range tokens {
		child := node.children[tok]
		if child == nil {
			child = newTrieNode()
			node.children[tok] = child
		}
		node = child
	}
	node.terminal = true
	return true
}

// child returns the child reached by token, or nil if no such edge exists.
func (n *trieNode) child(token string) *trieNode {
	return n.children[token]
}

// clone returns a deep copy of the subtree rooted at n. The copy shares no
// nodes with the original, so it can be mutated while readers keep scanning
// the original.
func (n *trieNode) clone() *trieNode {
	c := &trieNode{
		children: make(map[string]*trieNode, len(n.children)),
		terminal: n.terminal,
	}
	for tok, child := range n.children {
		c.children[tok] = child.clone()
	}
	return c
}
