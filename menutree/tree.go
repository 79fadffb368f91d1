// Package menutree is a small in-memory menu framework: a fixed set of named branches, each holding an ordered
// list of non-persistent nodes.
package menutree

import (
	"sync"

	"nmprofiles/profilemenu"
)

// Branch is an ordered container of nodes. Node keys are unique within a branch.
type Branch struct {
	mu    sync.Mutex
	key   string
	title string
	nodes []profilemenu.Node
}

// Key returns the branch key.
func (b *Branch) Key() string { return b.key }

// Title returns the branch title.
func (b *Branch) Title() string { return b.title }

// Clear removes every node.
func (b *Branch) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = nil
}

// Add appends node. A node with an existing key replaces the earlier one in place.
func (b *Branch) Add(node profilemenu.Node) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.nodes {
		if b.nodes[i].Key == node.Key {
			b.nodes[i] = node
			return
		}
	}
	b.nodes = append(b.nodes, node)
}

// Nodes returns a copy of the current nodes.
func (b *Branch) Nodes() []profilemenu.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]profilemenu.Node, len(b.nodes))
	copy(out, b.nodes)
	return out
}

// Len returns the number of nodes.
func (b *Branch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.nodes)
}

// Find returns the node with key.
func (b *Branch) Find(key string) (profilemenu.Node, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.nodes {
		if n.Key == key {
			return n, true
		}
	}
	return profilemenu.Node{}, false
}

// Spec declares one branch of a tree.
type Spec struct {
	Key   string
	Title string
}

// Tree holds the branches declared at construction. Branches are never added later.
type Tree struct {
	order    []string
	branches map[string]*Branch
}

// New creates a tree with the given branches, in order.
func New(specs ...Spec) *Tree {
	t := &Tree{branches: make(map[string]*Branch, len(specs))}
	for _, s := range specs {
		if _, dup := t.branches[s.Key]; dup {
			continue
		}
		t.order = append(t.order, s.Key)
		t.branches[s.Key] = &Branch{key: s.Key, title: s.Title}
	}
	return t
}

// Default returns a tree with the WiFi and room branches.
func Default() *Tree {
	return New(
		Spec{Key: profilemenu.BranchWifi, Title: "WiFi based"},
		Spec{Key: profilemenu.BranchRooms, Title: "Room based"},
	)
}

// Lookup returns the branch with key, or nil.
func (t *Tree) Lookup(key string) *Branch {
	return t.branches[key]
}

// Branch implements profilemenu.Menu.
func (t *Tree) Branch(key string) profilemenu.Branch {
	b, ok := t.branches[key]
	if !ok {
		return nil
	}
	return b
}

// Branches returns the branches in declaration order.
func (t *Tree) Branches() []*Branch {
	out := make([]*Branch, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, t.branches[key])
	}
	return out
}
