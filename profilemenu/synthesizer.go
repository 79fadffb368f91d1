package profilemenu

// Node is a non-persistent menu node handed to the menu framework.
type Node struct {
	Key     string
	Title   string
	Summary string
	Target  Target
}

// Branch is a container node owned by the menu framework.
type Branch interface {
	Clear()
	Add(node Node)
}

// Menu is the part of the menu framework the resolver needs. Branch returns nil when key is not configured.
type Menu interface {
	Branch(key string) Branch
}

// NodeFor builds the menu node for an entry.
func NodeFor(e Entry) Node {
	return Node{
		Key:     e.Key,
		Title:   e.Title,
		Summary: e.Status.Summary(),
		Target:  e.Context.Target(),
	}
}

// Rebuild replaces every child of branch with one node per entry, in order.
func Rebuild(branch Branch, entries []Entry) {
	branch.Clear()
	for _, e := range entries {
		branch.Add(NodeFor(e))
	}
}
