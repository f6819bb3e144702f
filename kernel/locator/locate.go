package locator

// MaxDepth bounds the walk so malformed input cannot exhaust the stack.
const MaxDepth = 128

// Locate returns the value of the first property named name, searching tree
// depth first in enumeration order. A key present directly on a node wins over
// anything below it. Absence is reported with ok == false, never as an error.
func Locate(name string, tree Value) (interface{}, bool) {
	v, ok := Find(name, tree)
	if !ok {
		return nil, false
	}
	return v.Interface(), true
}

// Find is Locate returning the typed value.
func Find(name string, tree Value) (Value, bool) {
	if tree == nil {
		return nil, false
	}
	n, ok := tree.(*Node)
	if !ok || n == nil {
		return nil, false
	}
	return find(name, n, 0, make(map[*Node]struct{}))
}

func find(name string, n *Node, depth int, visited map[*Node]struct{}) (Value, bool) {
	if depth > MaxDepth {
		return nil, false
	}
	if _, seen := visited[n]; seen {
		return nil, false
	}
	visited[n] = struct{}{}

	if v, ok := n.Get(name); ok {
		// a null property counts as missing here; the caller moves on to the next sibling
		if leaf, isLeaf := v.(Leaf); isLeaf && leaf.IsNull() {
			return nil, false
		}
		return v, true
	}

	it := n.entries.Iterator()
	for it.Next() {
		child, ok := it.Value().(*Node)
		if !ok || child == nil {
			continue
		}
		if v, found := find(name, child, depth+1, visited); found {
			return v, true
		}
	}
	return nil, false
}
