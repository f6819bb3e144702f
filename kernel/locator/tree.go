// Package locator finds a named property anywhere inside token or contract
// metadata whose exact shape is unknown to the caller.
package locator

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by Parse for malformed input.
var ErrInvalidJSON = errors.New("locator: invalid json")

// Value is either a Leaf or a *Node.
type Value interface {
	// Interface converts the value back to plain Go data.
	Interface() interface{}
	isValue()
}

// Leaf holds a scalar: string, bool, json.Number, nil or any caller supplied value.
type Leaf struct {
	V interface{}
}

func (l Leaf) Interface() interface{} { return l.V }
func (Leaf) isValue()                 {}

// IsNull reports whether the leaf carries no value.
func (l Leaf) IsNull() bool { return l.V == nil }

// Node is an insertion ordered mapping from key to Value. Arrays are Nodes
// keyed "0", "1", ... with the array flag set.
type Node struct {
	entries *linkedhashmap.Map
	array   bool
}

func (*Node) isValue() {}

// NewNode creates an empty object node.
func NewNode() *Node {
	return &Node{entries: linkedhashmap.New()}
}

// NewArrayNode creates a node holding items keyed by their index.
func NewArrayNode(items ...Value) *Node {
	n := &Node{entries: linkedhashmap.New(), array: true}
	for i, it := range items {
		n.entries.Put(strconv.Itoa(i), it)
	}
	return n
}

// Set puts key at the end of the enumeration order, or replaces it in place.
func (n *Node) Set(key string, v Value) *Node {
	n.entries.Put(key, v)
	return n
}

// Get returns the direct child under key.
func (n *Node) Get(key string) (Value, bool) {
	v, ok := n.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.(Value), true
}

// Keys returns keys in enumeration order.
func (n *Node) Keys() []string {
	raw := n.entries.Keys()
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = k.(string)
	}
	return keys
}

func (n *Node) Len() int {
	return n.entries.Size()
}

func (n *Node) IsArray() bool {
	return n.array
}

// Interface converts the node to []interface{} or map[string]interface{}.
// A node reached again through its own descendants, or nested deeper than
// MaxDepth, converts to nil.
func (n *Node) Interface() interface{} {
	return interfaceOf(n, 0, make(map[*Node]struct{}))
}

func interfaceOf(v Value, depth int, path map[*Node]struct{}) interface{} {
	n, ok := v.(*Node)
	if !ok {
		if v == nil {
			return nil
		}
		return v.Interface()
	}
	if n == nil || depth > MaxDepth {
		return nil
	}
	if _, seen := path[n]; seen {
		return nil
	}
	path[n] = struct{}{}
	defer delete(path, n)

	if n.array {
		out := make([]interface{}, 0, n.entries.Size())
		it := n.entries.Iterator()
		for it.Next() {
			out = append(out, interfaceOf(valueAt(it.Value()), depth+1, path))
		}
		return out
	}

	out := make(map[string]interface{}, n.entries.Size())
	it := n.entries.Iterator()
	for it.Next() {
		out[it.Key().(string)] = interfaceOf(valueAt(it.Value()), depth+1, path)
	}
	return out
}

func valueAt(raw interface{}) Value {
	v, _ := raw.(Value)
	return v
}

// MarshalJSON encodes the leaf value alone.
func (l Leaf) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.V)
}

// MarshalJSON encodes the node keeping enumeration order. Cycles and nodes
// deeper than MaxDepth encode as null.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, n, 0, make(map[*Node]struct{})); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v Value, depth int, path map[*Node]struct{}) error {
	n, ok := v.(*Node)
	if !ok {
		if v == nil {
			buf.WriteString("null")
			return nil
		}
		enc, err := json.Marshal(v.Interface())
		if err != nil {
			return err
		}
		buf.Write(enc)
		return nil
	}
	if n == nil || depth > MaxDepth {
		buf.WriteString("null")
		return nil
	}
	if _, seen := path[n]; seen {
		buf.WriteString("null")
		return nil
	}
	path[n] = struct{}{}
	defer delete(path, n)

	open, end := byte('{'), byte('}')
	if n.array {
		open, end = '[', ']'
	}
	buf.WriteByte(open)
	it := n.entries.Iterator()
	for i := 0; it.Next(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if !n.array {
			key, err := json.Marshal(it.Key().(string))
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
		}
		if err := encodeValue(buf, valueAt(it.Value()), depth+1, path); err != nil {
			return err
		}
	}
	buf.WriteByte(end)
	return nil
}

// Parse builds a tree from JSON keeping document key order. Numbers are kept
// as json.Number so token ids and amounts do not lose precision.
func Parse(raw []byte) (Value, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return fromResult(gjson.ParseBytes(raw)), nil
}

func fromResult(r gjson.Result) Value {
	switch {
	case r.IsObject():
		n := NewNode()
		r.ForEach(func(k, v gjson.Result) bool {
			n.Set(k.String(), fromResult(v))
			return true
		})
		return n
	case r.IsArray():
		n := &Node{entries: linkedhashmap.New(), array: true}
		i := 0
		r.ForEach(func(_, v gjson.Result) bool {
			n.Set(strconv.Itoa(i), fromResult(v))
			i++
			return true
		})
		return n
	}

	switch r.Type {
	case gjson.String:
		return Leaf{V: r.String()}
	case gjson.Number:
		return Leaf{V: json.Number(r.Raw)}
	case gjson.True, gjson.False:
		return Leaf{V: r.Bool()}
	default:
		return Leaf{}
	}
}

// FromInterface converts decoded Go data. Map keys are enumerated in sorted
// order since Go maps have none of their own.
func FromInterface(v interface{}) Value {
	switch x := v.(type) {
	case Value:
		return x
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		n := NewNode()
		for _, k := range keys {
			n.Set(k, FromInterface(x[k]))
		}
		return n
	case []interface{}:
		items := make([]Value, len(x))
		for i, it := range x {
			items[i] = FromInterface(it)
		}
		return NewArrayNode(items...)
	default:
		return Leaf{V: v}
	}
}
