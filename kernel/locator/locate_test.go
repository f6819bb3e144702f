package locator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenMetadata = `{
	"name": "Patron #12",
	"description": "Society membership",
	"properties": {
		"tier": {"level": 1, "class": "Patron"},
		"benefits": ["metaverse", {"events": "some free"}]
	},
	"attributes": [
		{"trait_type": "class", "value": "Patron"},
		{"trait_type": "threshold", "value": 500000000000000000000000001}
	],
	"class": "top-level-wins"
}`

func mustParse(t *testing.T, raw string) Value {
	v, err := Parse([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestLocate(t *testing.T) {
	tree := mustParse(t, tokenMetadata)

	tests := []struct {
		name string
		key  string
		want interface{}
		ok   bool
	}{
		{name: "direct key", key: "name", want: "Patron #12", ok: true},
		{name: "direct key beats deeper occurrence", key: "class", want: "top-level-wins", ok: true},
		{name: "nested object", key: "level", want: json.Number("1"), ok: true},
		{name: "inside array element", key: "events", want: "some free", ok: true},
		{name: "first in enumeration order", key: "trait_type", want: "class", ok: true},
		{name: "array of objects", key: "value", want: "Patron", ok: true},
		{name: "missing everywhere", key: "image", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Locate(tt.key, tree)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocateSubtree(t *testing.T) {
	tree := mustParse(t, tokenMetadata)

	got, ok := Locate("tier", tree)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"level": json.Number("1"), "class": "Patron"}, got)

	got, ok = Locate("benefits", tree)
	require.True(t, ok)
	assert.Equal(t, []interface{}{"metaverse", map[string]interface{}{"events": "some free"}}, got)

	sub, ok := Find("attributes", tree)
	require.True(t, ok)
	n := sub.(*Node)
	assert.True(t, n.IsArray())
	assert.Equal(t, []string{"0", "1"}, n.Keys())
	second, ok := n.Get("1")
	require.True(t, ok)
	v, ok := Locate("value", second)
	require.True(t, ok)
	assert.Equal(t, json.Number("500000000000000000000000001"), v)
}

func TestLocateAbsentTree(t *testing.T) {
	v, ok := Locate("name", nil)
	assert.False(t, ok)
	assert.Nil(t, v)

	var n *Node
	_, ok = Locate("name", n)
	assert.False(t, ok)

	_, ok = Locate("name", Leaf{V: "scalar"})
	assert.False(t, ok)
}

func TestLocateNullProperty(t *testing.T) {
	// a null direct hit ends the search of that node, the parent continues
	tree := mustParse(t, `{"a": {"image": null, "b": {"image": "deep"}}, "c": {"image": "sibling"}}`)
	got, ok := Locate("image", tree)
	require.True(t, ok)
	assert.Equal(t, "sibling", got)

	tree = mustParse(t, `{"image": null, "a": {"image": "x"}}`)
	_, ok = Locate("image", tree)
	assert.False(t, ok)
}

func TestLocateDepthOrder(t *testing.T) {
	// "x" is shallower under "b" but "a" is enumerated first
	tree := mustParse(t, `{"a": {"p": {"q": {"x": "deep"}}}, "b": {"x": "shallow"}}`)
	got, ok := Locate("x", tree)
	require.True(t, ok)
	assert.Equal(t, "deep", got)
}

func TestLocateFromInterface(t *testing.T) {
	tree := FromInterface(map[string]interface{}{
		"z": map[string]interface{}{"id": 2},
		"a": map[string]interface{}{"id": 1},
	})
	// sorted enumeration makes the result deterministic
	got, ok := Locate("id", tree)
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestLocateCycleGuard(t *testing.T) {
	root := NewNode()
	child := NewNode()
	root.Set("child", child)
	child.Set("back", root)
	child.Set("self", child)

	_, ok := Locate("missing", root)
	assert.False(t, ok)

	child.Set("found", Leaf{V: true})
	got, ok := Locate("found", root)
	require.True(t, ok)
	assert.Equal(t, true, got)
}

func TestLocateCyclicMatch(t *testing.T) {
	root := NewNode()
	child := NewNode()
	root.Set("child", child)
	child.Set("back", root)
	child.Set("self", child)
	child.Set("name", Leaf{V: "loop"})

	got, ok := Locate("child", root)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"back": map[string]interface{}{"child": nil},
		"self": nil,
		"name": "loop",
	}, got)

	enc, err := json.Marshal(child)
	require.NoError(t, err)
	assert.Equal(t, `{"back":{"child":null},"self":null,"name":"loop"}`, string(enc))
}

func TestInterfaceSharedSubtree(t *testing.T) {
	shared := NewNode().Set("v", Leaf{V: "x"})
	root := NewNode().Set("a", shared).Set("b", shared)

	assert.Equal(t, map[string]interface{}{
		"a": map[string]interface{}{"v": "x"},
		"b": map[string]interface{}{"v": "x"},
	}, root.Interface())
}

func TestMarshalKeepsDocumentOrder(t *testing.T) {
	tree := mustParse(t, `{"zeta": 1, "alpha": [true, null, "s"], "mid": {"b": 2, "a": 1}}`)

	enc, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":[true,null,"s"],"mid":{"b":2,"a":1}}`, string(enc))

	v, ok := Find("mid", tree)
	require.True(t, ok)
	enc, err = json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":1}`, string(enc))
}

func TestLocateDepthGuard(t *testing.T) {
	root := NewNode()
	cur := root
	for i := 0; i < MaxDepth+10; i++ {
		next := NewNode()
		cur.Set("next", next)
		cur = next
	}
	cur.Set("needle", Leaf{V: "unreachable"})

	_, ok := Locate("needle", root)
	assert.False(t, ok)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte(`{"a":`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}
