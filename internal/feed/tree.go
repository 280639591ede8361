package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Tree is the locally assembled state of one collection. The streaming
// protocol sends an initial put of the whole collection followed by puts
// and patches at child paths; Tree applies them so callers can always work
// with the complete snapshot.
//
// Arrays are stored as objects keyed by index, which matches how the store
// itself models them.
type Tree struct {
	root any
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Put replaces the value at path. A null value deletes it.
func (t *Tree) Put(path string, data json.RawMessage) error {
	v, err := decodeValue(data)
	if err != nil {
		return fmt.Errorf("decoding put at %s: %w", path, err)
	}
	t.set(splitPath(path), v)
	return nil
}

// Patch merges the children of data into the object at path.
func (t *Tree) Patch(path string, data json.RawMessage) error {
	v, err := decodeValue(data)
	if err != nil {
		return fmt.Errorf("decoding patch at %s: %w", path, err)
	}
	children, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("patch at %s: expected object, got %T", path, v)
	}
	base := splitPath(path)
	for k, child := range children {
		segs := make([]string, len(base), len(base)+1)
		copy(segs, base)
		t.set(append(segs, k), child)
	}
	return nil
}

// Snapshot returns the current tree as JSON. An empty tree is "null".
func (t *Tree) Snapshot() (json.RawMessage, error) {
	data, err := json.Marshal(t.root)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

func (t *Tree) set(segs []string, v any) {
	if len(segs) == 0 {
		t.root = v
		return
	}

	obj, ok := t.root.(map[string]any)
	if !ok {
		if v == nil {
			return
		}
		obj = make(map[string]any)
		t.root = obj
	}
	setIn(obj, segs, v)
	if len(obj) == 0 {
		t.root = nil
	}
}

// setIn writes v under segs, creating intermediate objects and pruning
// objects left empty by a delete.
func setIn(obj map[string]any, segs []string, v any) {
	key := segs[0]
	if len(segs) == 1 {
		if v == nil {
			delete(obj, key)
		} else {
			obj[key] = v
		}
		return
	}

	child, ok := obj[key].(map[string]any)
	if !ok {
		if v == nil {
			return
		}
		child = make(map[string]any)
		obj[key] = child
	}
	setIn(child, segs[1:], v)
	if len(child) == 0 {
		delete(obj, key)
	}
}

func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// decodeValue parses JSON keeping numbers exact and turning arrays into
// index-keyed objects.
func decodeValue(data json.RawMessage) (any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalize(v), nil
}

func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			if child == nil {
				delete(val, k)
				continue
			}
			val[k] = normalize(child)
		}
		return val
	case []any:
		obj := make(map[string]any, len(val))
		for i, child := range val {
			if child == nil {
				continue
			}
			obj[strconv.Itoa(i)] = normalize(child)
		}
		return obj
	default:
		return v
	}
}
