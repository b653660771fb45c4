package doc

import (
	"crypto/rand"
	"encoding/hex"
)

// NewKey returns a fresh 12-character hex key, matching the format the
// store's editor assigns. The space is large enough that collisions are
// negligible, but FreshKey still checks against a taken set.
func NewKey() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// FreshKey returns a key not present in taken and records it there.
func FreshKey(taken map[string]bool) string {
	for {
		k := NewKey()
		if !taken[k] {
			taken[k] = true
			return k
		}
	}
}

// Keys collects every key in a body: node keys, span keys, mark definition
// keys. Empty keys are not collected.
func Keys(body []Node) map[string]bool {
	taken := make(map[string]bool)
	note := func(k string) {
		if k != "" {
			taken[k] = true
		}
	}
	for _, n := range body {
		note(n.Key)
		for _, s := range n.Children {
			note(s.Key)
		}
		for _, m := range n.MarkDefs {
			note(m.Key)
		}
	}
	return taken
}

// Rekey returns a copy of the node with entirely fresh keys. Mark
// definition keys are remapped consistently so span marks keep resolving.
// Used when inserting template nodes so the same template can be inserted
// into many documents without key collisions.
func Rekey(n Node, taken map[string]bool) Node {
	out := n.Clone()
	out.Key = FreshKey(taken)
	remapped := make(map[string]string, len(out.MarkDefs))
	for i := range out.MarkDefs {
		fresh := FreshKey(taken)
		remapped[out.MarkDefs[i].Key] = fresh
		out.MarkDefs[i].Key = fresh
	}
	for i := range out.Children {
		if out.Children[i].Key != "" {
			out.Children[i].Key = FreshKey(taken)
		}
		for j, mark := range out.Children[i].Marks {
			if fresh, ok := remapped[mark]; ok {
				out.Children[i].Marks[j] = fresh
			}
		}
	}
	return out
}
