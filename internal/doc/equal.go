package doc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies a node by payload, not by key. Two embeds with the
// same fingerprint are the same content even when their keys differ. Keys
// are stripped (and mark definition keys renumbered positionally) before
// hashing, so re-keyed copies collide as intended.
func (n Node) Fingerprint() string {
	canon, err := json.Marshal(n.canonical())
	if err != nil {
		return "unhashable:" + n.Key
	}
	sum := blake2b.Sum256(canon)
	return hex.EncodeToString(sum[:16])
}

// EqualShape reports whether two nodes carry the same content, ignoring
// every key. Used as the duplicate guard for idempotent inserts.
func EqualShape(a, b Node) bool {
	if a.Type != b.Type {
		return false
	}
	return a.Fingerprint() == b.Fingerprint()
}

// EqualShapes compares two node sequences pairwise by shape.
func EqualShapes(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !EqualShape(a[i], b[i]) {
			return false
		}
	}
	return true
}

// canonical returns a key-free copy suitable for hashing. Mark definition
// keys become positional labels and span marks are rewritten to match,
// preserving which span cites which definition without the random keys.
func (n Node) canonical() Node {
	out := n.Clone()
	out.Key = ""
	renamed := make(map[string]string, len(out.MarkDefs))
	for i := range out.MarkDefs {
		label := fmt.Sprintf("def%d", i)
		renamed[out.MarkDefs[i].Key] = label
		out.MarkDefs[i].Key = label
	}
	for i := range out.Children {
		out.Children[i].Key = ""
		for j, mark := range out.Children[i].Marks {
			if label, ok := renamed[mark]; ok {
				out.Children[i].Marks[j] = label
			}
		}
	}
	return out
}
