package doc

// BlockType tags a text block. Every other node type is treated as an
// opaque media/embed payload (image, speechBubble, affiliate widget, ...).
const BlockType = "block"

// Decorators are the mark names spans may cite without a matching
// MarkDef in the enclosing block.
var Decorators = map[string]bool{
	"strong":         true,
	"em":             true,
	"code":           true,
	"underline":      true,
	"strike-through": true,
}

// Node is one element of a document body. The Type tag discriminates text
// blocks from opaque embeds. For non-block nodes the payload lives in Extra
// and is preserved verbatim across a decode/encode round trip; for blocks,
// Extra holds any fields the model does not interpret.
type Node struct {
	Type     string
	Key      string
	Style    string
	ListItem string
	Level    int
	Children []Span
	MarkDefs []MarkDef
	Extra    map[string]any
}

// Span is an inline text run inside a text block. Marks holds decorator
// names and MarkDef keys; MarkDef keys only resolve within the same block.
type Span struct {
	Key   string
	Text  string
	Marks []string
}

// MarkDef is a block-scoped annotation cited by spans via its key.
type MarkDef struct {
	Key   string
	Type  string
	Href  string
	Extra map[string]any
}

// IsBlock reports whether the node is a text block.
func (n Node) IsBlock() bool { return n.Type == BlockType }

// Text returns the concatenated span text of a block, empty for embeds.
func (n Node) Text() string {
	if !n.IsBlock() {
		return ""
	}
	var b []byte
	for _, s := range n.Children {
		b = append(b, s.Text...)
	}
	return string(b)
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Children != nil {
		out.Children = make([]Span, len(n.Children))
		for i, s := range n.Children {
			out.Children[i] = s.Clone()
		}
	}
	if n.MarkDefs != nil {
		out.MarkDefs = make([]MarkDef, len(n.MarkDefs))
		for i, m := range n.MarkDefs {
			out.MarkDefs[i] = m.Clone()
		}
	}
	out.Extra = cloneMap(n.Extra)
	return out
}

// Clone returns a deep copy of the span.
func (s Span) Clone() Span {
	out := s
	out.Marks = append([]string(nil), s.Marks...)
	return out
}

// Clone returns a deep copy of the mark definition.
func (m MarkDef) Clone() MarkDef {
	out := m
	out.Extra = cloneMap(m.Extra)
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
