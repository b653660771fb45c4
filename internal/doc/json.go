package doc

import "encoding/json"

// The wire format follows the store's field naming: _type, _key, style,
// listItem, level, children, markDefs on blocks; arbitrary payload fields on
// embeds. Unknown fields are kept in Extra so a decode/encode round trip
// never loses data.

// UnmarshalJSON decodes a node, routing uninterpreted fields into Extra.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node{}
	take := func(field string, dst any) error {
		msg, ok := raw[field]
		if !ok {
			return nil
		}
		delete(raw, field)
		return json.Unmarshal(msg, dst)
	}
	if err := take("_type", &n.Type); err != nil {
		return err
	}
	if err := take("_key", &n.Key); err != nil {
		return err
	}
	if n.Type == BlockType {
		if err := take("style", &n.Style); err != nil {
			return err
		}
		if err := take("listItem", &n.ListItem); err != nil {
			return err
		}
		if err := take("level", &n.Level); err != nil {
			return err
		}
		if err := take("children", &n.Children); err != nil {
			return err
		}
		if err := take("markDefs", &n.MarkDefs); err != nil {
			return err
		}
	}
	for field, msg := range raw {
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return err
		}
		if n.Extra == nil {
			n.Extra = make(map[string]any)
		}
		n.Extra[field] = v
	}
	return nil
}

// MarshalJSON encodes a node back into the wire layout.
func (n Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Extra)+7)
	for field, v := range n.Extra {
		out[field] = v
	}
	out["_type"] = n.Type
	if n.Key != "" {
		out["_key"] = n.Key
	}
	if n.Type == BlockType {
		if n.Style != "" {
			out["style"] = n.Style
		}
		if n.ListItem != "" {
			out["listItem"] = n.ListItem
		}
		if n.Level != 0 {
			out["level"] = n.Level
		}
		children := n.Children
		if children == nil {
			children = []Span{}
		}
		out["children"] = children
		markDefs := n.MarkDefs
		if markDefs == nil {
			markDefs = []MarkDef{}
		}
		out["markDefs"] = markDefs
	}
	return json.Marshal(out)
}

type spanWire struct {
	Type  string   `json:"_type"`
	Key   string   `json:"_key,omitempty"`
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`
}

// MarshalJSON tags every span with _type "span" on the wire.
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal(spanWire{Type: "span", Key: s.Key, Text: s.Text, Marks: s.Marks})
}

// UnmarshalJSON decodes a span, dropping the redundant _type tag.
func (s *Span) UnmarshalJSON(data []byte) error {
	var w spanWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Span{Key: w.Key, Text: w.Text, Marks: w.Marks}
	return nil
}

// UnmarshalJSON decodes a mark definition, keeping unknown payload fields.
func (m *MarkDef) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MarkDef{}
	take := func(field string, dst any) error {
		msg, ok := raw[field]
		if !ok {
			return nil
		}
		delete(raw, field)
		return json.Unmarshal(msg, dst)
	}
	if err := take("_type", &m.Type); err != nil {
		return err
	}
	if err := take("_key", &m.Key); err != nil {
		return err
	}
	if err := take("href", &m.Href); err != nil {
		return err
	}
	for field, msg := range raw {
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return err
		}
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[field] = v
	}
	return nil
}

// MarshalJSON encodes a mark definition.
func (m MarkDef) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+3)
	for field, v := range m.Extra {
		out[field] = v
	}
	out["_type"] = m.Type
	out["_key"] = m.Key
	if m.Href != "" {
		out["href"] = m.Href
	}
	return json.Marshal(out)
}

// Equal reports structural equality of two documents, revision included.
// Encoding to canonical JSON keeps the comparison honest across Extra maps.
func Equal(a, b Document) bool {
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}
