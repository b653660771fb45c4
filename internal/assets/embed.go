package assets

import (
	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

// ImageEmbed builds an image embed node carrying the asset reference. The
// node has no key; insertion re-keys it against the target document.
func ImageEmbed(ref Ref, alt string) doc.Node {
	payload := map[string]any{
		"asset": map[string]any{
			"_type": "reference",
			"_ref":  string(ref),
		},
	}
	if alt != "" {
		payload["alt"] = alt
	}
	return doc.Node{
		Type:  "image",
		Extra: payload,
	}
}
