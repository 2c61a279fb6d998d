package graph

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Properties is the open key/value payload of a node or relationship. The
// engine treats it as an opaque document: values are compared structurally,
// never by field-specific logic.
type Properties map[string]interface{}

// CanonicalJSON returns a stable encoding of the payload. encoding/json
// marshals map keys in sorted order, which is what makes the encoding
// canonical for identical logical content.
func (p Properties) CanonicalJSON() ([]byte, error) {
	if p == nil {
		p = Properties{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("canonical payload encoding: %w", err)
	}
	return data, nil
}

// Equal reports structural equality of two payloads, ignoring key order and
// formatting differences.
func (p Properties) Equal(other Properties) bool {
	left, err := p.CanonicalJSON()
	if err != nil {
		return false
	}
	right, err := other.CanonicalJSON()
	if err != nil {
		return false
	}
	return jsonpatch.Equal(left, right)
}

// String renders the payload as compact JSON for display.
func (p Properties) String() string {
	data, err := p.CanonicalJSON()
	if err != nil {
		return fmt.Sprintf("%v", map[string]interface{}(p))
	}
	return string(data)
}

func (p Properties) Copy() Properties {
	if p == nil {
		return nil
	}
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}
