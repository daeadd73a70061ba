// Package rawtree is the raw-data parser capability: it turns response bytes
// into the loosely-typed tree the schema package can inspect. It is the only
// bridge from wire bytes to structured data; nothing downstream trusts the
// shape of what it returns.
package rawtree

import (
	"encoding/json"
	"fmt"
)

// CapabilityName is the environment key a parsing effect resolves.
const CapabilityName = "rawtree"

// Tree is a loosely-typed value tree: map[string]any, []any, float64,
// string, bool, or nil, nested arbitrarily.
type Tree = any

// SyntaxFault reports a body that is not parseable at all, as opposed to one
// that parses but mismatches a schema.
type SyntaxFault struct {
	Cause error
}

func (f *SyntaxFault) Error() string {
	return fmt.Sprintf("rawtree: body not parseable: %v", f.Cause)
}

func (f *SyntaxFault) Unwrap() error { return f.Cause }

// Parser decodes raw bytes into a Tree.
type Parser interface {
	ParseBytes(body []byte) (Tree, error)
}

// JSON is the standard-encoding parser implementation.
type JSON struct{}

func (JSON) ParseBytes(body []byte) (Tree, error) {
	var tree Tree
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, &SyntaxFault{Cause: err}
	}
	return tree, nil
}
