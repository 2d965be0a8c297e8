// Package apijson reads values out of untyped API responses.
package apijson

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/verte-zerg/inoue/internal/errs"
)

// Document is a parsed, read-only JSON response.
type Document struct {
	root Node
}

// Node is one value inside a Document.
type Node struct {
	res gjson.Result
}

// Parse validates data and returns a Document over it.
func Parse(data []byte) (Document, error) {
	if !gjson.ValidBytes(data) {
		return Document{}, errs.APIFormat("parse response", "invalid JSON document", nil)
	}
	return Document{root: Node{res: gjson.ParseBytes(data)}}, nil
}

// Root returns the top-level value.
func (d Document) Root() Node {
	return d.root
}

// IsObject reports whether the node is a JSON object.
func (n Node) IsObject() bool {
	return n.res.IsObject()
}

// IsArray reports whether the node is a JSON array.
func (n Node) IsArray() bool {
	return n.res.IsArray()
}

// IsTrue reports whether the node is the boolean true.
func (n Node) IsTrue() bool {
	return n.res.Type == gjson.True
}

// String returns a copy of the node's value when it is a JSON string.
func (n Node) String() (string, bool) {
	if n.res.Type != gjson.String {
		return "", false
	}
	return strings.Clone(n.res.Str), true
}

// Entries calls fn for each key/value pair of an object in document order,
// duplicates included, until fn returns false. Non-objects yield nothing.
func (n Node) Entries(fn func(key string, value Node) bool) {
	if !n.IsObject() {
		return
	}
	n.res.ForEach(func(key, value gjson.Result) bool {
		return fn(key.Str, Node{res: value})
	})
}

// Elements calls fn for each element of an array in order until fn returns
// false. Non-arrays yield nothing.
func (n Node) Elements(fn func(value Node) bool) {
	if !n.IsArray() {
		return
	}
	n.res.ForEach(func(_, value gjson.Result) bool {
		return fn(Node{res: value})
	})
}
