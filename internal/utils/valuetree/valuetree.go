// Package valuetree models arbitrary JSON documents (contract storage,
// operation parameters) as a typed tree that keeps object keys in document
// order, so scans over it are deterministic.
package valuetree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	sdkmath "cosmossdk.io/math"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a single JSON value. Numbers keep their literal text.
type Node struct {
	kind    Kind
	text    string
	boolean bool
	items   []Node
	keys    []string
	fields  map[string]Node
}

func String(s string) Node { return Node{kind: KindString, text: s} }

func Number(literal string) Node { return Node{kind: KindNumber, text: literal} }

func Array(items ...Node) Node { return Node{kind: KindArray, items: items} }

// Object builds an object from alternating key/value pairs, preserving order.
func Object(pairs ...any) Node {
	n := Node{kind: KindObject, fields: make(map[string]Node, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		n.set(pairs[i].(string), pairs[i+1].(Node))
	}
	return n
}

func (n *Node) set(key string, value Node) {
	if _, exists := n.fields[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = value
}

func (n Node) Kind() Kind { return n.kind }

func (n Node) IsNull() bool { return n.kind == KindNull }

// Text returns the literal of a string or number node.
func (n Node) Text() string { return n.text }

// Len is the number of items of an array or fields of an object.
func (n Node) Len() int {
	switch n.kind {
	case KindArray:
		return len(n.items)
	case KindObject:
		return len(n.keys)
	default:
		return 0
	}
}

// Field returns the value stored under key when n is an object.
func (n Node) Field(key string) (Node, bool) {
	if n.kind != KindObject {
		return Node{}, false
	}
	v, ok := n.fields[key]
	return v, ok
}

// Children returns array items or object values in document order.
func (n Node) Children() []Node {
	switch n.kind {
	case KindArray:
		return n.items
	case KindObject:
		out := make([]Node, 0, len(n.keys))
		for _, k := range n.keys {
			out = append(out, n.fields[k])
		}
		return out
	default:
		return nil
	}
}

// Last returns the last array item or the last object value.
func (n Node) Last() (Node, bool) {
	children := n.Children()
	if len(children) == 0 {
		return Node{}, false
	}
	return children[len(children)-1], true
}

// Int interprets a number or numeric string as an integer. Fractional and
// non-numeric values are rejected.
func (n Node) Int() (sdkmath.Int, bool) {
	if n.kind != KindNumber && n.kind != KindString {
		return sdkmath.Int{}, false
	}
	literal := strings.TrimSpace(n.text)
	if literal == "" {
		return sdkmath.Int{}, false
	}
	return sdkmath.NewIntFromString(literal)
}

// Parse decodes a JSON document into a Node.
func Parse(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := decodeValue(dec)
	if err != nil {
		return Node{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Node{}, errors.New("unexpected data after top-level value")
	}
	return n, nil
}

// UnmarshalJSON lets Node be used directly as a field of a decoded struct.
func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// MarshalJSON writes the node back out with object keys in document order.
func (n Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n Node) encode(buf *bytes.Buffer) error {
	switch n.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(n.boolean))
	case KindNumber:
		buf.WriteString(n.text)
	case KindString:
		quoted, err := json.Marshal(n.text)
		if err != nil {
			return err
		}
		buf.Write(quoted)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, key := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			quoted, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(quoted)
			buf.WriteByte(':')
			if err := n.fields[key].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode %s", n.kind)
	}
	return nil
}

func decodeValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}

	switch v := tok.(type) {
	case nil:
		return Node{kind: KindNull}, nil
	case bool:
		return Node{kind: KindBool, boolean: v}, nil
	case json.Number:
		return Number(v.String()), nil
	case string:
		return String(v), nil
	case json.Delim:
		switch v {
		case '[':
			arr := Node{kind: KindArray}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Node{}, err
				}
				arr.items = append(arr.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Node{}, err
			}
			return arr, nil
		case '{':
			obj := Node{kind: KindObject, fields: map[string]Node{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Node{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Node{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				value, err := decodeValue(dec)
				if err != nil {
					return Node{}, err
				}
				obj.set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return Node{}, err
			}
			return obj, nil
		}
	}

	return Node{}, fmt.Errorf("unexpected json token %v", tok)
}
