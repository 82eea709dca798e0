package android

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidDocument is returned when an XML document cannot be parsed at all.
// No partial resource tree is ever returned alongside it.
var ErrInvalidDocument = errors.New("invalid XML document")

// NodeKind identifies the type of a Node.
type NodeKind int

const (
	// ElementNode is an XML element with attributes and children.
	ElementNode NodeKind = iota
	// TextNode is character data (CDATA sections included).
	TextNode
	// CommentNode is an XML comment.
	CommentNode
)

// Node is one node of a parsed XML document. Documents are built once by
// ParseDocument and only read afterwards.
type Node struct {
	Kind NodeKind

	// Name is the element name. Name.Space holds the namespace URL when the
	// prefix was declared, or the raw prefix when it was not.
	Name xml.Name
	// Prefix is the prefix the element used in the source document.
	Prefix string
	// Attr holds element attributes. Attr[i].Name.Space is the attribute's
	// source prefix ("xmlns" for namespace declarations).
	Attr []xml.Attr
	// Children are the element's child nodes in document order.
	Children []*Node

	// Data is the content of a text or comment node.
	Data string
}

// AttrValue returns the value of the unprefixed attribute local.
func (n *Node) AttrValue(local string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// HasChildElements reports whether n contains at least one element child.
func (n *Node) HasChildElements() bool {
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			return true
		}
	}
	return false
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// ParseDocument parses data into a tree of Nodes and returns the root element.
// Any syntax error is reported as ErrInvalidDocument.
func ParseDocument(data []byte) (*Node, error) {
	return parseDocument(bytes.NewReader(data))
}

func parseDocument(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)

	var (
		root   *Node
		stack  []*Node
		scopes []map[string]string // namespace URL -> prefix, innermost last
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("%w: more than one root element", ErrInvalidDocument)
			}
			scope := pushScope(scopes, t.Attr)
			scopes = append(scopes, scope)

			n := &Node{
				Kind:   ElementNode,
				Name:   t.Name,
				Prefix: prefixFor(scope, t.Name.Space),
			}
			for _, a := range t.Attr {
				name := a.Name
				if name.Space != "" && name.Space != "xmlns" {
					name.Space = prefixFor(scope, name.Space)
				}
				n.Attr = append(n.Attr, xml.Attr{Name: name, Value: a.Value})
			}

			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			stack = stack[:len(stack)-1]
			scopes = scopes[:len(scopes)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, fmt.Errorf("%w: text outside the root element", ErrInvalidDocument)
				}
				continue
			}
			parent := stack[len(stack)-1]
			// CDATA sections arrive as separate CharData tokens; keep one
			// text node per run.
			if k := len(parent.Children); k > 0 && parent.Children[k-1].Kind == TextNode {
				parent.Children[k-1].Data += string(t)
				continue
			}
			parent.Children = append(parent.Children, &Node{Kind: TextNode, Data: string(t)})

		case xml.Comment:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Kind: CommentNode, Data: string(t)})
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrInvalidDocument)
	}
	return root, nil
}

// pushScope derives the namespace scope of an element from its parent scope
// and its own xmlns declarations.
func pushScope(scopes []map[string]string, attrs []xml.Attr) map[string]string {
	var parent map[string]string
	if len(scopes) > 0 {
		parent = scopes[len(scopes)-1]
	}
	var scope map[string]string
	for _, a := range attrs {
		prefix, ok := "", false
		switch {
		case a.Name.Space == "xmlns":
			prefix, ok = a.Name.Local, true
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			prefix, ok = "", true
		}
		if !ok {
			continue
		}
		if scope == nil {
			scope = make(map[string]string, len(parent)+1)
			for k, v := range parent {
				scope[k] = v
			}
		}
		scope[a.Value] = prefix
	}
	if scope == nil {
		return parent
	}
	return scope
}

// prefixFor maps a resolved namespace back to the prefix used in the source.
// Undeclared prefixes are left untouched by encoding/xml, so space itself is
// the prefix in that case.
func prefixFor(scope map[string]string, space string) string {
	if space == "" {
		return ""
	}
	if p, ok := scope[space]; ok {
		return p
	}
	return space
}
