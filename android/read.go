package android

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/minios-linux/android2po/report"
)

// ReadFile reads and parses an Android strings.xml file.
func ReadFile(path string, lang language.Tag, sink report.Sink) (*ResourceTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	tree, err := Read(data, lang, sink)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tree, nil
}

// Read parses Android strings.xml data. Only a document that cannot be parsed
// at all is an error (wrapping ErrInvalidDocument); problems with individual
// resources are reported to sink and the resource is skipped.
func Read(data []byte, lang language.Tag, sink report.Sink) (*ResourceTree, error) {
	root, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return ReadDocument(root, lang, sink), nil
}

// ReadDocument builds a ResourceTree from the children of a parsed root
// element. Comments directly preceding a resource are attached to it.
func ReadDocument(root *Node, lang language.Tag, sink report.Sink) *ResourceTree {
	tree := NewResourceTree(lang)

	var comments []string
	for _, n := range root.Children {
		switch n.Kind {
		case CommentNode:
			if c := strings.TrimSpace(n.Data); c != "" {
				comments = append(comments, c)
			}
			continue
		case TextNode:
			continue
		}

		pending := comments
		comments = nil

		name, ok := n.AttrValue("name")
		if !ok || name == "" {
			continue
		}
		if v, ok := n.AttrValue("translatable"); ok && strings.EqualFold(v, "false") {
			continue
		}

		var value Value
		switch n.Name.Local {
		case "string":
			if t := readString(n, name, pending, sink); t != nil {
				value = t
			}
		case "string-array":
			if a := readStringArray(n, name, pending, sink); a != nil {
				value = a
			}
		case "plurals":
			if p := readPlurals(n, name, pending, sink); p != nil {
				value = p
			}
		}
		if value == nil {
			continue
		}

		if !tree.Add(name, value) {
			sink.Report(fmt.Sprintf("Duplicate resource definition %q, the later one is ignored", name), report.Error)
		}
	}
	return tree
}

func readString(n *Node, name string, comments []string, sink report.Sink) *Translation {
	text, formatted, err := Decode(n, name, sink)
	if err != nil {
		reportDecodeError(err, name, sink)
		return nil
	}
	return &Translation{
		Text:      text,
		Comments:  comments,
		Formatted: formatted && !formattedDisabled(n),
	}
}

func readStringArray(n *Node, name string, comments []string, sink report.Sink) *StringArray {
	a := &StringArray{}
	for _, item := range n.Elements() {
		if item.Name.Local != "item" {
			continue
		}
		slot := fmt.Sprintf("%s:%d", name, len(a.Items))
		text, formatted, err := Decode(item, slot, sink)
		if err != nil {
			// The slot stays empty so later indices keep their position.
			reportDecodeError(err, slot, sink)
			a.Items = append(a.Items, nil)
			continue
		}
		a.Items = append(a.Items, &Translation{
			Text:      text,
			Comments:  comments,
			Formatted: formatted && !formattedDisabled(n) && !formattedDisabled(item),
		})
	}
	if a.Filled() == 0 {
		return nil
	}
	return a
}

func readPlurals(n *Node, name string, comments []string, sink report.Sink) *Plurals {
	p := &Plurals{Forms: make(map[string]*Translation)}
	for _, item := range n.Elements() {
		if item.Name.Local != "item" {
			continue
		}
		q, _ := item.AttrValue("quantity")
		if !IsQuantity(q) {
			sink.Report(fmt.Sprintf("Plurals %q: unknown quantity %q ignored", name, q), report.Warning)
			continue
		}
		if _, dup := p.Forms[q]; dup {
			sink.Report(fmt.Sprintf("Plurals %q: duplicate quantity %q, the later one is ignored", name, q), report.Warning)
			continue
		}
		text, formatted, err := Decode(item, name+"#"+q, sink)
		if err != nil {
			reportDecodeError(err, name+"#"+q, sink)
			continue
		}
		p.Forms[q] = &Translation{
			Text:      text,
			Comments:  comments,
			Formatted: formatted && !formattedDisabled(n) && !formattedDisabled(item),
		}
	}
	if len(p.Forms) == 0 {
		return nil
	}
	return p
}

func formattedDisabled(n *Node) bool {
	v, ok := n.AttrValue("formatted")
	return ok && strings.EqualFold(v, "false")
}

func reportDecodeError(err error, name string, sink report.Sink) {
	var unsupported *UnsupportedResourceError
	switch {
	case errors.Is(err, ErrResourceReference):
		sink.Report(fmt.Sprintf("Resource %q is a reference to another resource, skipped", name), report.Warning)
	case errors.Is(err, ErrEmptyString):
		sink.Report(fmt.Sprintf("Resource %q is empty, skipped", name), report.Warning)
	case errors.As(err, &unsupported):
		sink.Report(unsupported.Error(), report.Error)
	default:
		sink.Report(fmt.Sprintf("Resource %q: %v", name, err), report.Error)
	}
}
