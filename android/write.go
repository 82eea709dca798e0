package android

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/android2po/report"
)

// WriteFile writes tree as an Android strings.xml file, creating parent
// directories as needed.
func WriteFile(path string, tree *ResourceTree, sink report.Sink) error {
	data := Write(tree, sink)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Write produces the XML for tree. Resources are written in tree order,
// plural items in canonical CLDR order. Namespaces used by nested tags are
// declared once on the <resources> element.
func Write(tree *ResourceTree, sink report.Sink) []byte {
	w := &writer{sink: sink, namespaces: make(map[string]bool)}
	for name, v := range tree.All() {
		switch v := v.(type) {
		case *Translation:
			w.comments(v.Comments)
			fmt.Fprintf(&w.body, "    <string name=\"%s\"%s>%s</string>\n",
				escapeAttr(name), formattedAttr(v), w.encode(v, name))

		case *StringArray:
			first := firstTranslation(v.Items)
			if first == nil {
				continue
			}
			w.comments(first.Comments)
			fmt.Fprintf(&w.body, "    <string-array name=\"%s\">\n", escapeAttr(name))
			for i, item := range v.Items {
				if item == nil {
					w.body.WriteString("        <item/>\n")
					continue
				}
				fmt.Fprintf(&w.body, "        <item%s>%s</item>\n",
					formattedAttr(item), w.encode(item, fmt.Sprintf("%s:%d", name, i)))
			}
			w.body.WriteString("    </string-array>\n")

		case *Plurals:
			if v.Filled() == 0 {
				continue
			}
			qs := v.Quantities()
			for _, q := range qs {
				if t := v.Forms[q]; t != nil {
					w.comments(t.Comments)
					break
				}
			}
			fmt.Fprintf(&w.body, "    <plurals name=\"%s\">\n", escapeAttr(name))
			for _, q := range qs {
				t := v.Forms[q]
				if t == nil {
					continue
				}
				fmt.Fprintf(&w.body, "        <item quantity=\"%s\"%s>%s</item>\n",
					q, formattedAttr(t), w.encode(t, name+"#"+q))
			}
			w.body.WriteString("    </plurals>\n")
		}
	}

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<resources")
	urls := make([]string, 0, len(w.namespaces))
	for u := range w.namespaces {
		urls = append(urls, u)
	}
	sort.Slice(urls, func(i, j int) bool { return KnownNamespaces[urls[i]] < KnownNamespaces[urls[j]] })
	for _, u := range urls {
		fmt.Fprintf(&b, " xmlns:%s=\"%s\"", KnownNamespaces[u], u)
	}
	b.WriteString(">\n")
	b.WriteString(w.body.String())
	b.WriteString("</resources>\n")
	return []byte(b.String())
}

type writer struct {
	body       strings.Builder
	sink       report.Sink
	namespaces map[string]bool
}

func (w *writer) encode(t *Translation, name string) string {
	s, ns := Encode(t.Text, name, w.sink)
	for _, u := range ns {
		w.namespaces[u] = true
	}
	return s
}

func (w *writer) comments(comments []string) {
	for _, c := range comments {
		// "--" is not allowed inside an XML comment.
		for strings.Contains(c, "--") {
			c = strings.ReplaceAll(c, "--", "- -")
		}
		fmt.Fprintf(&w.body, "    <!-- %s -->\n", c)
	}
}

// formattedAttr keeps Android from treating a literal percent sign as a
// format marker when the source said so.
func formattedAttr(t *Translation) string {
	if !t.Formatted && IsFormatted(t.Text) {
		return ` formatted="false"`
	}
	return ""
}

func firstTranslation(items []*Translation) *Translation {
	for _, t := range items {
		if t != nil {
			return t
		}
	}
	return nil
}
