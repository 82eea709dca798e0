// Package android reads and writes Android strings.xml resource files.
//
// Supported resource types:
//   - <string>       simple key/value string
//   - <string-array> ordered list of strings
//   - <plurals>      quantity-keyed plural forms (zero/one/two/few/many/other)
//
// Resource text is decoded into the logical string a translator works with
// (quotes, backslash escapes and whitespace rules resolved, nested tags kept
// as markup) and encoded back when writing. Resources marked
// translatable="false" are not part of a ResourceTree.
package android

import (
	"iter"
	"sort"

	"golang.org/x/text/language"
)

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// Kind identifies the variant of a resource value.
type Kind int

const (
	// KindString is a plain <string> resource.
	KindString Kind = iota
	// KindStringArray is a <string-array> resource.
	KindStringArray
	// KindPlurals is a <plurals> resource.
	KindPlurals
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStringArray:
		return "string-array"
	case KindPlurals:
		return "plurals"
	}
	return "unknown"
}

// Value is one of *Translation, *StringArray or *Plurals.
type Value interface {
	Kind() Kind
}

// Translation is a single decoded string.
type Translation struct {
	// Text is the logical string.
	Text string
	// Comments are the XML comments that preceded the resource.
	Comments []string
	// Formatted records whether Text carries format markers such as %1$s.
	Formatted bool
}

// Kind implements Value.
func (*Translation) Kind() Kind { return KindString }

// StringArray holds the items of a <string-array>. A nil item is an empty
// slot, e.g. an index a catalog left untranslated.
type StringArray struct {
	Items []*Translation
}

// Kind implements Value.
func (*StringArray) Kind() Kind { return KindStringArray }

// Filled returns the number of non-empty slots.
func (a *StringArray) Filled() int {
	n := 0
	for _, t := range a.Items {
		if t != nil {
			n++
		}
	}
	return n
}

// Plurals maps quantity keywords to translations. A nil value is an empty
// slot for a quantity the language uses but no translation exists for.
type Plurals struct {
	Forms map[string]*Translation
}

// Kind implements Value.
func (*Plurals) Kind() Kind { return KindPlurals }

// Quantities returns the quantity keywords present in p, including empty
// slots, in canonical CLDR order.
func (p *Plurals) Quantities() []string {
	qs := make([]string, 0, len(p.Forms))
	for q := range p.Forms {
		qs = append(qs, q)
	}
	SortQuantities(qs)
	return qs
}

// Filled returns the number of non-empty slots.
func (p *Plurals) Filled() int {
	n := 0
	for _, t := range p.Forms {
		if t != nil {
			n++
		}
	}
	return n
}

// Quantities lists the CLDR plural keywords in canonical order.
var Quantities = []string{"zero", "one", "two", "few", "many", "other"}

// IsQuantity reports whether q is a CLDR plural keyword.
func IsQuantity(q string) bool { return quantityRank(q) >= 0 }

func quantityRank(q string) int {
	for i, k := range Quantities {
		if k == q {
			return i
		}
	}
	return -1
}

// SortQuantities sorts plural keywords into canonical CLDR order.
func SortQuantities(qs []string) {
	sort.SliceStable(qs, func(i, j int) bool { return quantityRank(qs[i]) < quantityRank(qs[j]) })
}

// ResourceTree is an ordered set of uniquely named resource values.
type ResourceTree struct {
	// Language is the language of the tree; language.Und for the default
	// (values/) resources.
	Language language.Tag

	names  []string
	values map[string]Value
}

// NewResourceTree returns an empty tree for lang.
func NewResourceTree(lang language.Tag) *ResourceTree {
	return &ResourceTree{Language: lang, values: make(map[string]Value)}
}

// Add appends a value. It returns false, leaving the tree unchanged, when
// name is already defined.
func (t *ResourceTree) Add(name string, v Value) bool {
	if _, exists := t.values[name]; exists {
		return false
	}
	t.names = append(t.names, name)
	t.values[name] = v
	return true
}

// Get returns the value stored under name.
func (t *ResourceTree) Get(name string) (Value, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Has reports whether name is defined.
func (t *ResourceTree) Has(name string) bool {
	_, ok := t.values[name]
	return ok
}

// Len returns the number of resources.
func (t *ResourceTree) Len() int { return len(t.names) }

// Names returns resource names in insertion order.
func (t *ResourceTree) Names() []string {
	return append([]string(nil), t.names...)
}

// All iterates over the resources in insertion order.
func (t *ResourceTree) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, name := range t.names {
			if !yield(name, t.values[name]) {
				return
			}
		}
	}
}
