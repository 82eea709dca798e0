package convert

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/minios-linux/android2po/android"
	"github.com/minios-linux/android2po/plurals"
	"github.com/minios-linux/android2po/pofile"
	"github.com/minios-linux/android2po/report"
)

// POToXML rebuilds a resource tree from a catalog. Messages are keyed by
// their context; problems with individual messages are reported to sink and
// the message is skipped.
func POToXML(c *pofile.Catalog, opts ImportOptions, sink report.Sink) *android.ResourceTree {
	im := &importer{
		catalog:  c,
		opts:     opts,
		sink:     sink,
		tree:     android.NewResourceTree(c.Language),
		arrays:   make(map[string]*android.StringArray),
		slots:    make(map[string]map[int]bool),
		rejected: make(map[string]bool),
	}
	for _, m := range c.Messages {
		if m.Obsolete {
			continue
		}
		name, index, err := parseContext(m.Context)
		if err != nil {
			sink.Report(fmt.Sprintf("Message %q skipped: %v", m.ID, err), report.Error)
			continue
		}
		if ignored(opts.Ignore, name) {
			continue
		}
		switch {
		case m.IsPlural():
			if index >= 0 {
				sink.Report(fmt.Sprintf("Plural message %q cannot be an array item, skipped", m.Context), report.Error)
				continue
			}
			im.plural(name, m)
		case index >= 0:
			im.arrayItem(name, index, m)
		default:
			im.singular(name, m)
		}
	}
	return im.tree
}

type importer struct {
	catalog *pofile.Catalog
	opts    ImportOptions
	sink    report.Sink
	tree    *android.ResourceTree

	arrays map[string]*android.StringArray
	slots  map[string]map[int]bool
	// rejected holds array names already taken by another resource.
	rejected map[string]bool

	keywords []string
	checked  bool
}

// text returns the translation of a singular message, or "" when it should
// be treated as untranslated.
func (im *importer) text(m *pofile.Message) string {
	text := m.Str
	if im.opts.IgnoreFuzzy && m.IsFuzzy() {
		text = ""
	}
	if text == "" && im.opts.WithUntranslated {
		return m.ID
	}
	return text
}

func (im *importer) translation(m *pofile.Message, text string) *android.Translation {
	return &android.Translation{
		Text:      text,
		Comments:  m.AutoComments,
		Formatted: m.HasFlag(pofile.FlagFormat),
	}
}

func (im *importer) add(name string, v android.Value) bool {
	if !im.tree.Add(name, v) {
		im.sink.Report(fmt.Sprintf("Duplicate resource %q in catalog, the later one is ignored", name), report.Error)
		return false
	}
	return true
}

func (im *importer) singular(name string, m *pofile.Message) {
	text := im.text(m)
	if text == "" {
		return
	}
	im.add(name, im.translation(m, text))
}

func (im *importer) arrayItem(name string, index int, m *pofile.Message) {
	seen := im.slots[name]
	if seen == nil {
		seen = make(map[int]bool)
		im.slots[name] = seen
	}
	if seen[index] {
		im.sink.Report(fmt.Sprintf("Duplicate array index %q, the later one is ignored", m.Context), report.Error)
		return
	}
	seen[index] = true

	text := im.text(m)
	if text == "" {
		return
	}
	if im.rejected[name] {
		return
	}
	arr := im.arrays[name]
	if arr == nil {
		arr = &android.StringArray{}
		if !im.add(name, arr) {
			im.rejected[name] = true
			return
		}
		im.arrays[name] = arr
	}
	for len(arr.Items) <= index {
		arr.Items = append(arr.Items, nil)
	}
	arr.Items[index] = im.translation(m, text)
}

func (im *importer) plural(name string, m *pofile.Message) {
	keywords := im.pluralKeywords()

	forms := m.StrPlural
	if im.opts.IgnoreFuzzy && m.IsFuzzy() {
		forms = nil
	}
	p := &android.Plurals{Forms: make(map[string]*android.Translation, len(keywords))}
	for i, k := range keywords {
		if i < len(forms) && forms[i] != "" {
			p.Forms[k] = im.translation(m, forms[i])
		} else {
			p.Forms[k] = nil
		}
	}
	if p.Filled() == 0 {
		return
	}
	im.add(name, p)
}

// pluralKeywords returns the categories plural forms map onto, warning once
// if the catalog does not match its language.
func (im *importer) pluralKeywords() []string {
	if im.checked {
		return im.keywords
	}
	im.checked = true

	c := im.catalog
	if c.Language == language.Und {
		im.keywords = c.PluralKeywords
		if len(im.keywords) == 0 {
			im.keywords = plurals.DefaultKeywords
		}
		return im.keywords
	}

	im.keywords = plurals.CategoriesFor(c.Language)
	if !plurals.Validate(c, c.Language) {
		im.sink.Report(fmt.Sprintf("Catalog declares %d plural forms but %s uses %d (%v); forms are mapped in order",
			c.NumPlurals, c.Language, len(im.keywords), im.keywords), report.Warning)
	}
	return im.keywords
}
