package convert

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/minios-linux/android2po/android"
	"github.com/minios-linux/android2po/plurals"
	"github.com/minios-linux/android2po/pofile"
	"github.com/minios-linux/android2po/report"
)

// XMLToPO builds a catalog from the reference (default language) tree. When
// translated is non-nil its values fill in the translations and its language
// becomes the catalog language; otherwise a template is produced.
//
// The returned names are resources of translated that have no counterpart
// in ref.
func XMLToPO(ref, translated *android.ResourceTree, opts ExportOptions, sink report.Sink) (*pofile.Catalog, []string) {
	lang := language.Und
	if translated != nil {
		lang = translated.Language
	}
	c := pofile.NewCatalog(lang)
	if err := plurals.SetCatalogPluralMetadata(c, lang); err != nil {
		sink.Report(fmt.Sprintf("No plural rule for %s, using the default: %v", lang, err), report.Warning)
		_ = plurals.SetCatalogPluralMetadata(c, language.Und)
		c.Language = lang
	}

	x := &exporter{catalog: c, sink: sink}
	for name, value := range ref.All() {
		if ignored(opts.Ignore, name) {
			continue
		}
		var other android.Value
		if translated != nil {
			if v, ok := translated.Get(name); ok {
				if v.Kind() != value.Kind() {
					sink.Report(fmt.Sprintf("%q is a %s in the translation but a %s in the source, translation ignored",
						name, v.Kind(), value.Kind()), report.Warning)
				} else {
					other = v
				}
			}
		}

		switch v := value.(type) {
		case *android.Translation:
			t, _ := other.(*android.Translation)
			x.add(name, v, t)
		case *android.StringArray:
			t, _ := other.(*android.StringArray)
			x.addArray(name, v, t)
		case *android.Plurals:
			t, _ := other.(*android.Plurals)
			x.addPlurals(name, v, t)
		}
	}

	var unmatched []string
	if translated != nil {
		for _, name := range translated.Names() {
			if !ref.Has(name) && !ignored(opts.Ignore, name) {
				unmatched = append(unmatched, name)
			}
		}
	}
	return c, unmatched
}

type exporter struct {
	catalog *pofile.Catalog
	sink    report.Sink
}

func (x *exporter) add(ctx string, src, tr *android.Translation) {
	m := newMessage(ctx, src)
	m.ID = src.Text
	if tr != nil {
		m.Str = tr.Text
	}
	x.catalog.Add(m)
}

func (x *exporter) addArray(name string, src, tr *android.StringArray) {
	for i, item := range src.Items {
		if item == nil {
			continue
		}
		var t *android.Translation
		if tr != nil && i < len(tr.Items) {
			t = tr.Items[i]
		}
		x.add(arrayContext(name, i), item, t)
	}
}

func (x *exporter) addPlurals(name string, src, tr *android.Plurals) {
	singular, plural := representativePair(src)
	if singular == nil {
		return
	}

	m := newMessage(name, singular)
	m.ID = singular.Text
	m.IDPlural = plural.Text
	for _, t := range src.Forms {
		if t != nil && t.Formatted && !m.HasFlag(pofile.FlagFormat) {
			m.Flags = append(m.Flags, pofile.FlagFormat)
		}
	}

	keywords := x.catalog.PluralKeywords
	m.StrPlural = make([]string, len(keywords))
	if tr != nil {
		for _, q := range tr.Quantities() {
			t := tr.Forms[q]
			if t == nil {
				continue
			}
			idx := indexOf(keywords, q)
			if idx < 0 {
				x.sink.Report(fmt.Sprintf("%s: quantity %q is not used by %s, dropped", name, q, x.catalog.Language), report.Warning)
				continue
			}
			m.StrPlural[idx] = t.Text
		}
	}
	x.catalog.Add(m)
}

// representativePair picks the source strings for msgid and msgid_plural,
// preferring the "one" and "other" categories.
func representativePair(p *android.Plurals) (singular, plural *android.Translation) {
	one, other := p.Forms["one"], p.Forms["other"]
	if one != nil && other != nil {
		return one, other
	}
	var filled []*android.Translation
	for _, q := range p.Quantities() {
		if t := p.Forms[q]; t != nil {
			filled = append(filled, t)
		}
	}
	switch len(filled) {
	case 0:
		return nil, nil
	case 1:
		return filled[0], filled[0]
	}
	return filled[0], filled[len(filled)-1]
}

func newMessage(ctx string, src *android.Translation) *pofile.Message {
	m := &pofile.Message{
		Context:      ctx,
		AutoComments: src.Comments,
	}
	if src.Formatted {
		m.Flags = []string{pofile.FlagFormat}
	}
	return m
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
