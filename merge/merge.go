// Package merge implements catalog merging logic,
// equivalent to the msgmerge utility.
package merge

import (
	"strings"

	po "github.com/minios-linux/android2po/pofile"
)

// Merge updates an existing catalog with messages freshly exported from the
// resource files.
//   - Messages present in both keep the existing translation and translator
//     comments; the fresh translation is used only when the existing one is
//     empty.
//   - A message whose source text changed keeps its old translation, marked
//     fuzzy, with the old source text recorded as the previous msgid.
//   - New messages are added as exported.
//   - Messages that are no longer exported are marked obsolete.
//   - Extracted comments, locations, format flags and plural metadata come
//     from the fresh catalog.
func Merge(existing, fresh *po.Catalog) *po.Catalog {
	result := po.NewCatalog(fresh.Language)
	result.NumPlurals = fresh.NumPlurals
	result.PluralExpr = fresh.PluralExpr
	result.PluralKeywords = fresh.PluralKeywords

	// Keep the existing header, update POT-Creation-Date
	if existing.Header != nil {
		header := *existing.Header
		result.Header = &header
	}
	if date := fresh.HeaderField("POT-Creation-Date"); date != "" {
		result.SetHeaderField("POT-Creation-Date", date)
	}

	// Existing messages by context, to recover translations whose source
	// text changed.
	byContext := make(map[string]*po.Message)
	for _, m := range existing.Messages {
		if !m.Obsolete {
			byContext[m.Context] = m
		}
	}
	matched := make(map[*po.Message]bool)

	for _, fm := range fresh.Messages {
		if fm.Obsolete {
			continue
		}

		if old := existing.Get(fm.Context, fm.ID); old != nil && old.IsPlural() == fm.IsPlural() {
			merged := copyMessage(fm)
			merged.UserComments = old.UserComments
			merged.Flags = mergeFlags(old.Flags, fm.Flags)
			if hasTranslation(old) {
				merged.Str = old.Str
				merged.StrPlural = old.StrPlural
				merged.PreviousID = old.PreviousID
			}
			result.Add(merged)
			matched[old] = true
			continue
		}

		if old, ok := byContext[fm.Context]; ok && !matched[old] && old.IsPlural() == fm.IsPlural() && hasTranslation(old) {
			merged := copyMessage(fm)
			merged.UserComments = old.UserComments
			merged.Str = old.Str
			merged.StrPlural = old.StrPlural
			merged.PreviousID = old.ID
			merged.SetFuzzy(true)
			result.Add(merged)
			matched[old] = true
			continue
		}

		result.Add(copyMessage(fm))
	}

	// Mark unmatched messages as obsolete
	for _, m := range existing.Messages {
		if m.Obsolete || matched[m] {
			continue
		}
		obsolete := *m
		obsolete.Obsolete = true
		// Clear locations for obsolete messages
		obsolete.Locations = nil
		result.Add(&obsolete)
	}

	return result
}

func copyMessage(m *po.Message) *po.Message {
	c := *m
	c.Flags = append([]string(nil), m.Flags...)
	c.StrPlural = append([]string(nil), m.StrPlural...)
	return &c
}

func hasTranslation(m *po.Message) bool {
	if m.Str != "" {
		return true
	}
	for _, s := range m.StrPlural {
		if s != "" {
			return true
		}
	}
	return false
}

// mergeFlags combines flags from the existing and fresh messages. Format
// flags come from the fresh message only; "fuzzy" and other translator
// flags are kept, with "fuzzy" first.
func mergeFlags(existing, fresh []string) []string {
	var result []string
	seen := make(map[string]bool)
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			result = append(result, f)
		}
	}

	for _, f := range existing {
		if f == po.FlagFuzzy {
			add(f)
		}
	}
	for _, f := range fresh {
		add(f)
	}
	for _, f := range existing {
		if !strings.HasSuffix(f, "-format") {
			add(f)
		}
	}
	return result
}
