package merge

import (
	"reflect"
	"testing"

	"golang.org/x/text/language"

	po "github.com/minios-linux/android2po/pofile"
)

func TestMergeKeepNewObsoleteAndHeaderUpdate(t *testing.T) {
	existing := po.NewCatalog(language.Russian)
	existing.Header.Str = "Project-Id-Version: app 1\nPOT-Creation-Date: old\nLanguage: ru\n"
	existing.Messages = []*po.Message{
		{
			Context:      "keep",
			ID:           "Keep",
			Str:          "keep-translation",
			UserComments: []string{"checked by Anna"},
			Flags:        []string{"fuzzy", "c-format"},
			Locations:    []string{"old.xml"},
		},
		{Context: "gone", ID: "Gone", Str: "gone-translation", Locations: []string{"strings.xml"}},
		{Context: "already-obsolete", ID: "x", Str: "x", Obsolete: true},
	}

	fresh := po.NewCatalog(language.Russian)
	fresh.Header.Str = "POT-Creation-Date: new\n"
	fresh.NumPlurals = 4
	fresh.PluralExpr = "(n == 1 ? 0 : 1)"
	fresh.Messages = []*po.Message{
		{Context: "keep", ID: "Keep", AutoComments: []string{"auto"}, Locations: []string{"strings.xml"}},
		{Context: "new", ID: "New", IDPlural: "News", StrPlural: []string{"", "", "", ""}},
	}

	merged := Merge(existing, fresh)

	if got := merged.HeaderField("POT-Creation-Date"); got != "new" {
		t.Fatalf("POT-Creation-Date = %q, want new", got)
	}
	if got := merged.HeaderField("Language"); got != "ru" {
		t.Fatalf("Language header lost: got %q", got)
	}
	if existing.HeaderField("POT-Creation-Date") != "old" {
		t.Fatal("existing header must not be modified")
	}
	if merged.NumPlurals != 4 || merged.PluralExpr != "(n == 1 ? 0 : 1)" {
		t.Fatalf("plural metadata = %d %q, want the fresh catalog's", merged.NumPlurals, merged.PluralExpr)
	}

	if len(merged.Messages) != 3 {
		t.Fatalf("messages len = %d, want 3", len(merged.Messages))
	}

	keep := merged.Messages[0]
	if keep.Str != "keep-translation" {
		t.Fatalf("keep translation = %q, want keep-translation", keep.Str)
	}
	if !reflect.DeepEqual(keep.Flags, []string{"fuzzy"}) {
		t.Fatalf("keep flags = %v, want [fuzzy] (stale format flag dropped)", keep.Flags)
	}
	if !reflect.DeepEqual(keep.UserComments, []string{"checked by Anna"}) {
		t.Fatalf("keep translator comments = %v", keep.UserComments)
	}
	if !reflect.DeepEqual(keep.AutoComments, []string{"auto"}) || !reflect.DeepEqual(keep.Locations, []string{"strings.xml"}) {
		t.Fatalf("keep metadata = %v %v, want the fresh one", keep.AutoComments, keep.Locations)
	}

	if n := merged.Messages[1]; n.Context != "new" || len(n.StrPlural) != 4 {
		t.Fatalf("second message = %#v, want the new plural message", n)
	}

	obsolete := merged.Messages[2]
	if obsolete.Context != "gone" || !obsolete.Obsolete {
		t.Fatalf("third message should be obsolete copy, got context=%q obsolete=%v", obsolete.Context, obsolete.Obsolete)
	}
	if obsolete.Locations != nil {
		t.Fatalf("obsolete locations should be cleared, got %v", obsolete.Locations)
	}
	if existing.Messages[1].Obsolete {
		t.Fatal("existing message must not be modified")
	}
}

func TestMergeFreshTranslationFillsGap(t *testing.T) {
	existing := po.NewCatalog(language.German)
	existing.Messages = []*po.Message{{Context: "a", ID: "A"}}
	fresh := po.NewCatalog(language.German)
	fresh.Messages = []*po.Message{{Context: "a", ID: "A", Str: "Ä"}}

	merged := Merge(existing, fresh)
	if got := merged.Get("a", "A"); got == nil || got.Str != "Ä" {
		t.Fatalf("merged = %#v, want the fresh translation", got)
	}
}

func TestMergeChangedSourceBecomesFuzzy(t *testing.T) {
	existing := po.NewCatalog(language.German)
	existing.Messages = []*po.Message{{Context: "greeting", ID: "Hello", Str: "Hallo"}}
	fresh := po.NewCatalog(language.German)
	fresh.Messages = []*po.Message{{Context: "greeting", ID: "Hello there"}}

	merged := Merge(existing, fresh)
	if len(merged.Messages) != 1 {
		t.Fatalf("messages len = %d, want 1", len(merged.Messages))
	}
	m := merged.Get("greeting", "Hello there")
	if m == nil {
		t.Fatal("message missing")
	}
	if m.Str != "Hallo" || !m.IsFuzzy() || m.PreviousID != "Hello" {
		t.Fatalf("message = %#v, want fuzzy old translation with previous msgid", m)
	}
}

func TestMergeFlagsKeepsFuzzyFirst(t *testing.T) {
	flags := mergeFlags([]string{"c-format", "no-wrap", "fuzzy"}, []string{"java-format"})
	want := []string{"fuzzy", "java-format", "no-wrap"}
	if !reflect.DeepEqual(flags, want) {
		t.Fatalf("flags = %v, want %v", flags, want)
	}
}
