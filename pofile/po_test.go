package pofile

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestParseWriteRoundTripAndHeaderFields(t *testing.T) {
	input := `msgid ""
msgstr ""
"Project-Id-Version: android2po 1.0\n"
"Language: ru\n"
"Plural-Forms: nplurals=2; plural=(n != 1);\n"

#. extracted comment
#: strings.xml
msgctxt "hello"
msgid "hello"
msgstr "privet"

#, fuzzy, c-format
#| msgid "old count"
msgctxt "count"
msgid "count"
msgid_plural "counts"
msgstr[0] "odin"
msgstr[1] "mnogo"

#~ msgctxt "gone"
#~ msgid "gone"
#~ msgstr "ushel"
`

	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if got := c.HeaderField("language"); got != "ru" {
		t.Fatalf("HeaderField(language) = %q, want ru", got)
	}
	if c.Language != language.Russian {
		t.Fatalf("Language = %s, want ru", c.Language)
	}
	if c.NumPlurals != 2 || c.PluralExpr != "(n != 1)" {
		t.Fatalf("plural metadata = %d %q", c.NumPlurals, c.PluralExpr)
	}

	if len(c.Messages) != 3 {
		t.Fatalf("messages len = %d, want 3", len(c.Messages))
	}
	hello := c.Get("hello", "hello")
	if hello == nil || hello.Str != "privet" || !reflect.DeepEqual(hello.AutoComments, []string{"extracted comment"}) {
		t.Fatalf("hello message mismatch: %#v", hello)
	}
	plural := c.Get("count", "count")
	if plural == nil {
		t.Fatal("count message not found")
	}
	if plural.PreviousID != "old count" {
		t.Fatalf("PreviousID = %q, want old count", plural.PreviousID)
	}
	if !plural.IsFuzzy() || !plural.HasFlag(FlagFormat) {
		t.Fatalf("flags = %v", plural.Flags)
	}
	if c.Get("gone", "gone") != nil {
		t.Fatal("obsolete message should not be indexed")
	}
	if !c.Messages[2].Obsolete || c.Messages[2].Str != "ushel" {
		t.Fatalf("obsolete message mismatch: %#v", c.Messages[2])
	}

	c.Language = language.German
	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	round, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Parse roundtrip error: %v\n%s", err, buf.String())
	}
	if round.HeaderField("Language") != "de" {
		t.Fatalf("roundtrip Language = %q, want de", round.HeaderField("Language"))
	}
	roundPlural := round.Get("count", "count")
	if roundPlural == nil {
		t.Fatal("roundtrip plural message missing")
	}
	if !reflect.DeepEqual(roundPlural.StrPlural, []string{"odin", "mnogo"}) {
		t.Fatalf("roundtrip plural forms = %v", roundPlural.StrPlural)
	}
	if len(round.Messages) != 3 || !round.Messages[2].Obsolete {
		t.Fatalf("roundtrip lost the obsolete message: %d messages", len(round.Messages))
	}
}

func TestWriteMultilineAndPluralPadding(t *testing.T) {
	c := NewCatalog(language.Romanian)
	c.Header = MakeHeader("app")
	c.NumPlurals = 3
	c.PluralExpr = "(n==1 ? 0 : 1)"
	c.Add(&Message{Context: "ml", ID: "line one\nline two", Str: "a\tb"})
	c.Add(&Message{Context: "pl", ID: "song", IDPlural: "songs", StrPlural: []string{"cântec"}})

	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"msgid \"\"\n\"line one\\n\"\n\"line two\"\n",
		`msgstr "a\tb"`,
		"msgstr[2] \"\"\n",
		"Language: ro\\n",
		"Plural-Forms: nplurals=3; plural=(n==1 ? 0 : 1);\\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	round, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if got := round.Get("ml", "line one\nline two"); got == nil || got.Str != "a\tb" {
		t.Fatalf("multiline message mismatch: %#v", got)
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	c := NewCatalog(language.Und)
	if !c.Add(&Message{Context: "a", ID: "x"}) {
		t.Fatal("first Add should succeed")
	}
	if c.Add(&Message{Context: "a", ID: "x"}) {
		t.Fatal("duplicate Add should fail")
	}
	if !c.Add(&Message{Context: "b", ID: "x"}) {
		t.Fatal("different context should be accepted")
	}
	if !c.Add(&Message{Context: "a", ID: "x", Obsolete: true}) {
		t.Fatal("obsolete duplicates are kept")
	}
	if len(c.Messages) != 3 {
		t.Fatalf("messages len = %d, want 3", len(c.Messages))
	}
}

func TestStatsFuzzyAndUntranslated(t *testing.T) {
	c := NewCatalog(language.Und)
	c.Messages = []*Message{
		{ID: "t1", Str: "translated"},
		{ID: "f1", Str: "draft", Flags: []string{"fuzzy"}},
		{ID: "u1", Str: ""},
		{ID: "p1", IDPlural: "p1s", StrPlural: []string{"one", "many"}},
		{ID: "p2", IDPlural: "p2s", StrPlural: []string{"only one", ""}},
		{ID: "old", Str: "x", Obsolete: true},
	}

	total, translated, fuzzy, untranslated := c.Stats()
	if total != 5 || translated != 2 || fuzzy != 1 || untranslated != 2 {
		t.Fatalf("Stats = total=%d translated=%d fuzzy=%d untranslated=%d", total, translated, fuzzy, untranslated)
	}
	if got := c.Completeness(); got != 0.4 {
		t.Fatalf("Completeness = %v, want 0.4", got)
	}
	if got := NewCatalog(language.Und).Completeness(); got != 1 {
		t.Fatalf("empty Completeness = %v, want 1", got)
	}

	m := c.Messages[1]
	m.SetFuzzy(false)
	if m.IsFuzzy() || !m.IsTranslated() {
		t.Fatal("SetFuzzy(false) should clear the flag")
	}
	m.SetFuzzy(true)
	m.SetFuzzy(true)
	if len(m.Flags) != 1 {
		t.Fatalf("flags = %v, want a single fuzzy flag", m.Flags)
	}
}

func TestParsePluralForms(t *testing.T) {
	n, expr, err := ParsePluralForms("nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || !strings.HasPrefix(expr, "(n%10==1") {
		t.Fatalf("got %d %q", n, expr)
	}

	for _, bad := range []string{"", "nplurals=2;", "nplurals=x; plural=0;"} {
		if _, _, err := ParsePluralForms(bad); err == nil {
			t.Errorf("ParsePluralForms(%q) should fail", bad)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"msgid \"a\"\nbogus line\n",
		"msgid \"a\"\nmsgstr[x] \"b\"\n",
		"\"orphan continuation\"\n",
		"msgid \"\"\nmsgstr \"Language: @@@\\n\"\n",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("Parse(%q) should fail", input)
		}
	}
}
