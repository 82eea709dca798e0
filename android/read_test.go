package android

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/minios-linux/android2po/report"
)

func read(t *testing.T, xml string) (*ResourceTree, *report.Collector) {
	t.Helper()
	var c report.Collector
	tree, err := Read([]byte(xml), language.Und, &c)
	require.NoError(t, err)
	return tree, &c
}

func TestRead_BasicString(t *testing.T) {
	tree, c := read(t, `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <string name="app_name">My App</string>
    <string name="hello">Hello World</string>
</resources>`)

	assert.Empty(t, c.Diagnostics)
	assert.Equal(t, []string{"app_name", "hello"}, tree.Names())

	v, ok := tree.Get("hello")
	require.True(t, ok)
	tr, ok := v.(*Translation)
	require.True(t, ok)
	assert.Equal(t, "Hello World", tr.Text)
	assert.False(t, tr.Formatted)
}

func TestRead_TranslatableFalseAndMissingName(t *testing.T) {
	tree, _ := read(t, `<resources>
    <string name="app_name" translatable="false">MyApp</string>
    <string>no name</string>
    <string-array name="config_values" translatable="FALSE">
        <item>value1</item>
    </string-array>
    <string name="greeting">Hello</string>
</resources>`)

	assert.Equal(t, []string{"greeting"}, tree.Names())
}

func TestRead_Comments(t *testing.T) {
	tree, _ := read(t, `<resources>
    <!-- Section header -->
    <!-- Shown on the start screen -->
    <string name="foo">Foo</string>
    <!-- dropped together with the next entry -->
    <string name="skipped" translatable="false">x</string>
    <string name="bar">Bar</string>
</resources>`)

	foo, _ := tree.Get("foo")
	assert.Equal(t, []string{"Section header", "Shown on the start screen"}, foo.(*Translation).Comments)
	bar, _ := tree.Get("bar")
	assert.Empty(t, bar.(*Translation).Comments)
}

func TestRead_StringArray(t *testing.T) {
	tree, c := read(t, `<resources>
    <!-- colours -->
    <string-array name="planets">
        <item>Mercury</item>
        <item>@string/venus</item>
        <item>Earth</item>
    </string-array>
</resources>`)

	v, ok := tree.Get("planets")
	require.True(t, ok)
	a := v.(*StringArray)
	require.Len(t, a.Items, 3)
	assert.Equal(t, "Mercury", a.Items[0].Text)
	assert.Nil(t, a.Items[1], "failed item leaves an empty slot")
	assert.Equal(t, "Earth", a.Items[2].Text)
	assert.Equal(t, []string{"colours"}, a.Items[2].Comments)
	assert.Equal(t, 1, c.Count(report.Warning))
}

func TestRead_Plurals(t *testing.T) {
	tree, c := read(t, `<resources>
    <plurals name="songs_found">
        <item quantity="other">%d songs found.</item>
        <item quantity="one">%d song found.</item>
        <item quantity="several">bogus</item>
        <item>missing quantity</item>
    </plurals>
</resources>`)

	v, ok := tree.Get("songs_found")
	require.True(t, ok)
	p := v.(*Plurals)
	assert.Equal(t, []string{"one", "other"}, p.Quantities())
	assert.Equal(t, "%d song found.", p.Forms["one"].Text)
	assert.True(t, p.Forms["other"].Formatted)
	assert.Equal(t, 2, c.Count(report.Warning))
}

func TestRead_DuplicateName(t *testing.T) {
	tree, c := read(t, `<resources>
    <string name="dup">first</string>
    <string name="dup">second</string>
</resources>`)

	v, _ := tree.Get("dup")
	assert.Equal(t, "first", v.(*Translation).Text)
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, 1, c.Count(report.Error))
	assert.Len(t, c.Diagnostics, 1)
}

func TestRead_PerEntryErrors(t *testing.T) {
	tree, c := read(t, `<resources>
    <string name="ref">@string/other</string>
    <string name="empty">   </string>
    <string name="bad_unicode">\uzzzz</string>
    <string name="ok">fine</string>
</resources>`)

	assert.Equal(t, []string{"ok"}, tree.Names())
	assert.Equal(t, 2, c.Count(report.Warning))
	assert.Equal(t, 1, c.Count(report.Error))
}

func TestRead_FormattedFalse(t *testing.T) {
	tree, _ := read(t, `<resources>
    <string name="pct" formatted="false">50% of %s</string>
</resources>`)

	v, _ := tree.Get("pct")
	assert.False(t, v.(*Translation).Formatted)
}

func TestRead_InvalidDocument(t *testing.T) {
	for _, doc := range []string{
		`<resources><string name="a">x</resources>`,
		`<resources><string name="a">x</string>`,
		``,
		`<a/><b/>`,
	} {
		tree, err := Read([]byte(doc), language.Und, report.Discard)
		assert.ErrorIs(t, err, ErrInvalidDocument, "doc %q", doc)
		assert.Nil(t, tree)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strings.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<resources><string name="a">A</string></resources>`), 0644))

	tree, err := ReadFile(path, language.German, report.Discard)
	require.NoError(t, err)
	assert.Equal(t, language.German, tree.Language)
	assert.True(t, tree.Has("a"))

	_, err = ReadFile(filepath.Join(dir, "missing.xml"), language.Und, report.Discard)
	assert.Error(t, err)
}
