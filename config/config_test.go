package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	f, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if f.Android != DefaultAndroid || f.Gettext != DefaultGettext || f.Domain != DefaultDomain {
		t.Fatalf("defaults not applied: %+v", f)
	}
	if f.Template != DefaultTemplate || f.Layout != DefaultLayout {
		t.Fatalf("file name defaults not applied: %+v", f)
	}
}

func TestLoadFileValuesAndValidation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
android: app/src/main/res
gettext: po
domain: app
layout: "{locale}/{domain}.po"
languages: [de, pt_BR]
ignore:
  - app_name
  - /^debug_/
ignore_fuzzy: true
require_min_complete: 0.5
with_untranslated: true
`)

	f, err := Load(root)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if f.Android != "app/src/main/res" || f.Gettext != "po" || f.Domain != "app" {
		t.Fatalf("unexpected paths: %+v", f)
	}
	if f.Template != DefaultTemplate {
		t.Fatalf("Template = %q, want default", f.Template)
	}
	if !f.IgnoreFuzzy || !f.WithUntranslated || f.RequireMinComplete != 0.5 {
		t.Fatalf("unexpected flags: %+v", f)
	}

	bad := []struct {
		name    string
		content string
		errPart string
	}{
		{"layout without locale", "layout: strings.po\n", "{locale}"},
		{"template with locale", "template: \"{locale}.pot\"\n", "{locale}"},
		{"ratio out of range", "require_min_complete: 2\n", "require_min_complete"},
		{"bad language", "languages: [\"@@\"]\n", "invalid language"},
		{"bad regex", "ignore: [\"/(/\"]\n", "invalid ignore pattern"},
		{"bad yaml", "languages: [\n", "parsing"},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, FileName), tc.content)
			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), tc.errPart) {
				t.Fatalf("Load error = %v, want containing %q", err, tc.errPart)
			}
		})
	}
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher([]string{"app_name", "/^debug_/", "/"})
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]bool{
		"app_name":     true,
		"debug_label":  true,
		"my_debug_x":   false,
		"app_name_alt": false,
		"/":            true,
	}
	for name, want := range cases {
		if got := m.Match(name); got != want {
			t.Errorf("Match(%q) = %v, want %v", name, got, want)
		}
	}

	var nilMatcher *Matcher
	if nilMatcher.Match("x") {
		t.Error("nil matcher should match nothing")
	}
}

func TestProjectPathsAndLanguages(t *testing.T) {
	root := t.TempDir()
	f := &File{Layout: "{locale}/{domain}.po"}
	f.applyDefaults()

	p, err := f.Resolve(root)
	if err != nil {
		t.Fatal(err)
	}
	if p.ResDir != filepath.Join(root, "res") || p.LocaleDir != filepath.Join(root, "locale") {
		t.Fatalf("unexpected dirs: %s %s", p.ResDir, p.LocaleDir)
	}
	if got, want := p.TemplatePath(), filepath.Join(root, "locale", "strings.pot"); got != want {
		t.Fatalf("TemplatePath = %q, want %q", got, want)
	}
	if got, want := p.CatalogPath(language.MustParse("pt-BR")), filepath.Join(root, "locale", "pt_BR", "strings.po"); got != want {
		t.Fatalf("CatalogPath = %q, want %q", got, want)
	}

	writeFile(t, filepath.Join(root, "locale", "de", "strings.po"), "")
	writeFile(t, filepath.Join(root, "locale", "pt_BR", "strings.po"), "")
	writeFile(t, filepath.Join(root, "locale", "fr", "other.po"), "")
	writeFile(t, filepath.Join(root, "res", "values", "strings.xml"), "<resources/>")
	writeFile(t, filepath.Join(root, "res", "values-ru", "strings.xml"), "<resources/>")
	writeFile(t, filepath.Join(root, "res", "values-de", "strings.xml"), "<resources/>")

	if got := tagsString(p.CatalogLanguages()); got != "de pt-BR" {
		t.Fatalf("CatalogLanguages = %s, want de pt-BR", got)
	}
	if got := tagsString(p.Languages()); got != "de pt-BR ru" {
		t.Fatalf("Languages = %s, want de pt-BR ru", got)
	}

	f.Languages = []string{"uk"}
	if got := tagsString(p.Languages()); got != "uk" {
		t.Fatalf("configured Languages = %s, want uk", got)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	f := &File{Domain: "app", Ignore: []string{"/^x/"}}
	f.applyDefaults()
	data, err := f.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), string(data))
	got, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Domain != "app" || len(got.Ignore) != 1 || got.Ignore[0] != "/^x/" {
		t.Fatalf("round trip = %+v", got)
	}
}

func tagsString(tags []language.Tag) string {
	var s []string
	for _, t := range tags {
		s = append(s, t.String())
	}
	return strings.Join(s, " ")
}
