package android

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// ---------------------------------------------------------------------------
// Language detection from res/ directory
// ---------------------------------------------------------------------------

// localeQualifier matches the language part of a values-* directory:
// "de", "pt-rBR", or the BCP 47 form "b+sr+Latn".
var localeQualifier = regexp.MustCompile(`^(?:([a-z]{2,3})(?:-r([A-Z]{2}|[0-9]{3}))?|b\+([a-zA-Z0-9+]+))$`)

// DetectLanguages scans an Android res/ directory for values-XX/ directories
// that contain strings.xml and returns their languages, sorted.
func DetectLanguages(resDir string) []language.Tag {
	entries, err := os.ReadDir(resDir)
	if err != nil {
		return nil
	}

	var langs []language.Tag
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		lang, ok := ParseLocaleDir(entry.Name())
		if !ok {
			continue
		}
		if _, err := os.Stat(filepath.Join(resDir, entry.Name(), "strings.xml")); err == nil {
			langs = append(langs, lang)
		}
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].String() < langs[j].String() })
	return langs
}

// ParseLocaleDir extracts the language from a values directory name, e.g.
// "values-pt-rBR" -> pt-BR. Directories with other qualifiers (values-night,
// values-v21) are rejected.
func ParseLocaleDir(dir string) (language.Tag, bool) {
	qualifier, ok := strings.CutPrefix(dir, "values-")
	if !ok {
		return language.Und, false
	}
	m := localeQualifier.FindStringSubmatch(qualifier)
	if m == nil {
		return language.Und, false
	}

	code := m[1]
	switch {
	case m[3] != "":
		code = strings.ReplaceAll(m[3], "+", "-")
	case m[2] != "":
		code += "-" + m[2]
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// LocaleDirName converts a language to an Android values directory name
// (e.g., pt-BR -> "values-pt-rBR", ru -> "values-ru",
// sr-Latn -> "values-b+sr+Latn").
func LocaleDirName(lang language.Tag) string {
	base, _ := lang.Base()
	script, scriptConf := lang.Script()
	region, regionConf := lang.Region()

	hasScript := scriptConf == language.Exact
	hasRegion := regionConf == language.Exact

	if hasScript {
		parts := []string{base.String(), script.String()}
		if hasRegion {
			parts = append(parts, region.String())
		}
		return "values-b+" + strings.Join(parts, "+")
	}
	if hasRegion {
		return "values-" + base.String() + "-r" + region.String()
	}
	return "values-" + base.String()
}

// StringsXMLPath returns the path to strings.xml for a given language.
func StringsXMLPath(resDir string, lang language.Tag) string {
	return filepath.Join(resDir, LocaleDirName(lang), "strings.xml")
}

// SourceStringsXMLPath returns the path to the default (source) strings.xml.
func SourceStringsXMLPath(resDir string) string {
	return filepath.Join(resDir, "values", "strings.xml")
}
