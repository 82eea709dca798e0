// Package config handles the .android2po.yaml project configuration file
// and resolves it into the paths and languages of a project.
//
// All fields are optional. Without a configuration file the defaults
// describe a project with res/ and locale/ next to each other.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/android2po/android"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .android2po.yaml structure.
type File struct {
	// Android is the Android resource directory (default "res").
	Android string `yaml:"android,omitempty"`
	// Gettext is the directory holding the catalogs (default "locale").
	Gettext string `yaml:"gettext,omitempty"`
	// Domain is the catalog domain (default "strings").
	Domain string `yaml:"domain,omitempty"`
	// Template is the template file name; {domain} is substituted
	// (default "{domain}.pot").
	Template string `yaml:"template,omitempty"`
	// Layout is the catalog file name; {domain} and {locale} are
	// substituted (default "{domain}-{locale}.po").
	Layout string `yaml:"layout,omitempty"`
	// Languages restricts processing to these languages. Empty means every
	// language found on disk.
	Languages []string `yaml:"languages,omitempty"`
	// Ignore lists resource names to leave out. Entries written as /regex/
	// are regular expressions.
	Ignore []string `yaml:"ignore,omitempty"`
	// IgnoreFuzzy treats fuzzy translations as untranslated on import.
	IgnoreFuzzy bool `yaml:"ignore_fuzzy,omitempty"`
	// RequireMinComplete skips importing catalogs translated below this
	// ratio (0..1).
	RequireMinComplete float64 `yaml:"require_min_complete,omitempty"`
	// WithUntranslated writes untranslated strings with their source text.
	WithUntranslated bool `yaml:"with_untranslated,omitempty"`
}

// FileName is the default config file name.
const FileName = ".android2po.yaml"

// Defaults for File fields.
const (
	DefaultAndroid  = "res"
	DefaultGettext  = "locale"
	DefaultDomain   = "strings"
	DefaultTemplate = "{domain}.pot"
	DefaultLayout   = "{domain}-{locale}.po"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads and validates the config file in rootDir. A missing file yields
// the defaults.
func Load(rootDir string) (*File, error) {
	return LoadFile(filepath.Join(rootDir, FileName))
}

// LoadFile reads and validates a config file. A missing file yields the
// defaults.
func LoadFile(path string) (*File, error) {
	var f File
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func (f *File) applyDefaults() {
	if f.Android == "" {
		f.Android = DefaultAndroid
	}
	if f.Gettext == "" {
		f.Gettext = DefaultGettext
	}
	if f.Domain == "" {
		f.Domain = DefaultDomain
	}
	if f.Template == "" {
		f.Template = DefaultTemplate
	}
	if f.Layout == "" {
		f.Layout = DefaultLayout
	}
}

// Validate checks field values.
func (f *File) Validate() error {
	if !strings.Contains(f.Layout, "{locale}") {
		return fmt.Errorf("layout %q must contain {locale}", f.Layout)
	}
	if strings.Contains(f.Template, "{locale}") {
		return fmt.Errorf("template %q must not contain {locale}", f.Template)
	}
	if f.RequireMinComplete < 0 || f.RequireMinComplete > 1 {
		return fmt.Errorf("require_min_complete must be between 0 and 1, got %v", f.RequireMinComplete)
	}
	for _, l := range f.Languages {
		if _, err := ParseLanguage(l); err != nil {
			return err
		}
	}
	if _, err := NewMatcher(f.Ignore); err != nil {
		return err
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// ParseLanguage parses a language code in gettext (pt_BR) or BCP 47
// (pt-BR) form.
func ParseLanguage(code string) (language.Tag, error) {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("invalid language %q: %w", code, err)
	}
	return tag, nil
}

// GettextCode formats a language the way gettext names catalogs (pt_BR).
func GettextCode(tag language.Tag) string {
	return strings.ReplaceAll(tag.String(), "-", "_")
}

// ---------------------------------------------------------------------------
// Ignore list
// ---------------------------------------------------------------------------

// Matcher tests resource names against an ignore list.
type Matcher struct {
	names    map[string]bool
	patterns []*regexp.Regexp
}

// NewMatcher compiles an ignore list. Entries enclosed in slashes are
// regular expressions, everything else is an exact name.
func NewMatcher(entries []string) (*Matcher, error) {
	m := &Matcher{names: make(map[string]bool)}
	for _, e := range entries {
		if len(e) > 2 && strings.HasPrefix(e, "/") && strings.HasSuffix(e, "/") {
			re, err := regexp.Compile(e[1 : len(e)-1])
			if err != nil {
				return nil, fmt.Errorf("invalid ignore pattern %q: %w", e, err)
			}
			m.patterns = append(m.patterns, re)
			continue
		}
		m.names[e] = true
	}
	return m, nil
}

// Match reports whether name is ignored.
func (m *Matcher) Match(name string) bool {
	if m == nil {
		return false
	}
	if m.names[name] {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Resolving to a Project
// ---------------------------------------------------------------------------

// Project is a configuration resolved against a project root.
type Project struct {
	Config *File
	// ResDir and LocaleDir are absolute.
	ResDir    string
	LocaleDir string
	// Ignore matches ignored resource names.
	Ignore *Matcher
}

// Resolve turns relative paths into absolute ones below projectRoot.
func (f *File) Resolve(projectRoot string) (*Project, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}
	ignore, err := NewMatcher(f.Ignore)
	if err != nil {
		return nil, err
	}
	return &Project{
		Config:    f,
		ResDir:    joinAbs(abs, f.Android),
		LocaleDir: joinAbs(abs, f.Gettext),
		Ignore:    ignore,
	}, nil
}

func joinAbs(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// TemplatePath is the path of the template catalog.
func (p *Project) TemplatePath() string {
	name := strings.ReplaceAll(p.Config.Template, "{domain}", p.Config.Domain)
	return filepath.Join(p.LocaleDir, name)
}

// CatalogPath is the path of the catalog for lang.
func (p *Project) CatalogPath(lang language.Tag) string {
	name := strings.ReplaceAll(p.Config.Layout, "{domain}", p.Config.Domain)
	name = strings.ReplaceAll(name, "{locale}", GettextCode(lang))
	return filepath.Join(p.LocaleDir, name)
}

// CatalogLanguages returns the languages that have a catalog on disk.
func (p *Project) CatalogLanguages() []language.Tag {
	layout := strings.ReplaceAll(p.Config.Layout, "{domain}", p.Config.Domain)
	before, after, _ := strings.Cut(layout, "{locale}")
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(before) + `([A-Za-z0-9_@-]+)` + regexp.QuoteMeta(after) + "$")

	var langs []language.Tag
	_ = filepath.WalkDir(p.LocaleDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(p.LocaleDir, path)
		if err != nil {
			return nil
		}
		if m := pattern.FindStringSubmatch(filepath.ToSlash(rel)); m != nil {
			if tag, err := ParseLanguage(m[1]); err == nil {
				langs = append(langs, tag)
			}
		}
		return nil
	})
	sortTags(langs)
	return langs
}

// Languages returns the configured languages, or when none are configured
// every language with a catalog or a values-XX directory.
func (p *Project) Languages() []language.Tag {
	if len(p.Config.Languages) > 0 {
		var langs []language.Tag
		for _, l := range p.Config.Languages {
			// Validated on load.
			tag, _ := ParseLanguage(l)
			langs = append(langs, tag)
		}
		return langs
	}

	seen := make(map[language.Tag]bool)
	var langs []language.Tag
	for _, tag := range append(p.CatalogLanguages(), android.DetectLanguages(p.ResDir)...) {
		if !seen[tag] {
			seen[tag] = true
			langs = append(langs, tag)
		}
	}
	sortTags(langs)
	return langs
}

func sortTags(tags []language.Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
}
