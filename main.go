// android2po: converts Android strings.xml resources to gettext catalogs and back.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/minios-linux/android2po/android"
	"github.com/minios-linux/android2po/config"
	"github.com/minios-linux/android2po/convert"
	"github.com/minios-linux/android2po/merge"
	"github.com/minios-linux/android2po/pofile"
	"github.com/minios-linux/android2po/report"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	androidDir string
	gettextDir string
	verbose    bool
	quiet      bool
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

// consoleWriter returns a zerolog writer with colours only on a terminal.
func consoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd())
	return zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.TimeOnly}
}

func setupLogging(out *os.File) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	switch {
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	// Languages are processed concurrently.
	log.Logger = zerolog.New(zerolog.SyncWriter(consoleWriter(out))).With().Timestamp().Logger()
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "android2po",
		Short: "Convert Android string resources to gettext catalogs and back",
		Long: `android2po: convert Android strings.xml resources to gettext catalogs and back.

The default-language res/values/strings.xml becomes a gettext template, each
res/values-XX/strings.xml a catalog for language XX. Translators work on the
catalogs; importing writes them back as Android resources.

Commands:
  init      Create the template and initial catalogs from existing resources
  export    Update the template and merge new strings into every catalog
  import    Write catalogs back to res/values-XX/strings.xml
  status    Show translation statistics`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(os.Stderr)
		},
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <root>/"+config.FileName+")")
	root.PersistentFlags().StringVar(&androidDir, "android", "", "Android resource directory (overrides config)")
	root.PersistentFlags().StringVar(&gettextDir, "gettext", "", "Catalog directory (overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only show warnings and errors")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(
		newInitCmd(),
		newExportCmd(),
		newImportCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("android2po failed")
		os.Exit(1)
	}
}

// loadProject loads the configuration and applies flag overrides.
func loadProject() (*config.Project, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(rootDir, config.FileName)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if androidDir != "" {
		cfg.Android = androidDir
	}
	if gettextDir != "" {
		cfg.Gettext = gettextDir
	}
	return cfg.Resolve(rootDir)
}

// selectLanguages parses explicit language arguments, falling back to the
// project's languages.
func selectLanguages(proj *config.Project, args []string) ([]language.Tag, error) {
	if len(args) == 0 {
		return proj.Languages(), nil
	}
	var langs []language.Tag
	for _, a := range args {
		tag, err := config.ParseLanguage(a)
		if err != nil {
			return nil, err
		}
		langs = append(langs, tag)
	}
	return langs, nil
}

// fileSink reports diagnostics for one file to the log and counts them.
func fileSink(path string, lang language.Tag) (report.Sink, *report.Collector) {
	logger := log.With().Str("file", path)
	if lang != language.Und {
		logger = logger.Str("lang", lang.String())
	}
	var c report.Collector
	return report.Tee(report.Log(logger.Logger()), &c), &c
}

// forEachLanguage runs fn for every language concurrently.
func forEachLanguage(langs []language.Tag, fn func(lang language.Tag) error) error {
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, lang := range langs {
		g.Go(func() error {
			if err := fn(lang); err != nil {
				return fmt.Errorf("%s: %w", lang, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func readSource(proj *config.Project) (*android.ResourceTree, error) {
	path := android.SourceStringsXMLPath(proj.ResDir)
	sink, _ := fileSink(path, language.Und)
	return android.ReadFile(path, language.Und, sink)
}

// readTranslated reads values-XX/strings.xml, returning an empty tree when
// the file does not exist.
func readTranslated(proj *config.Project, lang language.Tag) (*android.ResourceTree, error) {
	path := android.StringsXMLPath(proj.ResDir, lang)
	if !fileExists(path) {
		return android.NewResourceTree(lang), nil
	}
	sink, _ := fileSink(path, lang)
	return android.ReadFile(path, lang, sink)
}

func writeCatalog(path string, c *pofile.Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return c.WriteFile(path)
}

// exportTemplate regenerates the template from the source resources.
func exportTemplate(proj *config.Project, ref *android.ResourceTree) error {
	path := proj.TemplatePath()
	sink, _ := fileSink(path, language.Und)
	pot, _ := convert.XMLToPO(ref, nil, convert.ExportOptions{Ignore: proj.Ignore.Match}, sink)
	pot.Header = pofile.MakeHeader(proj.Config.Domain)
	if err := writeCatalog(path, pot); err != nil {
		return err
	}
	log.Info().Str("file", path).Int("messages", len(pot.Messages)).Msg("Template written")
	return nil
}

// exportLanguage builds a fresh catalog for lang from the resources.
func exportLanguage(proj *config.Project, ref *android.ResourceTree, lang language.Tag) (*pofile.Catalog, error) {
	translated, err := readTranslated(proj, lang)
	if err != nil {
		return nil, err
	}
	path := proj.CatalogPath(lang)
	sink, _ := fileSink(path, lang)
	c, unmatched := convert.XMLToPO(ref, translated, convert.ExportOptions{Ignore: proj.Ignore.Match}, sink)
	for _, name := range unmatched {
		sink.Report(fmt.Sprintf("%q is not in the source resources, ignored", name), report.Warning)
	}
	c.Header = pofile.MakeHeader(proj.Config.Domain)
	return c, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "android2po version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// init (template + initial catalogs from existing resources)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [lang...]",
		Short: "Create the template and initial catalogs",
		Long: `Create the gettext template from res/values/strings.xml and a catalog for
every language, filled with the translations already present in
res/values-XX/strings.xml.

Without arguments every language found in the resource or catalog directory
is initialised. Existing catalogs are left alone unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			langs, err := selectLanguages(proj, args)
			if err != nil {
				return err
			}
			return runInit(proj, langs, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing catalogs")

	return cmd
}

func runInit(proj *config.Project, langs []language.Tag, force bool) error {
	ref, err := readSource(proj)
	if err != nil {
		return err
	}
	if err := exportTemplate(proj, ref); err != nil {
		return err
	}

	return forEachLanguage(langs, func(lang language.Tag) error {
		path := proj.CatalogPath(lang)
		if fileExists(path) && !force {
			log.Info().Str("file", path).Msg("Catalog exists, skipped (use --force to overwrite)")
			return nil
		}
		c, err := exportLanguage(proj, ref, lang)
		if err != nil {
			return err
		}
		if err := writeCatalog(path, c); err != nil {
			return err
		}
		_, translated, _, _ := c.Stats()
		log.Info().Str("file", path).Int("translated", translated).Int("messages", len(c.Messages)).Msg("Catalog created")
		return nil
	})
}

// ---------------------------------------------------------------------------
// export (template update + merge into catalogs)
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [lang...]",
		Short: "Update the template and merge it into every catalog",
		Long: `Regenerate the gettext template from res/values/strings.xml and merge the
changes into every catalog. Translations in the catalogs are kept; strings
whose source text changed are marked fuzzy and removed strings become
obsolete. Missing catalogs are created.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			langs, err := selectLanguages(proj, args)
			if err != nil {
				return err
			}
			return runExport(proj, langs)
		},
	}
}

func runExport(proj *config.Project, langs []language.Tag) error {
	ref, err := readSource(proj)
	if err != nil {
		return err
	}
	if err := exportTemplate(proj, ref); err != nil {
		return err
	}

	return forEachLanguage(langs, func(lang language.Tag) error {
		fresh, err := exportLanguage(proj, ref, lang)
		if err != nil {
			return err
		}

		path := proj.CatalogPath(lang)
		result := fresh
		if fileExists(path) {
			existing, err := pofile.ParseFile(path)
			if err != nil {
				return err
			}
			result = merge.Merge(existing, fresh)
		}
		if err := writeCatalog(path, result); err != nil {
			return err
		}
		total, translated, fuzzy, _ := result.Stats()
		log.Info().Str("file", path).Int("total", total).Int("translated", translated).Int("fuzzy", fuzzy).Msg("Catalog updated")
		return nil
	})
}

// ---------------------------------------------------------------------------
// import (catalogs -> res/values-XX/strings.xml)
// ---------------------------------------------------------------------------

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [lang...]",
		Short: "Write catalogs back to Android resources",
		Long: `Convert every catalog into res/values-XX/strings.xml.

Catalogs translated below require_min_complete are skipped. Untranslated
strings are left out unless with_untranslated is set; fuzzy translations are
used unless ignore_fuzzy is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			var langs []language.Tag
			if len(args) == 0 {
				langs = proj.CatalogLanguages()
			} else if langs, err = selectLanguages(proj, args); err != nil {
				return err
			}
			return runImport(proj, langs)
		},
	}
}

// errConversion is returned when a catalog converted with errors.
var errConversion = errors.New("conversion reported errors")

func runImport(proj *config.Project, langs []language.Tag) error {
	cfg := proj.Config
	opts := convert.ImportOptions{
		WithUntranslated: cfg.WithUntranslated,
		IgnoreFuzzy:      cfg.IgnoreFuzzy,
		Ignore:           proj.Ignore.Match,
	}

	return forEachLanguage(langs, func(lang language.Tag) error {
		path := proj.CatalogPath(lang)
		c, err := pofile.ParseFile(path)
		if err != nil {
			return err
		}
		// The file name decides the language.
		c.Language = lang

		if ratio := c.Completeness(); ratio < cfg.RequireMinComplete {
			log.Info().Str("file", path).
				Str("complete", fmt.Sprintf("%.0f%%", ratio*100)).
				Str("required", fmt.Sprintf("%.0f%%", cfg.RequireMinComplete*100)).
				Msg("Catalog not complete enough, skipped")
			return nil
		}

		sink, diags := fileSink(path, lang)
		tree := convert.POToXML(c, opts, sink)

		out := android.StringsXMLPath(proj.ResDir, lang)
		if err := android.WriteFile(out, tree, sink); err != nil {
			return err
		}
		log.Info().Str("file", out).Int("resources", tree.Len()).Msg("Resources written")
		if diags.HasErrors() {
			return fmt.Errorf("%s: %w (%d)", path, errConversion, diags.Count(report.Error))
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// status (read-only: translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show translation statistics",
		Long: `Show per-language translation progress of the catalogs.
Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			return runStatus(cmd.OutOrStdout(), proj)
		},
	}
}

func runStatus(out io.Writer, proj *config.Project) error {
	potPath := proj.TemplatePath()
	pot, err := pofile.ParseFile(potPath)
	if err != nil {
		return fmt.Errorf("no template, run init first: %w", err)
	}
	potTotal, _, _, _ := pot.Stats()

	fmt.Fprintf(out, "Template: %s (%d strings)\n\n", potPath, potTotal)
	fmt.Fprintf(out, "%-10s %-12s %-10s %-10s %-8s\n", "Lang", "Translated", "Fuzzy", "Untrans.", "Percent")
	fmt.Fprintln(out, strings.Repeat("─", 52))

	for _, lang := range proj.Languages() {
		code := config.GettextCode(lang)
		c, err := pofile.ParseFile(proj.CatalogPath(lang))
		if err != nil {
			fmt.Fprintf(out, "%-10s %-12s %-10s %-10s %-8s\n", code, "missing", "-", "-", "-")
			continue
		}
		_, translated, fuzzy, untranslated := c.Stats()
		fmt.Fprintf(out, "%-10s %-12d %-10d %-10d %.0f%%\n", code, translated, fuzzy, untranslated, c.Completeness()*100)
	}
	fmt.Fprintln(out, strings.Repeat("─", 52))
	return nil
}
