// Package pofile implements reading and writing of PO/POT catalogs
// following the GNU gettext format specification.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/leonelquinteros/gotext/plurals"
	"golang.org/x/text/language"
)

// FlagFormat marks messages whose text carries printf-style placeholders.
const FlagFormat = "c-format"

// FlagFuzzy marks translations that need review.
const FlagFuzzy = "fuzzy"

// Message represents a single translatable message in a catalog.
type Message struct {
	// UserComments are lines starting with "# " (translator comments).
	UserComments []string
	// AutoComments are lines starting with "#." (extracted comments).
	AutoComments []string
	// Locations are source references, lines starting with "#:".
	Locations []string
	// Flags are lines starting with "#,".
	Flags []string
	// PreviousID stores the previous msgid of fuzzy messages ("#|").
	PreviousID string

	// Context is the message context (msgctxt).
	Context string
	// ID is the untranslated string.
	ID string
	// IDPlural is the untranslated plural string; non-empty for plural messages.
	IDPlural string
	// Str is the translation of a singular message.
	Str string
	// StrPlural holds the translations of a plural message, one per plural
	// form of the catalog's language.
	StrPlural []string

	// Obsolete marks messages prefixed with "#~".
	Obsolete bool
}

// IsPlural reports whether the message has a plural form.
func (m *Message) IsPlural() bool { return m.IDPlural != "" }

// IsTranslated reports whether the message has a complete, non-fuzzy
// translation.
func (m *Message) IsTranslated() bool {
	if m.IsFuzzy() {
		return false
	}
	if m.IsPlural() {
		if len(m.StrPlural) == 0 {
			return false
		}
		for _, s := range m.StrPlural {
			if s == "" {
				return false
			}
		}
		return true
	}
	return m.Str != ""
}

// IsFuzzy reports whether the message is marked fuzzy.
func (m *Message) IsFuzzy() bool { return m.HasFlag(FlagFuzzy) }

// SetFuzzy adds or removes the fuzzy flag.
func (m *Message) SetFuzzy(fuzzy bool) {
	if fuzzy && !m.IsFuzzy() {
		m.Flags = append(m.Flags, FlagFuzzy)
	} else if !fuzzy {
		filtered := make([]string, 0, len(m.Flags))
		for _, f := range m.Flags {
			if f != FlagFuzzy {
				filtered = append(filtered, f)
			}
		}
		m.Flags = filtered
	}
}

// HasFlag checks if a specific flag is present.
func (m *Message) HasFlag(flag string) bool {
	for _, f := range m.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

type messageKey struct {
	context, id string
}

// Catalog represents a PO/POT file.
type Catalog struct {
	// Header is the metadata message (msgid "").
	Header *Message
	// Messages are the translatable messages in order.
	Messages []*Message

	// Language is the catalog's language; language.Und for templates.
	Language language.Tag
	// NumPlurals and PluralExpr mirror the Plural-Forms header.
	NumPlurals int
	PluralExpr string
	// PluralKeywords names the CLDR category of each plural form index.
	PluralKeywords []string

	index   map[messageKey]int
	indexed int
}

// NewCatalog creates an empty catalog for lang with gettext's default
// plural rule.
func NewCatalog(lang language.Tag) *Catalog {
	return &Catalog{
		Header:         &Message{},
		Language:       lang,
		NumPlurals:     2,
		PluralExpr:     "(n != 1)",
		PluralKeywords: []string{"one", "other"},
	}
}

// Add appends m. It returns false, leaving the catalog unchanged, when a
// non-obsolete message with the same context and id already exists.
func (c *Catalog) Add(m *Message) bool {
	c.ensureIndex()
	if !m.Obsolete {
		k := messageKey{m.Context, m.ID}
		if _, exists := c.index[k]; exists {
			return false
		}
		c.index[k] = len(c.Messages)
	}
	c.Messages = append(c.Messages, m)
	c.indexed = len(c.Messages)
	return true
}

// Get finds a non-obsolete message by context and id.
func (c *Catalog) Get(context, id string) *Message {
	c.ensureIndex()
	if i, ok := c.index[messageKey{context, id}]; ok {
		return c.Messages[i]
	}
	return nil
}

// ensureIndex rebuilds the lookup index when Messages was changed directly.
func (c *Catalog) ensureIndex() {
	if c.index == nil || c.indexed != len(c.Messages) {
		c.reindex()
	}
}

func (c *Catalog) reindex() {
	c.index = make(map[messageKey]int, len(c.Messages))
	for i, m := range c.Messages {
		if !m.Obsolete {
			c.index[messageKey{m.Context, m.ID}] = i
		}
	}
	c.indexed = len(c.Messages)
}

// HeaderField returns a header field value by name.
func (c *Catalog) HeaderField(name string) string {
	if c.Header == nil {
		return ""
	}
	for _, line := range strings.Split(c.Header.Str, "\n") {
		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			if strings.EqualFold(key, name) {
				return strings.TrimSpace(line[idx+1:])
			}
		}
	}
	return ""
}

// SetHeaderField sets a header field value.
func (c *Catalog) SetHeaderField(name, value string) {
	if c.Header == nil {
		c.Header = &Message{}
	}

	lines := strings.Split(c.Header.Str, "\n")
	found := false
	for i, line := range lines {
		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			if strings.EqualFold(key, name) {
				lines[i] = name + ": " + value
				found = true
				break
			}
		}
	}
	if !found {
		// Insert before trailing empty line
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = append(lines[:len(lines)-1], name+": "+value, "")
		} else {
			lines = append(lines, name+": "+value)
		}
	}
	c.Header.Str = strings.Join(lines, "\n")
}

// PluralForms renders the Plural-Forms header value.
func (c *Catalog) PluralForms() string {
	return fmt.Sprintf("nplurals=%d; plural=%s;", c.NumPlurals, c.PluralExpr)
}

// Stats returns translation statistics.
func (c *Catalog) Stats() (total, translated, fuzzy, untranslated int) {
	for _, m := range c.Messages {
		if m.Obsolete {
			continue
		}
		total++
		switch {
		case m.IsFuzzy():
			fuzzy++
		case m.IsTranslated():
			translated++
		default:
			untranslated++
		}
	}
	return
}

// Completeness returns the share of translated messages, 1 for an empty catalog.
func (c *Catalog) Completeness() float64 {
	total, translated, _, _ := c.Stats()
	if total == 0 {
		return 1
	}
	return float64(translated) / float64(total)
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// Parse reads a PO/POT catalog from a reader.
func Parse(r io.Reader) (*Catalog, error) {
	c := NewCatalog(language.Und)
	c.Header = nil
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var current *Message
	var lastField string // tracks the last msgid/msgstr/etc. field for multiline strings
	lineNum := 0

	flush := func() {
		if current == nil {
			return
		}
		if current.ID == "" && current.Context == "" && !current.Obsolete && c.Header == nil {
			c.Header = current
		} else {
			c.Messages = append(c.Messages, current)
		}
		current = nil
		lastField = ""
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Empty line separates messages
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			current = &Message{}
		}

		// Obsolete messages
		if rest, ok := strings.CutPrefix(line, "#~"); ok {
			current.Obsolete = true
			line = strings.TrimPrefix(rest, " ")
		}

		// Comment lines
		if strings.HasPrefix(line, "#") {
			switch {
			case strings.HasPrefix(line, "#:"):
				current.Locations = append(current.Locations, strings.TrimSpace(line[2:]))
			case strings.HasPrefix(line, "#,"):
				for _, flag := range strings.Split(line[2:], ",") {
					if flag = strings.TrimSpace(flag); flag != "" {
						current.Flags = append(current.Flags, flag)
					}
				}
			case strings.HasPrefix(line, "#."):
				current.AutoComments = append(current.AutoComments, strings.TrimSpace(line[2:]))
			case strings.HasPrefix(line, "#|"):
				prev := strings.TrimSpace(line[2:])
				if rest, ok := strings.CutPrefix(prev, "msgid "); ok {
					current.PreviousID = unquote(rest)
				}
			default:
				current.UserComments = append(current.UserComments, strings.TrimPrefix(line[1:], " "))
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "msgctxt "):
			current.Context = unquote(strings.TrimPrefix(line, "msgctxt "))
			lastField = "msgctxt"

		case strings.HasPrefix(line, "msgid_plural "):
			current.IDPlural = unquote(strings.TrimPrefix(line, "msgid_plural "))
			lastField = "msgid_plural"

		case strings.HasPrefix(line, "msgid "):
			current.ID = unquote(strings.TrimPrefix(line, "msgid "))
			lastField = "msgid"

		case strings.HasPrefix(line, "msgstr["):
			end := strings.Index(line, "]")
			if end < 0 {
				return nil, fmt.Errorf("line %d: invalid msgstr format: %s", lineNum, line)
			}
			idx, err := strconv.Atoi(line[len("msgstr["):end])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("line %d: invalid msgstr index: %s", lineNum, line)
			}
			for len(current.StrPlural) <= idx {
				current.StrPlural = append(current.StrPlural, "")
			}
			current.StrPlural[idx] = unquote(line[end+1:])
			lastField = "msgstr[" + strconv.Itoa(idx) + "]"

		case strings.HasPrefix(line, "msgstr "):
			current.Str = unquote(strings.TrimPrefix(line, "msgstr "))
			lastField = "msgstr"

		case strings.HasPrefix(line, "\""):
			// Continuation line
			val := unquote(line)
			switch {
			case lastField == "msgctxt":
				current.Context += val
			case lastField == "msgid":
				current.ID += val
			case lastField == "msgid_plural":
				current.IDPlural += val
			case lastField == "msgstr":
				current.Str += val
			case strings.HasPrefix(lastField, "msgstr["):
				idx, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(lastField, "msgstr["), "]"))
				current.StrPlural[idx] += val
			default:
				return nil, fmt.Errorf("line %d: unexpected string continuation", lineNum)
			}

		default:
			return nil, fmt.Errorf("line %d: unrecognised line: %s", lineNum, line)
		}
	}

	// Flush last message
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}

	if c.Header == nil {
		c.Header = &Message{}
	}
	if err := c.loadHeader(); err != nil {
		return nil, err
	}
	c.reindex()
	return c, nil
}

// loadHeader fills Language, NumPlurals and PluralExpr from the header.
func (c *Catalog) loadHeader() error {
	if lang := c.HeaderField("Language"); lang != "" {
		tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
		if err != nil {
			return fmt.Errorf("invalid Language header %q: %w", lang, err)
		}
		c.Language = tag
	}

	pf := c.HeaderField("Plural-Forms")
	if pf == "" {
		return nil
	}
	n, expr, err := ParsePluralForms(pf)
	if err != nil {
		return err
	}
	c.NumPlurals, c.PluralExpr = n, expr
	c.PluralKeywords = nil
	return nil
}

// ParsePluralForms splits a Plural-Forms header value into the number of
// forms and the selector expression, checking that the expression compiles.
func ParsePluralForms(value string) (int, string, error) {
	var (
		n    int
		expr string
	)
	for _, part := range strings.Split(value, ";") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "nplurals":
			v, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || v < 1 {
				return 0, "", fmt.Errorf("invalid nplurals in Plural-Forms %q", value)
			}
			n = v
		case "plural":
			// The expression itself may contain "=".
			expr = strings.TrimSpace(part[strings.Index(part, "=")+1:])
		}
	}
	if n == 0 || expr == "" {
		return 0, "", fmt.Errorf("incomplete Plural-Forms %q", value)
	}
	if _, err := plurals.Compile(expr); err != nil {
		return 0, "", fmt.Errorf("invalid plural expression %q: %w", expr, err)
	}
	return n, expr, nil
}

// ParseFile reads a PO/POT catalog from disk.
func ParseFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Write writes the catalog to a writer. The Language and Plural-Forms header
// fields are refreshed from the catalog first.
func (c *Catalog) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if c.Language != language.Und {
		c.SetHeaderField("Language", strings.ReplaceAll(c.Language.String(), "-", "_"))
	}
	c.SetHeaderField("Plural-Forms", c.PluralForms())

	c.writeMessage(bw, c.Header)
	for _, m := range c.Messages {
		fmt.Fprintln(bw)
		c.writeMessage(bw, m)
	}

	return bw.Flush()
}

// WriteFile writes the catalog to disk.
func (c *Catalog) WriteFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (c *Catalog) writeMessage(w *bufio.Writer, m *Message) {
	prefix := ""
	if m.Obsolete {
		prefix = "#~ "
	}

	for _, s := range m.UserComments {
		fmt.Fprintf(w, "# %s\n", s)
	}
	for _, s := range m.AutoComments {
		fmt.Fprintf(w, "#. %s\n", s)
	}
	for _, ref := range m.Locations {
		fmt.Fprintf(w, "#: %s\n", ref)
	}
	if len(m.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(m.Flags, ", "))
	}
	if m.PreviousID != "" {
		fmt.Fprintf(w, "#| msgid %s\n", quote(m.PreviousID))
	}

	if m.Context != "" {
		writeQuotedField(w, prefix+"msgctxt", m.Context)
	}
	writeQuotedField(w, prefix+"msgid", m.ID)

	if !m.IsPlural() {
		writeQuotedField(w, prefix+"msgstr", m.Str)
		return
	}

	writeQuotedField(w, prefix+"msgid_plural", m.IDPlural)
	forms := max(len(m.StrPlural), c.NumPlurals)
	for i := 0; i < forms; i++ {
		s := ""
		if i < len(m.StrPlural) {
			s = m.StrPlural[i]
		}
		writeQuotedField(w, fmt.Sprintf("%smsgstr[%d]", prefix, i), s)
	}
}

// writeQuotedField writes a PO field with proper multiline quoting.
func writeQuotedField(w *bufio.Writer, field, value string) {
	if !strings.Contains(value, "\n") {
		fmt.Fprintf(w, "%s %s\n", field, quote(value))
		return
	}

	// Multiline: use empty string on first line
	fmt.Fprintf(w, "%s \"\"\n", field)
	parts := strings.Split(value, "\n")
	for i, part := range parts {
		if i < len(parts)-1 {
			fmt.Fprintf(w, "%s\n", quote(part+"\n"))
		} else if part != "" {
			fmt.Fprintf(w, "%s\n", quote(part))
		}
	}
}

// quote produces a PO-style quoted string.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return `"` + s + `"`
}

// unquote removes PO-style quoting from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				result.WriteByte('\n')
				i++
			case 't':
				result.WriteByte('\t')
				i++
			case '\\':
				result.WriteByte('\\')
				i++
			case '"':
				result.WriteByte('"')
				i++
			default:
				result.WriteByte(s[i])
			}
		} else {
			result.WriteByte(s[i])
		}
	}
	return result.String()
}

// MakeHeader creates a standard PO/POT header message for a project.
func MakeHeader(project string) *Message {
	now := time.Now().UTC().Format("2006-01-02 15:04+0000")

	headerStr := fmt.Sprintf(
		"Project-Id-Version: %s\n"+
			"POT-Creation-Date: %s\n"+
			"PO-Revision-Date: %s\n"+
			"Last-Translator: \n"+
			"Language-Team: \n"+
			"MIME-Version: 1.0\n"+
			"Content-Type: text/plain; charset=UTF-8\n"+
			"Content-Transfer-Encoding: 8bit\n"+
			"Generated-By: android2po\n",
		project, now, now,
	)

	return &Message{
		UserComments: []string{fmt.Sprintf("Translations for %s.", project)},
		Str:          headerStr,
	}
}
