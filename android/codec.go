package android

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/minios-linux/android2po/report"
)

var (
	// ErrResourceReference is returned by Decode for values such as
	// "@string/app_name" that point at another resource instead of holding
	// translatable text.
	ErrResourceReference = errors.New("value is a resource reference")
	// ErrEmptyString is returned by Decode when nothing is left after decoding.
	ErrEmptyString = errors.New("value is empty")
)

// UnsupportedResourceError is returned by Decode when a value uses syntax the
// codec cannot represent, such as a malformed \u escape.
type UnsupportedResourceError struct {
	Name   string
	Reason string
}

func (e *UnsupportedResourceError) Error() string {
	return fmt.Sprintf("resource %q is not supported: %s", e.Name, e.Reason)
}

// KnownNamespaces maps the namespace URLs that may appear on tags nested in
// resource text to the prefix the Writer declares for them.
var KnownNamespaces = map[string]string{
	"urn:oasis:names:tc:xliff:document:1.2": "xliff",
	"http://schemas.android.com/tools":      "tools",
}

// formatMarker matches java.util.Formatter conversions (%s, %1$d, %.2f, ...).
var formatMarker = regexp.MustCompile(`%(?:\d+\$)?[-#+ 0,(<]*\d*(?:\.\d+)?[a-zA-Z]`)

// IsFormatted reports whether s contains format markers other than "%%".
func IsFormatted(s string) bool {
	return formatMarker.MatchString(strings.ReplaceAll(s, "%%", ""))
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// Decode converts the content of a resource element into the logical string a
// translator sees. Nested tags are kept as literal tag syntax; literal angle
// brackets in text become &lt; and &gt;. Recoverable oddities (unknown escape
// sequences) go to sink, while conditions that make the whole value unusable
// are returned as errors: ErrResourceReference, ErrEmptyString or
// *UnsupportedResourceError.
func Decode(el *Node, name string, sink report.Sink) (text string, formatted bool, err error) {
	strip := !el.HasChildElements()

	if first := leadingText(el); strings.HasPrefix(strings.TrimLeft(first, " \t\n\r"), "@") {
		return "", false, ErrResourceReference
	}

	var b strings.Builder
	if err := decodeChildren(&b, el, name, strip, sink); err != nil {
		return "", false, err
	}
	text = b.String()
	if text == "" {
		return "", false, ErrEmptyString
	}
	return text, IsFormatted(text), nil
}

// DecodeString decodes raw element content given as XML text, as it would
// appear between <string> and </string>.
func DecodeString(raw, name string, sink report.Sink) (string, bool, error) {
	el, err := parseFragment(raw)
	if err != nil {
		return "", false, err
	}
	return Decode(el, name, sink)
}

// leadingText returns the text preceding the first child element of el.
func leadingText(el *Node) string {
	var b strings.Builder
	for _, c := range el.Children {
		if c.Kind == ElementNode {
			break
		}
		if c.Kind == TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func decodeChildren(b *strings.Builder, el *Node, name string, strip bool, sink report.Sink) error {
	var pending strings.Builder
	flush := func() error {
		raw := pending.String()
		pending.Reset()
		if strip {
			raw = strings.Trim(raw, " \t\n\r")
		}
		if raw == "" {
			return nil
		}
		s, err := decodeSegment(raw, name, sink)
		if err != nil {
			return err
		}
		b.WriteString(s)
		return nil
	}

	for _, c := range el.Children {
		switch c.Kind {
		case TextNode:
			pending.WriteString(c.Data)
		case ElementNode:
			if err := flush(); err != nil {
				return err
			}
			writeStartTag(b, c, len(c.Children) == 0)
			if len(c.Children) == 0 {
				continue
			}
			if err := decodeChildren(b, c, name, false, sink); err != nil {
				return err
			}
			writeEndTag(b, c)
		}
	}
	return flush()
}

// segmentDecoder applies the Android quoting, escaping and whitespace rules
// to one block of text. Blocks are separated by nested tags and each starts
// with a fresh state.
type segmentDecoder struct {
	src  []rune
	pos  int
	out  []rune
	name string
	sink report.Sink

	quoted     bool
	quoteStart int
}

func decodeSegment(raw, name string, sink report.Sink) (string, error) {
	d := &segmentDecoder{src: []rune(raw), name: name, sink: sink}
	if err := d.run(); err != nil {
		return "", err
	}
	return string(d.out), nil
}

func (d *segmentDecoder) run() error {
	for d.pos < len(d.src) {
		c := d.src[d.pos]
		switch {
		case c == '\\':
			if err := d.escape(); err != nil {
				return err
			}
			continue
		case c == '"':
			d.quoted = !d.quoted
			if d.quoted {
				d.quoteStart = len(d.out)
			}
		case isSpace(c) && !d.quoted:
			for d.pos+1 < len(d.src) && isSpace(d.src[d.pos+1]) {
				d.pos++
			}
			d.out = append(d.out, ' ')
		case c == '<':
			d.out = append(d.out, []rune("&lt;")...)
		case c == '>':
			d.out = append(d.out, []rune("&gt;")...)
		default:
			d.out = append(d.out, c)
		}
		d.pos++
	}

	// A quote left open still gets the collapsing it escaped from.
	if d.quoted {
		d.out = append(d.out[:d.quoteStart], collapseSpace(d.out[d.quoteStart:])...)
	}
	return nil
}

// escape consumes a backslash sequence starting at d.pos.
func (d *segmentDecoder) escape() error {
	if d.pos+1 >= len(d.src) {
		d.sink.Report(fmt.Sprintf("Resource %q: a backslash at the end of the string is ignored", d.name), report.Warning)
		d.pos++
		return nil
	}

	next := d.src[d.pos+1]
	switch next {
	case 'n':
		d.out = append(d.out, '\n')
	case 't':
		d.out = append(d.out, '\t')
	case '"', '\'', '@', '\\':
		d.out = append(d.out, next)
	case 'u':
		return d.unicodeEscape()
	default:
		d.sink.Report(fmt.Sprintf("Resource %q: unsupported escape sequence \"\\%c\" dropped", d.name, next), report.Warning)
	}
	d.pos += 2
	return nil
}

// unicodeEscape handles \uXXXX. Digits cut off by the end of the text are
// padded with zeros.
func (d *segmentDecoder) unicodeEscape() error {
	start := d.pos + 2
	end := min(start+4, len(d.src))
	digits := string(d.src[start:end])
	padded := digits + strings.Repeat("0", 4-(end-start))

	v, err := strconv.ParseUint(padded, 16, 32)
	if err != nil {
		return &UnsupportedResourceError{
			Name:   d.name,
			Reason: fmt.Sprintf("invalid unicode escape sequence \"\\u%s\"", digits),
		}
	}
	if utf16.IsSurrogate(rune(v)) {
		return &UnsupportedResourceError{
			Name:   d.name,
			Reason: fmt.Sprintf("unicode escape sequence \"\\u%s\" is a lone surrogate", digits),
		}
	}
	d.out = append(d.out, rune(v))
	d.pos = end
	return nil
}

func collapseSpace(rs []rune) []rune {
	out := make([]rune, 0, len(rs))
	for i := 0; i < len(rs); i++ {
		if !isSpace(rs[i]) {
			out = append(out, rs[i])
			continue
		}
		for i+1 < len(rs) && isSpace(rs[i+1]) {
			i++
		}
		out = append(out, ' ')
	}
	return out
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// Encode converts a logical string into the text content of a resource
// element, ready to be placed verbatim between the element's tags. It returns
// the URLs of the known namespaces used by nested tags so the caller can
// declare them on the document root.
//
// A value whose markup cannot be parsed is reported to sink and written as
// plain text instead.
func Encode(value, name string, sink report.Sink) (string, []string) {
	el, err := parseFragment(escapeAmpersands(value))
	if err != nil {
		sink.Report(fmt.Sprintf("Resource %q: invalid markup, writing it as plain text: %v", name, err), report.Warning)
		plain := strings.NewReplacer("&lt;", "<", "&gt;", ">").Replace(value)
		el = &Node{Kind: ElementNode, Children: []*Node{{Kind: TextNode, Data: plain}}}
	}

	e := &encoder{edgeSensitive: !el.HasChildElements(), namespaces: map[string]bool{}}
	e.children(el, true)

	var ns []string
	for u := range e.namespaces {
		ns = append(ns, u)
	}
	sort.Strings(ns)
	return e.b.String(), ns
}

type encoder struct {
	b             strings.Builder
	edgeSensitive bool
	namespaces    map[string]bool
}

func (e *encoder) children(el *Node, top bool) {
	for i, c := range el.Children {
		switch c.Kind {
		case TextNode:
			e.segment(c.Data, top && i == 0)
		case ElementNode:
			if _, ok := KnownNamespaces[c.Name.Space]; ok {
				e.namespaces[c.Name.Space] = true
			}
			for _, a := range c.Attr {
				if u, ok := namespaceForPrefix(a.Name.Space); ok {
					e.namespaces[u] = true
				}
			}
			writeStartTag(&e.b, c, len(c.Children) == 0)
			if len(c.Children) == 0 {
				continue
			}
			e.children(c, false)
			writeEndTag(&e.b, c)
		}
	}
}

// segment writes one block of text, quoting it when Android would otherwise
// collapse or strip its whitespace.
func (e *encoder) segment(s string, first bool) {
	var b strings.Builder
	for i, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '@':
			if first && i == 0 {
				b.WriteString(`\@`)
			} else {
				b.WriteRune(r)
			}
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}

	escaped := b.String()
	quote := strings.Contains(escaped, "  ") || strings.ContainsRune(escaped, '\r') ||
		(e.edgeSensitive && (strings.HasPrefix(escaped, " ") || strings.HasSuffix(escaped, " ")))
	if quote {
		e.b.WriteByte('"')
		e.b.WriteString(escaped)
		e.b.WriteByte('"')
		return
	}
	e.b.WriteString(escaped)
}

// escapeAmpersands turns every "&" in text into "&amp;" except the "&lt;" and
// "&gt;" markers, which stand for literal angle brackets. Attribute values
// inside tags are already escaped and left alone.
func escapeAmpersands(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	inTag := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '<':
			inTag = true
		case c == '>':
			inTag = false
		case c == '&' && !inTag && !strings.HasPrefix(s[i:], "&lt;") && !strings.HasPrefix(s[i:], "&gt;"):
			b.WriteString("&amp;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// parseFragment parses element content by wrapping it in a <string> element
// that declares the known namespace prefixes.
func parseFragment(content string) (*Node, error) {
	var b strings.Builder
	b.WriteString("<string")
	for _, u := range sortedNamespaceURLs() {
		fmt.Fprintf(&b, ` xmlns:%s="%s"`, KnownNamespaces[u], u)
	}
	b.WriteString(">")
	b.WriteString(content)
	b.WriteString("</string>")
	return ParseDocument([]byte(b.String()))
}

// namespaceForPrefix returns the known namespace URL the Writer declares
// under prefix.
func namespaceForPrefix(prefix string) (string, bool) {
	for u, p := range KnownNamespaces {
		if p == prefix {
			return u, true
		}
	}
	return "", false
}

func sortedNamespaceURLs() []string {
	urls := make([]string, 0, len(KnownNamespaces))
	for u := range KnownNamespaces {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// ---------------------------------------------------------------------------
// Tag serialisation shared by both directions
// ---------------------------------------------------------------------------

func qualifiedName(n *Node) string {
	if p, ok := KnownNamespaces[n.Name.Space]; ok {
		return p + ":" + n.Name.Local
	}
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Name.Local
	}
	return n.Name.Local
}

func writeStartTag(b *strings.Builder, n *Node, selfClose bool) {
	b.WriteByte('<')
	b.WriteString(qualifiedName(n))
	for _, a := range n.Attr {
		b.WriteByte(' ')
		if a.Name.Space != "" {
			b.WriteString(a.Name.Space)
			b.WriteByte(':')
		}
		b.WriteString(a.Name.Local)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(a.Value))
		b.WriteByte('"')
	}
	if selfClose {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
}

func writeEndTag(b *strings.Builder, n *Node) {
	b.WriteString("</")
	b.WriteString(qualifiedName(n))
	b.WriteByte('>')
}

func escapeAttr(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
