// Package convert maps Android resource trees onto gettext catalogs and back.
//
// Every resource becomes one catalog message whose context is the resource
// name. Array items are flattened to one message each with the context
// "name:index"; a plurals resource becomes a single plural message whose
// forms follow the target language's CLDR categories.
package convert

import (
	"fmt"
	"strconv"
	"strings"
)

// ExportOptions controls XMLToPO.
type ExportOptions struct {
	// Ignore excludes resources by name. Nil keeps everything.
	Ignore func(name string) bool
}

// ImportOptions controls POToXML.
type ImportOptions struct {
	// WithUntranslated writes the source text for untranslated strings and
	// array items instead of leaving them out.
	WithUntranslated bool
	// IgnoreFuzzy treats fuzzy translations as untranslated.
	IgnoreFuzzy bool
	// Ignore excludes resources by name. Nil keeps everything.
	Ignore func(name string) bool
}

func ignored(ignore func(string) bool, name string) bool {
	return ignore != nil && ignore(name)
}

// arrayContext names the message of an array slot.
func arrayContext(name string, index int) string {
	return name + ":" + strconv.Itoa(index)
}

// parseContext splits a message context into a resource name and, for array
// slots, the slot index (-1 otherwise).
func parseContext(ctx string) (name string, index int, err error) {
	if ctx == "" {
		return "", 0, fmt.Errorf("missing message context")
	}
	i := strings.LastIndexByte(ctx, ':')
	if i < 0 {
		return ctx, -1, nil
	}
	name = ctx[:i]
	index, err = strconv.Atoi(ctx[i+1:])
	if err != nil || index < 0 || name == "" {
		return "", 0, fmt.Errorf("invalid array context %q", ctx)
	}
	return name, index, nil
}
