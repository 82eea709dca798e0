// Package plurals bridges CLDR plural categories, as used by Android
// <plurals> resources, and gettext Plural-Forms headers.
//
// Category sets come from golang.org/x/text/feature/plural. The gettext
// selector expression is derived by sampling the CLDR rule and is checked
// against the rule with gotext's expression evaluator before use.
package plurals

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leonelquinteros/gotext/plurals"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"

	"github.com/minios-linux/android2po/android"
	"github.com/minios-linux/android2po/pofile"
)

// Default plural metadata for templates and languages without CLDR data.
const (
	DefaultNumPlurals = 2
	DefaultExpr       = "(n != 1)"
)

// DefaultKeywords are the categories of DefaultExpr.
var DefaultKeywords = []string{"one", "other"}

var formNames = map[plural.Form]string{
	plural.Zero:  "zero",
	plural.One:   "one",
	plural.Two:   "two",
	plural.Few:   "few",
	plural.Many:  "many",
	plural.Other: "other",
}

// integer returns the CLDR category of the non-negative integer n.
func integer(tag language.Tag, n int) string {
	return formNames[plural.Cardinal.MatchPlural(tag, n, 0, 0, 0, 0)]
}

// decimal returns the category of i.f where f has v visible digits.
func decimal(tag language.Tag, i, v, f int) string {
	t, w := f, v
	for w > 0 && t%10 == 0 {
		t /= 10
		w--
	}
	return formNames[plural.Cardinal.MatchPlural(tag, i, v, w, f, t)]
}

// largeSamples are integers probed beyond the 0..199 window.
var largeSamples = []int{1000, 10000, 100000, 1000000, 2000000, 1000001, 10000000}

// CategoriesFor returns the plural categories lang uses in canonical CLDR
// order. The list always ends with "other".
func CategoriesFor(lang language.Tag) []string {
	seen := map[string]bool{"other": true}
	for n := 0; n < 200; n++ {
		seen[integer(lang, n)] = true
	}
	for _, n := range largeSamples {
		seen[integer(lang, n)] = true
	}
	for _, base := range []int{0, 100} {
		for i := base; i < base+26; i++ {
			for f := 0; f < 10; f++ {
				seen[decimal(lang, i, 1, f)] = true
			}
			for f := 0; f < 100; f++ {
				seen[decimal(lang, i, 2, f)] = true
			}
		}
	}

	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	android.SortQuantities(cats)
	return cats
}

// Expression derives a gettext plural selector for lang whose result
// indexes into keywords, which must contain every integer category of lang.
func Expression(lang language.Tag, keywords []string) (string, error) {
	index := make(map[string]int, len(keywords))
	for i, k := range keywords {
		index[k] = i
	}
	for n := 0; n < 200; n++ {
		if _, ok := index[integer(lang, n)]; !ok {
			return "", fmt.Errorf("category %q of %s missing from %v", integer(lang, n), lang, keywords)
		}
	}

	expr := derive(lang, index)
	if err := check(lang, expr, index); err != nil {
		return "", err
	}
	return expr, nil
}

func derive(lang language.Tag, index map[string]int) string {
	// low[k] holds the n < 100 mapping to k, high[k] the n%100 of
	// 100 <= n < 200 mapping to k.
	low := map[string][]int{}
	high := map[string][]int{}
	for n := 0; n < 100; n++ {
		low[integer(lang, n)] = append(low[integer(lang, n)], n)
		high[integer(lang, 100+n)] = append(high[integer(lang, 100+n)], n)
	}

	var order []string
	for _, k := range android.Quantities {
		if len(low[k]) > 0 || len(high[k]) > 0 {
			order = append(order, k)
		}
	}

	millions := integer(lang, 1000000)
	hasMillions := millions != integer(lang, 100)

	if !hasMillions {
		switch {
		case len(order) == 1:
			return strconv.Itoa(index[order[0]])
		case len(order) == 2 && order[0] == "one" && index["one"] == 0 && index["other"] == 1:
			if equalInts(low["one"], []int{1}) && len(high["one"]) == 0 {
				return "(n != 1)"
			}
			if equalInts(low["one"], []int{0, 1}) && len(high["one"]) == 0 {
				return "(n > 1)"
			}
		}
	}

	// The fallback is the category covering the most samples.
	fallback := order[len(order)-1]
	for _, k := range order {
		if len(low[k])+len(high[k]) > len(low[fallback])+len(high[fallback]) {
			fallback = k
		}
	}

	var b strings.Builder
	b.WriteByte('(')
	if hasMillions {
		fmt.Fprintf(&b, "n != 0 && n %% 1000000 == 0 ? %d : ", index[millions])
	}
	for _, k := range order {
		if k == fallback {
			continue
		}
		fmt.Fprintf(&b, "%s ? %d : ", condition(low[k], high[k]), index[k])
	}
	fmt.Fprintf(&b, "%d)", index[fallback])
	return b.String()
}

// condition builds a test matching n < 100 in low and n >= 100 whose
// n%100 is in high.
func condition(low, high []int) string {
	if equalInts(low, high) {
		return "(" + ranges("n % 100", low) + ")"
	}
	var parts []string
	if len(low) > 0 {
		parts = append(parts, "(n < 100 && ("+ranges("n", low)+"))")
	}
	if len(high) > 0 {
		parts = append(parts, "(n >= 100 && ("+ranges("n % 100", high)+"))")
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

// ranges renders sorted values as a disjunction of equalities and
// inclusive intervals over operand.
func ranges(operand string, values []int) string {
	var parts []string
	for i := 0; i < len(values); {
		j := i
		for j+1 < len(values) && values[j+1] == values[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, fmt.Sprintf("%s == %d", operand, values[i]))
		} else {
			parts = append(parts, fmt.Sprintf("%s >= %d && %s <= %d", operand, values[i], operand, values[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, " || ")
}

// check compiles expr and compares it with the CLDR rule.
func check(lang language.Tag, expr string, index map[string]int) error {
	compiled, err := plurals.Compile(expr)
	if err != nil {
		return fmt.Errorf("plural expression for %s: %w", lang, err)
	}
	samples := append([]int(nil), largeSamples...)
	for n := 0; n <= 1200; n++ {
		samples = append(samples, n)
	}
	for _, n := range samples {
		want := index[integer(lang, n)]
		if got := compiled.Eval(uint32(n)); got != want {
			return fmt.Errorf("plural expression for %s selects form %d for n=%d, want %d", lang, got, n, want)
		}
	}
	return nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SetCatalogPluralMetadata sets the catalog's language and plural metadata
// for lang. Templates (language.Und) get gettext's binary default.
func SetCatalogPluralMetadata(c *pofile.Catalog, lang language.Tag) error {
	c.Language = lang
	if lang == language.Und {
		c.NumPlurals = DefaultNumPlurals
		c.PluralExpr = DefaultExpr
		c.PluralKeywords = append([]string(nil), DefaultKeywords...)
		return nil
	}

	keywords := CategoriesFor(lang)
	expr, err := Expression(lang, keywords)
	if err != nil {
		return err
	}
	c.NumPlurals = len(keywords)
	c.PluralExpr = expr
	c.PluralKeywords = keywords
	return nil
}

// Validate reports whether the catalog's plural count matches the number of
// categories lang uses.
func Validate(c *pofile.Catalog, lang language.Tag) bool {
	return c.NumPlurals == len(CategoriesFor(lang))
}
