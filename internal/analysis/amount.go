package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// AmountKind tells which weight pattern matched.
type AmountKind int

const (
	AmountNone AmountKind = iota
	AmountSingle
	AmountSet
)

// Amount is the parsed form of a free-text weight expression. For sets, Kg
// is the per-unit weight and DeclaredKg the stated total; DeclaredKg is
// informational and never used in totals.
type Amount struct {
	Kind       AmountKind
	Kg         float64
	DeclaredKg float64
}

const number = `(\d[\d,]*(?:\.\d+)?)`

var (
	setPattern    = regexp.MustCompile(`(?i)各\s*` + number + `\s*kg.*?計\s*` + number + `\s*kg`)
	singlePattern = regexp.MustCompile(`(?i)` + number + `\s*(kg|g)`)
)

// ParseAmount reads a weight from s. The set pattern (各<n>kg…計<m>kg) is
// tried before the plain <n><kg|g> pattern. Full-width digits and letters
// are folded first.
func ParseAmount(s string) Amount {
	s = width.Fold.String(s)
	if m := setPattern.FindStringSubmatch(s); m != nil {
		return Amount{Kind: AmountSet, Kg: parseNumber(m[1]), DeclaredKg: parseNumber(m[2])}
	}
	if m := singlePattern.FindStringSubmatch(s); m != nil {
		kg := parseNumber(m[1])
		if strings.EqualFold(m[2], "g") {
			kg /= 1000
		}
		return Amount{Kind: AmountSingle, Kg: kg}
	}
	return Amount{}
}

// KgOf is ParseAmount reduced to kilograms; 0 when nothing matches.
func KgOf(s string) float64 {
	return ParseAmount(s).Kg
}

func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}
