package analysis

import "strings"

// Varieties is the fixed catalog of cultivars recognised in product names.
// Order matters: Classify returns the first entry that matches.
var Varieties = [...]string{
	"つや姫",
	"雪若丸",
	"はえぬき",
	"コシヒカリ",
	"ひとめぼれ",
}

// Classify returns the first catalog variety that occurs in name.
func Classify(name string) (string, bool) {
	for _, v := range Varieties {
		if strings.Contains(name, v) {
			return v, true
		}
	}
	return "", false
}

// ClassifyAll returns every catalog variety that occurs in name, in catalog
// order. Set products bundle several varieties under one line.
func ClassifyAll(name string) []string {
	var out []string
	for _, v := range Varieties {
		if strings.Contains(name, v) {
			out = append(out, v)
		}
	}
	return out
}
