package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/csvtally/internal/parser"
	"golang.org/x/text/width"
)

// KeyKind says what an aggregate key names.
type KeyKind int

const (
	KeyProduct KeyKind = iota
	KeyVariety
)

func (k KeyKind) String() string {
	if k == KeyVariety {
		return "variety"
	}
	return "product"
}

type groupKey struct {
	kind KeyKind
	key  string
}

// Partial is the grouped sum computed from one upload before merging.
type Partial struct {
	Name    string
	Schema  Schema
	Rows    int
	Dropped int

	totals map[groupKey]float64
}

func newPartial(name string, s Schema) *Partial {
	return &Partial{Name: name, Schema: s, totals: make(map[groupKey]float64)}
}

func (p *Partial) add(kind KeyKind, key string, v float64) {
	p.totals[groupKey{kind: kind, key: key}] += v
}

// Total returns the running total for key, or 0 when absent.
func (p *Partial) Total(kind KeyKind, key string) float64 {
	return p.totals[groupKey{kind: kind, key: key}]
}

// Len is the number of distinct keys.
func (p *Partial) Len() int { return len(p.totals) }

// Entries returns the partial as entries, sorted like Merger.Entries.
func (p *Partial) Entries() []Entry {
	return entriesOf(p.totals)
}

// AggregateTable groups one parsed upload by product name or variety,
// depending on its resolved schema. Uploads without a product name column
// return ErrUnresolvableColumns.
func AggregateTable(t *parser.Table) (*Partial, error) {
	s := Resolve(t.Header)
	if s.Kind == SchemaUnusable {
		return nil, fmt.Errorf("%s: %w", t.Name, ErrUnresolvableColumns)
	}
	p := newPartial(t.Name, s)
	for _, row := range t.Rows {
		p.Rows++
		name := row[ColProductName]
		if strings.TrimSpace(name) == "" {
			p.Dropped++
			continue
		}
		switch s.Kind {
		case SchemaNameOnly:
			p.add(KeyProduct, name, 1)
		case SchemaNameQuantity:
			p.add(KeyProduct, name, quantityOr(row[ColQuantity], 1))
		case SchemaNameAmount:
			if !p.addWeight(row, s.HasQuantity) {
				p.Dropped++
			}
		}
	}
	return p, nil
}

// addWeight books kg × quantity against the varieties named in the row.
// A missing quantity column counts as 1; an unreadable cell in an existing
// column counts as 0.
func (p *Partial) addWeight(row parser.Row, hasQuantity bool) bool {
	qty := 1.0
	if hasQuantity {
		qty = quantityOr(row[ColQuantity], 0)
	}
	name := row[ColProductName]

	amt := ParseAmount(row[ColAmount])
	if amt.Kind != AmountSet {
		if fromName := ParseAmount(name); fromName.Kind == AmountSet {
			amt = fromName
		}
	}

	if amt.Kind == AmountSet {
		vs := ClassifyAll(name)
		for _, v := range vs {
			p.add(KeyVariety, v, amt.Kg*qty)
		}
		return len(vs) > 0
	}
	v, ok := Classify(name)
	if !ok {
		return false
	}
	p.add(KeyVariety, v, amt.Kg*qty)
	return true
}

// quantityOr parses a quantity cell, returning def when it is empty or not
// a finite number.
func quantityOr(s string, def float64) float64 {
	s = strings.TrimSpace(width.Fold.String(s))
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
