package analysis

import (
	"bytes"
	"encoding/json"
	"sort"
)

// JSON labels of an entry, per key kind.
const (
	LabelProduct       = "商品名"
	LabelTotalQuantity = "合計数量"
	LabelVariety       = "品種"
	LabelTotalWeight   = "合計重量(kg)"
)

// Entry is one row of the final aggregate.
type Entry struct {
	Kind  KeyKind
	Key   string
	Total float64
}

// Labels returns the key and total labels used when rendering e.
func (e Entry) Labels() (key, total string) {
	if e.Kind == KeyVariety {
		return LabelVariety, LabelTotalWeight
	}
	return LabelProduct, LabelTotalQuantity
}

// MarshalJSON renders {"商品名": key, "合計数量": total} for products and
// {"品種": key, "合計重量(kg)": total} for varieties, key first.
func (e Entry) MarshalJSON() ([]byte, error) {
	kl, tl := e.Labels()
	var b bytes.Buffer
	b.WriteByte('{')
	for i, kv := range [2]struct {
		k string
		v any
	}{{kl, e.Key}, {tl, e.Total}} {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(kv.k)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(kv.v)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// MarshalYAML renders the same shape as MarshalJSON.
func (e Entry) MarshalYAML() (any, error) {
	kl, tl := e.Labels()
	return map[string]any{kl: e.Key, tl: e.Total}, nil
}

// Merger folds per-file partials into one running total per key.
type Merger struct {
	totals map[groupKey]float64
	files  int
}

// NewMerger returns an empty Merger.
func NewMerger() *Merger {
	return &Merger{totals: make(map[groupKey]float64)}
}

// Add folds p into the running totals. A nil partial is ignored.
func (m *Merger) Add(p *Partial) {
	if p == nil {
		return
	}
	m.files++
	for k, v := range p.totals {
		m.totals[k] += v
	}
}

// Files is the number of partials added.
func (m *Merger) Files() int { return m.files }

// Entries returns the merged totals. Callers must not rely on the order;
// it is sorted by kind then key only to keep output stable.
func (m *Merger) Entries() []Entry {
	return entriesOf(m.totals)
}

// Merge is a convenience for merging a fixed set of partials.
func Merge(parts ...*Partial) []Entry {
	m := NewMerger()
	for _, p := range parts {
		m.Add(p)
	}
	return m.Entries()
}

func entriesOf(totals map[groupKey]float64) []Entry {
	out := make([]Entry, 0, len(totals))
	for k, v := range totals {
		out = append(out, Entry{Kind: k.kind, Key: k.key, Total: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Key < out[j].Key
	})
	return out
}
