package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KaramelBytes/csvtally/internal/parser"
)

// Placeholder messages for uploads that yield no counts.
const (
	MsgMissingProductColumn = "「" + ColProductName + "」列が見つかりません。"
	msgErrorPrefix          = "エラー: "
)

// CountUnique counts how often each product name occurs in t. Empty names
// are not counted.
func CountUnique(t *parser.Table) (map[string]int, error) {
	if !t.HasColumn(ColProductName) {
		return nil, fmt.Errorf("%s: %w", t.Name, ErrUnresolvableColumns)
	}
	counts := make(map[string]int)
	for _, row := range t.Rows {
		name := row[ColProductName]
		if strings.TrimSpace(name) == "" {
			continue
		}
		counts[name]++
	}
	return counts, nil
}

// Outcome is the per-upload result of a unique count: either the counts or
// a message explaining why there are none.
type Outcome struct {
	Counts  map[string]int
	Message string
}

func missingColumnOutcome() Outcome {
	return Outcome{Message: MsgMissingProductColumn}
}

func errorOutcome(err error) Outcome {
	return Outcome{Message: msgErrorPrefix + err.Error()}
}

// OK reports whether o carries counts.
func (o Outcome) OK() bool { return o.Message == "" }

// MarshalJSON emits the counts object, or the message as a plain string.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if !o.OK() {
		return json.Marshal(o.Message)
	}
	if o.Counts == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(o.Counts)
}

// MarshalYAML mirrors MarshalJSON.
func (o Outcome) MarshalYAML() (any, error) {
	if !o.OK() {
		return o.Message, nil
	}
	if o.Counts == nil {
		return map[string]int{}, nil
	}
	return o.Counts, nil
}
