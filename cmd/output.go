package cmd

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/csvtally/internal/analysis"
	"github.com/KaramelBytes/csvtally/internal/utils"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Output formats for the aggregate and unique commands.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(f string) (string, error) {
	switch f = strings.ToLower(strings.TrimSpace(f)); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported --format: %s (use table|json|yaml)", f)
	}
}

// encode renders v as JSON or YAML. Table output is format-specific and
// handled by the callers.
func encode(format string, v any) ([]byte, error) {
	if format == formatYAML {
		b, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	}
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func formatTotal(v float64) string {
	return humanize.CommafWithDigits(v, 3)
}

func renderEntries(format string, entries []analysis.Entry) ([]byte, error) {
	if format != formatTable {
		return encode(format, entries)
	}
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	var lastKind analysis.KeyKind = -1
	for _, e := range entries {
		if e.Kind != lastKind {
			kl, tl := e.Labels()
			fmt.Fprintf(tw, "%s\t%s\n", kl, tl)
			lastKind = e.Kind
		}
		fmt.Fprintf(tw, "%s\t%s\n", e.Key, formatTotal(e.Total))
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderUnique(format string, files map[string]analysis.Outcome) ([]byte, error) {
	if format != formatTable {
		return encode(format, files)
	}
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	for _, n := range names {
		o := files[n]
		fmt.Fprintf(tw, "== %s\n", n)
		if !o.OK() {
			fmt.Fprintf(tw, "%s\n", o.Message)
			continue
		}
		products := make([]string, 0, len(o.Counts))
		for p := range o.Counts {
			products = append(products, p)
		}
		sort.Strings(products)
		for _, p := range products {
			fmt.Fprintf(tw, "%s\t%d\n", p, o.Counts[p])
		}
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// emit writes data to path when set, or to w.
func emit(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(w, "✓ Wrote result to %s\n", path)
	return nil
}
