package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/csvtally/internal/textenc"
)

type memSource struct {
	name string
	data string
}

func (m memSource) Name() string { return m.name }
func (m memSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(m.data)), nil
}

type failingSource struct{ name string }

func (f failingSource) Name() string                 { return f.name }
func (f failingSource) Open() (io.ReadCloser, error) { return nil, os.ErrPermission }

func TestPipelineAggregate(t *testing.T) {
	p := NewPipeline(nil, Options{})
	rep, err := p.Aggregate(context.Background(), []Source{
		memSource{"a.csv", "商品名,数量\nA,3\n"},
		memSource{"skip.csv", "日付,数量\n2024-01-01,2\n"},
		memSource{"b.csv", "商品名,数量\nA,2\n"},
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if rep.RunID == "" {
		t.Fatalf("expected run id")
	}
	if rep.Used != 2 || len(rep.Skipped) != 1 || rep.Skipped[0] != "skip.csv" {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(rep.Entries) != 1 || rep.Entries[0].Key != "A" || rep.Entries[0].Total != 5 {
		t.Fatalf("unexpected entries: %v", rep.Entries)
	}
}

func TestPipelineAggregate_Errors(t *testing.T) {
	p := NewPipeline(nil, Options{})
	if _, err := p.Aggregate(context.Background(), nil); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
	_, err := p.Aggregate(context.Background(), []Source{memSource{"x.csv", "品番\n1\n"}})
	if !errors.Is(err, ErrNoUsableData) {
		t.Fatalf("expected ErrNoUsableData, got %v", err)
	}
}

func TestPipelineAggregate_AbortsOnUnreadableFile(t *testing.T) {
	p := NewPipeline(nil, Options{})
	_, err := p.Aggregate(context.Background(), []Source{
		memSource{"ok.csv", "商品名\nA\n"},
		memSource{"bad.csv", "商品名\n\x82"},
		memSource{"later.csv", "商品名\nB\n"},
	})
	var fe *FileError
	if !errors.As(err, &fe) || fe.Name != "bad.csv" {
		t.Fatalf("expected FileError for bad.csv, got %v", err)
	}
	if !errors.Is(err, textenc.ErrUndecodable) {
		t.Fatalf("expected decode failure in chain, got %v", err)
	}
}

func TestPipelineAggregate_SkipUnreadable(t *testing.T) {
	p := NewPipeline(nil, Options{SkipUnreadable: true})
	rep, err := p.Aggregate(context.Background(), []Source{
		memSource{"bad.csv", "商品名,数量\n\"A,3\n"},
		failingSource{"gone.csv"},
		memSource{"ok.csv", "商品名\nA\n"},
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(rep.Skipped) != 2 || rep.Used != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestPipelineAggregate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPipeline(nil, Options{}).Aggregate(ctx, []Source{memSource{"a.csv", "商品名\nA\n"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPipelineUnique(t *testing.T) {
	p := NewPipeline(nil, Options{})
	rep, err := p.Unique(context.Background(), []Source{
		memSource{"shop.csv", "商品名\nX\nX\nY\n"},
		memSource{"other.csv", "品番\n1\n"},
		memSource{"bad.csv", "商品名\n\x82"},
		memSource{"shop.csv", "商品名\nZ\n"},
	})
	if err != nil {
		t.Fatalf("unique: %v", err)
	}
	shop := rep.Files["shop.csv"]
	if !shop.OK() || shop.Counts["X"] != 2 || shop.Counts["Y"] != 1 {
		t.Fatalf("unexpected shop counts: %+v", shop)
	}
	if rep.Files["other.csv"].Message != MsgMissingProductColumn {
		t.Fatalf("unexpected placeholder: %+v", rep.Files["other.csv"])
	}
	if msg := rep.Files["bad.csv"].Message; !strings.HasPrefix(msg, "エラー: ") {
		t.Fatalf("unexpected error placeholder: %q", msg)
	}
	if rep.Files["shop.csv (2)"].Counts["Z"] != 1 {
		t.Fatalf("duplicate name not suffixed: %v", rep.Files)
	}

	b, err := json.Marshal(map[string]Outcome{"shop.csv": shop, "other.csv": rep.Files["other.csv"]})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"other.csv":"「商品名」列が見つかりません。","shop.csv":{"X":2,"Y":1}}`
	if string(b) != want {
		t.Fatalf("json = %s, want %s", b, want)
	}
}

func TestPathSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stock.csv")
	if err := os.WriteFile(path, []byte("商品名,数量\nA,1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src := PathSource(path)
	if src.Name() != "stock.csv" {
		t.Fatalf("unexpected name %q", src.Name())
	}
	tbl, err := load(src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("unexpected rows: %v", tbl.Rows)
	}
}
