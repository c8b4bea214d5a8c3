package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/csvtally/internal/parser"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source is one uploaded file. Open is called once per run.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type pathSource string

// PathSource exposes a file on disk as a Source named by its base name.
func PathSource(path string) Source { return pathSource(path) }

func (p pathSource) Name() string                 { return filepath.Base(string(p)) }
func (p pathSource) Open() (io.ReadCloser, error) { return os.Open(string(p)) }

// Options controls pipeline behaviour.
type Options struct {
	// SkipUnreadable makes Aggregate skip uploads that fail to read, decode
	// or parse instead of aborting the whole run on the first one.
	SkipUnreadable bool
}

// Pipeline runs uploads through decode, parse, resolve and aggregate, one
// file at a time in the order given.
type Pipeline struct {
	log *zap.Logger
	opt Options
}

// NewPipeline creates a pipeline. A nil logger discards output.
func NewPipeline(log *zap.Logger, opt Options) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{log: log, opt: opt}
}

// Report describes one aggregate run. It is returned even when the run
// fails so callers can correlate logs by RunID.
type Report struct {
	RunID   string
	Entries []Entry
	Files   int
	Used    int
	Skipped []string
}

// Aggregate merges every usable upload into one grouped total.
//
// Uploads without a product name column are skipped. With the default
// options the first upload that cannot be read, decoded or parsed aborts the
// run with a *FileError; Options.SkipUnreadable turns that into a skip. If no
// upload is usable the error is ErrNoUsableData.
func (p *Pipeline) Aggregate(ctx context.Context, sources []Source) (*Report, error) {
	rep := &Report{RunID: uuid.NewString(), Files: len(sources)}
	log := p.log.With(zap.String("run_id", rep.RunID))
	if len(sources) == 0 {
		return rep, ErrNoFiles
	}

	m := NewMerger()
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		t, err := load(src)
		if err != nil {
			if !p.opt.SkipUnreadable {
				log.Error("aggregate aborted", zap.String("file", src.Name()), zap.Error(err))
				return rep, err
			}
			log.Warn("skipping unreadable file", zap.String("file", src.Name()), zap.Error(err))
			rep.Skipped = append(rep.Skipped, src.Name())
			continue
		}
		part, err := AggregateTable(t)
		if errors.Is(err, ErrUnresolvableColumns) {
			log.Info("skipping file without product column", zap.String("file", src.Name()), zap.Strings("header", t.Header))
			rep.Skipped = append(rep.Skipped, src.Name())
			continue
		}
		if err != nil {
			return rep, &FileError{Name: src.Name(), Err: err}
		}
		log.Debug("aggregated file",
			zap.String("file", src.Name()),
			zap.Stringer("schema", part.Schema.Kind),
			zap.Int("rows", part.Rows),
			zap.Int("dropped", part.Dropped),
			zap.Int("keys", part.Len()),
		)
		m.Add(part)
	}

	rep.Used = m.Files()
	if rep.Used == 0 {
		return rep, ErrNoUsableData
	}
	rep.Entries = m.Entries()
	log.Info("aggregate complete", zap.Int("files", rep.Files), zap.Int("used", rep.Used), zap.Int("entries", len(rep.Entries)))
	return rep, nil
}

// UniqueReport maps each upload name to its product counts.
type UniqueReport struct {
	RunID string
	Files map[string]Outcome
}

// Unique counts product names per upload. Failures are reported per file
// and never fail the run; only an empty upload list is an error.
// Repeated file names get a " (2)", " (3)"... suffix.
func (p *Pipeline) Unique(ctx context.Context, sources []Source) (*UniqueReport, error) {
	rep := &UniqueReport{RunID: uuid.NewString(), Files: make(map[string]Outcome, len(sources))}
	log := p.log.With(zap.String("run_id", rep.RunID))
	if len(sources) == 0 {
		return rep, ErrNoFiles
	}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		key := uniqueName(rep.Files, src.Name())
		t, err := load(src)
		if err != nil {
			log.Warn("unique: unreadable file", zap.String("file", src.Name()), zap.Error(err))
			var fe *FileError
			if errors.As(err, &fe) {
				err = fe.Err
			}
			rep.Files[key] = errorOutcome(err)
			continue
		}
		counts, err := CountUnique(t)
		if err != nil {
			rep.Files[key] = missingColumnOutcome()
			continue
		}
		rep.Files[key] = Outcome{Counts: counts}
	}
	return rep, nil
}

func uniqueName(seen map[string]Outcome, name string) string {
	if _, ok := seen[name]; !ok {
		return name
	}
	for i := 2; ; i++ {
		c := fmt.Sprintf("%s (%d)", name, i)
		if _, ok := seen[c]; !ok {
			return c
		}
	}
}

// load reads and parses one source. The bytes are released once the table
// is built.
func load(src Source) (*parser.Table, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, &FileError{Name: src.Name(), Err: fmt.Errorf("open: %w", err)}
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &FileError{Name: src.Name(), Err: fmt.Errorf("read: %w", err)}
	}
	t, err := parser.ParseUpload(src.Name(), data)
	if err != nil {
		return nil, &FileError{Name: src.Name(), Err: err}
	}
	return t, nil
}
