package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/KaramelBytes/csvtally/internal/analysis"
	"go.uber.org/zap"
)

const (
	uploadField = "csv_files"
	runIDHeader = "X-Run-ID"

	// multipartMemory is how much of a multipart body is held in memory;
	// larger parts spill to temp files.
	multipartMemory = 8 << 20
)

type uploadSource struct {
	fh *multipart.FileHeader
}

func (u uploadSource) Name() string                 { return u.fh.Filename }
func (u uploadSource) Open() (io.ReadCloser, error) { return u.fh.Open() }

// errTooLarge is returned by readUploads when the body exceeds the limit.
var errTooLarge = errors.New("upload too large")

// readUploads parses the multipart body and returns the uploaded files in
// the order they were sent. A body that is not multipart, or a field with
// only untouched file inputs, counts as no files. The returned cleanup removes
// any temp files and is never nil.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]analysis.Source, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, noop, errTooLarge
		}
		s.log.Debug("multipart parse failed", zap.Error(err))
		return nil, noop, analysis.ErrNoFiles
	}
	form := r.MultipartForm
	cleanup := func() {
		if err := form.RemoveAll(); err != nil {
			s.log.Warn("failed to remove multipart temp files", zap.Error(err))
		}
	}

	// An untouched file input arrives with an empty filename, which
	// multipart stores as a plain value, so it never shows up here.
	var sources []analysis.Source
	for _, fh := range form.File[uploadField] {
		sources = append(sources, uploadSource{fh: fh})
	}
	if len(sources) == 0 {
		return nil, cleanup, analysis.ErrNoFiles
	}
	return sources, cleanup, nil
}

func (s *Server) writeUploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooLarge) {
		writeErrorMessage(w, http.StatusRequestEntityTooLarge, msgTooLarge, s.log)
		return
	}
	writeError(w, err, s.log)
}

// handleAggregate merges every uploaded file into one grouped total.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	sources, cleanup, err := s.readUploads(w, r)
	defer cleanup()
	if err != nil {
		s.writeUploadError(w, err)
		return
	}

	rep, err := s.pipeline.Aggregate(r.Context(), sources)
	if rep != nil {
		w.Header().Set(runIDHeader, rep.RunID)
	}
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	writeResult(w, rep.Entries, s.log)
}

// handleUnique counts product names per uploaded file.
func (s *Server) handleUnique(w http.ResponseWriter, r *http.Request) {
	sources, cleanup, err := s.readUploads(w, r)
	defer cleanup()
	if err != nil {
		s.writeUploadError(w, err)
		return
	}

	rep, err := s.pipeline.Unique(r.Context(), sources)
	if rep != nil {
		w.Header().Set(runIDHeader, rep.RunID)
	}
	if err != nil {
		writeError(w, err, s.log)
		return
	}
	writeResult(w, rep.Files, s.log)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.log)
}
