package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/KaramelBytes/csvtally/internal/analysis"
	"go.uber.org/zap"
)

// User-facing error messages.
const (
	msgNoFiles      = "ファイルがアップロードされていません。"
	msgNoUsableData = "処理できるデータがありませんでした。"
	msgReadFailure  = "ファイルの読み込みに失敗しました。"
	msgTooLarge     = "アップロードされたファイルが大きすぎます。"
	msgRateLimited  = "リクエストが多すぎます。しばらくしてから再度お試しください。"
)

type resultBody struct {
	Result any `json:"result"`
}

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any, log *zap.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && log != nil {
		log.Error("failed to encode JSON response", zap.Error(err))
	}
}

func writeResult(w http.ResponseWriter, result any, log *zap.Logger) {
	writeJSON(w, http.StatusOK, resultBody{Result: result}, log)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string, log *zap.Logger) {
	writeJSON(w, status, errorBody{Error: msg}, log)
}

// writeError maps pipeline errors to status codes and messages.
func writeError(w http.ResponseWriter, err error, log *zap.Logger) {
	var fe *analysis.FileError
	switch {
	case errors.Is(err, analysis.ErrNoFiles):
		writeErrorMessage(w, http.StatusBadRequest, msgNoFiles, log)
	case errors.Is(err, analysis.ErrNoUsableData):
		writeErrorMessage(w, http.StatusBadRequest, msgNoUsableData, log)
	case errors.As(err, &fe):
		writeErrorMessage(w, http.StatusInternalServerError, msgReadFailure, log)
	default:
		if log != nil {
			log.Error("unhandled error", zap.Error(err))
		}
		writeErrorMessage(w, http.StatusInternalServerError, msgReadFailure, log)
	}
}
