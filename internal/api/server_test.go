package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaramelBytes/csvtally/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	name    string
	content string
}

func multipartBody(t *testing.T, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(uploadField, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newTestServer(opt Options) *Server {
	return NewServer(analysis.NewPipeline(nil, analysis.Options{}), opt, nil)
}

func post(t *testing.T, s *Server, path string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, files...)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestAggregate_MergesFiles(t *testing.T) {
	s := newTestServer(Options{})
	rec := post(t, s, "/api/aggregate",
		upload{"a.csv", "商品名,数量\nA,2\n"},
		upload{"b.csv", "商品名,数量\nA,3\n"},
	)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":[{"商品名":"A","合計数量":5}]}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(runIDHeader))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestAggregate_VarietyWeights(t *testing.T) {
	s := newTestServer(Options{})
	rec := post(t, s, "/api/aggregate",
		upload{"rice.csv", "商品名,数量,分量\nつや姫 精米,2,5kg\n山形セット,1,各5kg 計10kg\n"},
	)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":[{"品種":"つや姫","合計重量(kg)":10}]}`, rec.Body.String())
}

func TestAggregate_NoFiles(t *testing.T) {
	s := newTestServer(Options{})
	for _, path := range []string{"/api/aggregate", "/api/unique"} {
		t.Run(path, func(t *testing.T) {
			rec := post(t, s, path)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"`+msgNoFiles+`"}`, rec.Body.String())
		})
	}
}

func TestAggregate_NotMultipart(t *testing.T) {
	s := newTestServer(Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/aggregate", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"`+msgNoFiles+`"}`, rec.Body.String())
}

func TestAggregate_EmptyFileInputIgnored(t *testing.T) {
	s := newTestServer(Options{})
	rec := post(t, s, "/api/aggregate", upload{"", ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"`+msgNoFiles+`"}`, rec.Body.String())
}

func TestAggregate_NoUsableData(t *testing.T) {
	s := newTestServer(Options{})
	rec := post(t, s, "/api/aggregate", upload{"x.csv", "品番,個数\n1,2\n"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"`+msgNoUsableData+`"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(runIDHeader))
}

func TestAggregate_UnreadableFileAborts(t *testing.T) {
	s := newTestServer(Options{})
	rec := post(t, s, "/api/aggregate",
		upload{"ok.csv", "商品名\nA\n"},
		upload{"bad.csv", "abc\x82"},
	)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"`+msgReadFailure+`"}`, rec.Body.String())
}

func TestAggregate_SkipUnreadable(t *testing.T) {
	s := NewServer(analysis.NewPipeline(nil, analysis.Options{SkipUnreadable: true}), Options{}, nil)
	rec := post(t, s, "/api/aggregate",
		upload{"ok.csv", "商品名\nA\nA\n"},
		upload{"bad.csv", "abc\x82"},
	)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":[{"商品名":"A","合計数量":2}]}`, rec.Body.String())
}

func TestUnique_PerFileCounts(t *testing.T) {
	s := newTestServer(Options{})
	rec := post(t, s, "/api/unique",
		upload{"shop.csv", "商品名,数量\nX,9\nY,1\nX,4\n"},
		upload{"other.csv", "品番\n1\n"},
	)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":{
		"shop.csv":{"X":2,"Y":1},
		"other.csv":"「商品名」列が見つかりません。"
	}}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(runIDHeader))
}

func TestUpload_TooLarge(t *testing.T) {
	s := newTestServer(Options{MaxUploadBytes: 1024})
	big := "商品名\n" + strings.Repeat("A\n", 2048)
	rec := post(t, s, "/api/aggregate", upload{"big.csv", big})

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"`+msgTooLarge+`"}`, rec.Body.String())
}

func TestUpload_RateLimited(t *testing.T) {
	s := newTestServer(Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	first := post(t, s, "/api/unique", upload{"a.csv", "商品名\nA\n"})
	require.Equal(t, http.StatusOK, first.Code)

	second := post(t, s, "/api/unique", upload{"a.csv", "商品名\nA\n"})
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"error":"`+msgRateLimited+`"}`, second.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(Options{RateLimitRPS: 0.001, RateLimitBurst: 1})
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}
}

func TestKeyedLimiter_SeparateKeys(t *testing.T) {
	l := newKeyedLimiter(0.001, 0)
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"))
}
