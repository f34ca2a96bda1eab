package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/httpapi"
	"github.com/feathr-ai/feathr-online/metrics"
	"github.com/feathr-ai/feathr-online/pipeline"
)

func buildServer(t *testing.T, script string) *httpapi.Server {
	t.Helper()
	reg := eval.NewRegistry(nil)
	cat, err := pipeline.Build(script, nil, reg)
	require.NoError(t, err)
	ex := pipeline.NewExecutor(cat, reg)
	return httpapi.NewServer(ex, metrics.NewRegistry(), nil, nil)
}

func TestHandleProcess_OK(t *testing.T) {
	srv := buildServer(t, `t(x as int) | project y = x * 2;`)
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(
		`{"requests":[{"pipeline":"t","data":{"x":21}}]}`))
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"y":42`)
	assert.Contains(t, w.Body.String(), `"status":"OK"`)
}

func TestHandleProcess_UnknownPipeline(t *testing.T) {
	srv := buildServer(t, `t(x as int) | project y = x;`)
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(
		`{"requests":[{"pipeline":"nope","data":{}}]}`))
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ERROR"`)
}

func TestHandleProcess_MalformedBody(t *testing.T) {
	srv := buildServer(t, `t(x as int) | project y = x;`)
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(`not json`))
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHealthz(t *testing.T) {
	srv := buildServer(t, `t(x as int) | project y = x;`)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestHandleMetrics(t *testing.T) {
	srv := buildServer(t, `t(x as int) | project y = x;`)
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(
		`{"requests":[{"pipeline":"t","data":{"x":1}}]}`))
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	mReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, mReq)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "requests_total 1")
}
