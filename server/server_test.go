package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recflow/recflow/catalog"
	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/eventlog"
	"github.com/recflow/recflow/recommend"
	"github.com/recflow/recflow/rules"
	"github.com/recflow/recflow/store"
	"github.com/recflow/recflow/vector"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := eventlog.NewKeyValueLog(store.NewMemoryStore())
	cat := catalog.NewMemoryCatalog(
		&core.Product{ID: "B08CF3D7QR", Name: "Boat Earphones Pro", SubCategory: "Earphones", Rating: 4.5, RatingCount: 900},
	)
	idx, err := vector.NewIndex(nil)
	require.NoError(t, err)
	engine := rules.NewEngine()
	miner := rules.NewMiner(log, engine, rules.MinerOptions{})
	orchestrator := recommend.NewOrchestrator(log, cat, idx, engine, recommend.Options{})
	return New(":0", orchestrator, miner, engine)
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router().ServeHTTP(w, req)
	return w
}

func TestLogInteractionReturnsNoContent(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/interactions",
		`{"user_id":"bob42","event_type":"click","product_id":"B08CF3D7QR"}`)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	// 写入后能从历史接口读回
	got := doRequest(s, http.MethodGet, "/interactions/bob42", "")
	assert.Equal(t, http.StatusOK, got.Code)
	assert.Contains(t, got.Body.String(), "B08CF3D7QR")
}

func TestLogInteractionRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/interactions", `{"user_id":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), core.ErrorCodeInvalidInput)
}

func TestLogInteractionRejectsInvalidEvent(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/interactions",
		`{"user_id":"bob42","event_type":"click","product_id":"not-an-id"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
