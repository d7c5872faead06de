package ws_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/glowsync/internal/colorspace"
	"github.com/coreman2200/glowsync/internal/engine"
	"github.com/coreman2200/glowsync/internal/ws"
)

func TestHealthEndpoint(t *testing.T) {
	status := func() engine.Status {
		return engine.Status{
			Colors:     []colorspace.Color{{R: 1}, {G: 2}, {B: 3}},
			FrameCount: 42,
			LastUpdate: time.Now(),
		}
	}
	srv := ws.NewServer(status, zerolog.Nop())
	mux := http.NewServeMux()
	srv.Routes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 42, resp["frame_count"])
	assert.EqualValues(t, 3, resp["zones"])
	assert.Contains(t, resp, "last_update")
}

func TestHealthBeforeFirstSession(t *testing.T) {
	srv := ws.NewServer(func() engine.Status { return engine.Status{} }, zerolog.Nop())
	mux := http.NewServeMux()
	srv.Routes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 0, resp["zones"])
	assert.NotContains(t, resp, "last_update")
}
