package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleStatusReturnsLatestRecord(t *testing.T) {
	hub := NewWSHub(log.New(io.Discard))
	h := NewHandlers(hub, log.New(io.Discard), nil, nil, t.TempDir())
	h.PublishRecord(Record{Speed: 3.5, Course: 90, SoundSpeed: 343})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "343")
}

func TestHandleCalibrateRequiresPost(t *testing.T) {
	hub := NewWSHub(log.New(io.Discard))
	h := NewHandlers(hub, log.New(io.Discard), nil, func() error { return nil }, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/calibrate", nil)
	rec := httptest.NewRecorder()
	h.HandleCalibrate(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleDumpsEmptyDirectory(t *testing.T) {
	hub := NewWSHub(log.New(io.Discard))
	h := NewHandlers(hub, log.New(io.Discard), nil, nil, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/dumps", nil)
	rec := httptest.NewRecorder()
	h.HandleDumps(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
