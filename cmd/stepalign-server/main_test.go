package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-lang/stepalign-go/internal/config"
	"github.com/aria-lang/stepalign-go/internal/logging"
	"github.com/aria-lang/stepalign-go/internal/store"
)

func TestRouter(t *testing.T) {
	cfg := config.Default()
	router, err := newRouter(cfg, newStore(cfg.Limits, logging.Discard()), logging.Discard())
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/align", "application/json",
		strings.NewReader(`{"sequence1":"AATAAT","sequence2":"AAGG"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	long := strings.Repeat("A", 1001)
	resp, err = http.Post(srv.URL+"/api/align", "application/json",
		strings.NewReader(`{"sequence1":"`+long+`","sequence2":"`+long+`"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewStoreLimits(t *testing.T) {
	cfg := config.Default()
	cfg.Limits.MaxSessions = 1
	sessions := newStore(cfg.Limits, logging.Discard())

	_, err := sessions.Create(nil, nil, nil)
	require.NoError(t, err)
	_, err = sessions.Create(nil, nil, nil)
	assert.ErrorIs(t, err, store.ErrStoreFull)
}

func TestRouterBadScoring(t *testing.T) {
	cfg := config.Default()
	cfg.Scoring.Substitution = "1 2"

	_, err := newRouter(cfg, newStore(cfg.Limits, logging.Discard()), logging.Discard())
	assert.Error(t, err)
}
