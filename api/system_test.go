package api

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"chatdesk/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMonitor struct {
	calls atomic.Int32
	err   error
}

func (f *fakeMonitor) Snapshot(context.Context) (*service.HealthSnapshot, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &service.HealthSnapshot{
		Status:    service.StatusHealthy,
		Timestamp: time.Now(),
		Requests:  service.RequestStats{Total: 4, Failed: 1, ErrorRate: 0.25, AvgLatencyMs: 120},
	}, nil
}

func TestSystemHandler_Health(t *testing.T) {
	router := gin.New()
	router.GET("/api/system/health", NewSystemHandler(&fakeMonitor{}).Health)

	w := doJSONReq(router, "GET", "/api/system/health", "")
	require.Equal(t, 200, w.Code)

	var snap service.HealthSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, service.StatusHealthy, snap.Status)
	assert.Equal(t, 0.25, snap.Requests.ErrorRate)
}

func TestSystemHandler_HealthFailure(t *testing.T) {
	router := gin.New()
	router.GET("/api/system/health", NewSystemHandler(&fakeMonitor{err: errors.New("db down")}).Health)

	w := doJSONReq(router, "GET", "/api/system/health", "")
	assert.Equal(t, 500, w.Code)
}
