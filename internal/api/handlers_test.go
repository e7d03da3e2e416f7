package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pipetask-service/internal/catalog"
	"pipetask-service/internal/pipetask"
	"pipetask-service/internal/pipetask/variants"
	"pipetask-service/internal/worker"
)

func setupTestApp(t *testing.T) *route.Engine {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "api_test.db")
	gormDB, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, gormDB.AutoMigrate(&catalog.VariantTemplate{}))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	hlog.SetLevel(hlog.LevelFatal)

	registry := pipetask.NewRegistry()
	require.NoError(t, variants.Register(registry))
	store := catalog.NewStore(gormDB)
	_, err = store.Seed(context.Background(), registry.Descriptors())
	require.NoError(t, err)

	require.NoError(t, registry.Register(pipetask.Descriptor{
		TypeName:    "echo",
		VariantName: "slow",
		New:         func() pipetask.Variant { return variants.NewEchoVariant(time.Minute) },
	}))

	cache := catalog.NewCache(store)
	refresher, err := catalog.NewRefresher(cache, time.Hour)
	require.NoError(t, err)
	require.NoError(t, refresher.RefreshNow(context.Background()))

	runner := worker.NewRunner(registry, cache, 0)

	h := server.Default(
		server.WithHostPorts("127.0.0.1:0"),
		server.WithExitWaitTime(time.Duration(0)),
	)
	RegisterRoutes(h.Engine, NewHandler(runner, registry, store, refresher))
	return h.Engine
}

func jsonBody(t *testing.T, v any) *ut.Body {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return &ut.Body{Body: bytes.NewBuffer(raw), Len: len(raw)}
}

var jsonHeader = ut.Header{Key: "Content-Type", Value: "application/json"}

func TestPing(t *testing.T) {
	router := setupTestApp(t)
	w := ut.PerformRequest(router, http.MethodGet, "/ping", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"message":"pong"}`, string(resp.Body()))
}

func TestListVariants(t *testing.T) {
	router := setupTestApp(t)

	w := ut.PerformRequest(router, http.MethodGet, "/variants", nil)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())

	var views []VariantView
	require.NoError(t, json.Unmarshal(resp.Body(), &views))
	byKey := make(map[string]VariantView, len(views))
	for _, v := range views {
		byKey[pipetask.Key(v.TaskType, v.VariantName)] = v
	}
	require.Len(t, byKey, 4)
	assert.True(t, byKey["script/python"].Cataloged)
	assert.Contains(t, byKey["script/python"].ParamSchema, `"code"`)
	assert.False(t, byKey["echo/slow"].Cataloged)
}

func TestCreateRun(t *testing.T) {
	router := setupTestApp(t)

	t.Run("completed", func(t *testing.T) {
		body := jsonBody(t, map[string]any{
			"task_type":    "echo",
			"variant_name": "default",
			"input":        map[string]any{"params": map[string]any{"rows": 3}},
		})
		w := ut.PerformRequest(router, http.MethodPost, "/runs", body, jsonHeader)
		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode())

		var report worker.TaskRunReport
		require.NoError(t, json.Unmarshal(resp.Body(), &report))
		assert.Equal(t, worker.OutcomeCompleted, report.Outcome)
		require.Len(t, report.Outputs, 1)
		assert.True(t, report.Outputs[0].OK())
		assert.Equal(t, float64(3), report.Outputs[0].Fields["rows"])
		assert.Contains(t, string(resp.Body()), `"status":true`)
	})

	t.Run("gate closed", func(t *testing.T) {
		body := jsonBody(t, map[string]any{
			"task_type":    "gate",
			"variant_name": "all-succeeded",
			"input":        map[string]any{"last": []any{map[string]any{"status": true}, map[string]any{"status": false}}},
		})
		w := ut.PerformRequest(router, http.MethodPost, "/runs", body, jsonHeader)
		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Contains(t, string(resp.Body()), `"outputs":[]`)
		assert.Contains(t, string(resp.Body()), `"outcome":"FAILED"`)
	})

	t.Run("rejected", func(t *testing.T) {
		body := jsonBody(t, map[string]any{"task_type": "script", "variant_name": "python"})
		w := ut.PerformRequest(router, http.MethodPost, "/runs", body, jsonHeader)
		resp := w.Result()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
		assert.Contains(t, string(resp.Body()), `"outcome":"REJECTED"`)
	})

	t.Run("malformed", func(t *testing.T) {
		raw := []byte(`{"task_type":`)
		w := ut.PerformRequest(router, http.MethodPost, "/runs", &ut.Body{Body: bytes.NewBuffer(raw), Len: len(raw)}, jsonHeader)
		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
	})
}

func TestUpdateVariant(t *testing.T) {
	router := setupTestApp(t)

	body := jsonBody(t, UpdateVariantRequest{Description: "off for maintenance", Disabled: true})
	w := ut.PerformRequest(router, http.MethodPut, "/variants/echo/default", body, jsonHeader)
	require.Equal(t, http.StatusOK, w.Result().StatusCode())

	run := jsonBody(t, map[string]any{"task_type": "echo", "variant_name": "default"})
	w = ut.PerformRequest(router, http.MethodPost, "/runs", run, jsonHeader)
	resp := w.Result()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "task variant is disabled")

	bad := jsonBody(t, UpdateVariantRequest{ParamSchema: `{"type":`})
	w = ut.PerformRequest(router, http.MethodPut, "/variants/echo/default", bad, jsonHeader)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())

	w = ut.PerformRequest(router, http.MethodPut, "/variants/nope/none", jsonBody(t, UpdateVariantRequest{}), jsonHeader)
	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode())
}

func TestKillRun(t *testing.T) {
	router := setupTestApp(t)

	w := ut.PerformRequest(router, http.MethodPost, "/runs/ghost/kill", nil)
	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode())

	done := make(chan string, 1)
	go func() {
		body := jsonBody(t, map[string]any{"run_id": "slow-http", "task_type": "echo", "variant_name": "slow"})
		w := ut.PerformRequest(router, http.MethodPost, "/runs", body, jsonHeader)
		done <- string(w.Result().Body())
	}()

	assert.Eventually(t, func() bool {
		w := ut.PerformRequest(router, http.MethodGet, "/runs", nil)
		return strings.Contains(string(w.Result().Body()), "slow-http")
	}, 5*time.Second, 20*time.Millisecond)

	w = ut.PerformRequest(router, http.MethodPost, "/runs/slow-http/kill", nil)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"run_id":"slow-http","killed":true}`, string(resp.Body()))

	select {
	case body := <-done:
		assert.Contains(t, body, `"error":"echo task killed"`)
	case <-time.After(5 * time.Second):
		t.Fatal("killed run did not answer")
	}
}

func TestRefreshCatalog(t *testing.T) {
	router := setupTestApp(t)
	w := ut.PerformRequest(router, http.MethodPost, "/admin/catalog/refresh", nil)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"message":"Catalog refreshed","templates":3}`, string(resp.Body()))
}
