// Package api exposes the worker's admin surface over hertz.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"pipetask-service/internal/catalog"
	"pipetask-service/internal/pipetask"
	"pipetask-service/internal/worker"
	"pipetask-service/pkg/validation"
)

type Handler struct {
	Runner    *worker.Runner
	Registry  *pipetask.Registry
	Store     *catalog.Store
	Refresher *catalog.Refresher
}

func NewHandler(runner *worker.Runner, registry *pipetask.Registry, store *catalog.Store, refresher *catalog.Refresher) *Handler {
	return &Handler{Runner: runner, Registry: registry, Store: store, Refresher: refresher}
}

// VariantView is a registered variant as the runner currently sees it.
type VariantView struct {
	TaskType    string `json:"task_type"`
	VariantName string `json:"variant_name"`
	Description string `json:"description,omitempty"`
	ParamSchema string `json:"param_schema,omitempty"`
	Parallel    bool   `json:"parallel"`
	Disabled    bool   `json:"disabled"`
	Cataloged   bool   `json:"cataloged"`
}

type UpdateVariantRequest struct {
	Description string `json:"description"`
	ParamSchema string `json:"param_schema"`
	Parallel    bool   `json:"parallel"`
	Disabled    bool   `json:"disabled"`
}

// writeJSON goes through encoding/json so Output records keep their flat
// wire shape.
func writeJSON(c *app.RequestContext, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.H{"error": "Failed to encode response: " + err.Error()})
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}

func (h *Handler) Ping(ctx context.Context, c *app.RequestContext) {
	c.JSON(http.StatusOK, utils.H{"message": "pong"})
}

func (h *Handler) ListVariants(ctx context.Context, c *app.RequestContext) {
	descriptors := h.Registry.Descriptors()
	views := make([]VariantView, 0, len(descriptors))
	for _, d := range descriptors {
		view := VariantView{
			TaskType:    d.TypeName,
			VariantName: d.VariantName,
			ParamSchema: d.ParamSchema,
			Parallel:    d.Parallel,
		}
		if tmpl, ok := h.Refresher.Cache.Template(d.TypeName, d.VariantName); ok {
			view.Cataloged = true
			view.Description = tmpl.Description
			view.Parallel = tmpl.Parallel
			view.Disabled = tmpl.Disabled
			if tmpl.ParamSchema != "" {
				view.ParamSchema = tmpl.ParamSchema
			}
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) UpdateVariant(ctx context.Context, c *app.RequestContext) {
	taskType, variantName := c.Param("type"), c.Param("variant")
	if _, err := h.Registry.Lookup(taskType, variantName); err != nil {
		c.JSON(http.StatusNotFound, utils.H{"error": err.Error()})
		return
	}

	var req UpdateVariantRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		hlog.CtxWarnf(ctx, "UpdateVariant: decode failed: %v", err)
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if err := validation.CompileSchema(req.ParamSchema); err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid param_schema: " + err.Error()})
		return
	}

	tmpl := catalog.VariantTemplate{
		TaskType:    taskType,
		VariantName: variantName,
		Description: req.Description,
		ParamSchema: req.ParamSchema,
		Parallel:    req.Parallel,
		Disabled:    req.Disabled,
	}
	if err := h.Store.Upsert(ctx, &tmpl); err != nil {
		c.JSON(http.StatusInternalServerError, utils.H{"error": "Failed to save variant template: " + err.Error()})
		return
	}
	if err := h.Refresher.RefreshNow(ctx); err != nil {
		hlog.CtxErrorf(ctx, "UpdateVariant: saved %s but catalog refresh failed: %v", tmpl.Key(), err)
	}
	c.JSON(http.StatusOK, tmpl)
}

// CreateRun executes a variant synchronously and answers with its report.
func (h *Handler) CreateRun(ctx context.Context, c *app.RequestContext) {
	var req worker.TaskRunRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		hlog.CtxWarnf(ctx, "CreateRun: decode failed: %v", err)
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	report := h.Runner.Run(ctx, req)
	status := http.StatusOK
	if report.Outcome == worker.OutcomeRejected {
		status = http.StatusBadRequest
	}
	writeJSON(c, status, report)
}

func (h *Handler) ListRuns(ctx context.Context, c *app.RequestContext) {
	c.JSON(http.StatusOK, utils.H{"in_flight": h.Runner.InFlight()})
}

func (h *Handler) KillRun(ctx context.Context, c *app.RequestContext) {
	runID := c.Param("id")
	killed, err := h.Runner.Kill(runID)
	if errors.Is(err, worker.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, utils.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, utils.H{"run_id": runID, "killed": killed})
}

func (h *Handler) RefreshCatalog(ctx context.Context, c *app.RequestContext) {
	if err := h.Refresher.RefreshNow(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, utils.H{"error": "Catalog refresh failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, utils.H{
		"message":   "Catalog refreshed",
		"templates": len(h.Refresher.Cache.Templates()),
	})
}
