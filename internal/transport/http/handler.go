// Package httptransport exposes the engines over an authenticated admin API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fiscaltask/internal/generation"
	"fiscaltask/internal/models"
	"fiscaltask/internal/reassignment"
	"fiscaltask/internal/risk"
	"fiscaltask/internal/settings"
	id "fiscaltask/pkg/domain"
	dErrors "fiscaltask/pkg/domain-errors"
	"fiscaltask/pkg/platform/httputil"
	"fiscaltask/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

type GenerationService interface {
	Generate(ctx context.Context, period string, taxpayerID *id.TaxpayerID) (*generation.Result, error)
	Summary(ctx context.Context, period string) (*generation.Summary, error)
}

type ReassignmentService interface {
	Reassign(ctx context.Context, collaboratorID id.UserID, substituteID *id.UserID) (*reassignment.Result, error)
	SweepActiveAbsences(ctx context.Context) (*reassignment.SweepResult, error)
}

type RiskService interface {
	Sweep(ctx context.Context) (*risk.SweepResult, error)
	ListAtRisk(ctx context.Context) ([]risk.AtRiskTask, error)
	CountByClient(ctx context.Context) ([]models.ClientRiskCount, error)
	Override(ctx context.Context, taskID id.TaskID, atRisk bool) error
}

type SettingsService interface {
	Risk(ctx context.Context) (settings.RiskConfig, error)
	AutoGeneration(ctx context.Context) (settings.AutoGenerationConfig, error)
	UpdateRisk(ctx context.Context, cfg settings.RiskConfig) (settings.RiskConfig, error)
	UpdateAutoGeneration(ctx context.Context, enabled bool, runDay int) (settings.AutoGenerationConfig, error)
}

// Handler serves the engine, risk, summary and settings endpoints. Routes
// expect RequireBearer to have set the actor upstream.
type Handler struct {
	generation   GenerationService
	reassignment ReassignmentService
	risk         RiskService
	settings     SettingsService
	logger       *slog.Logger
}

func New(gen GenerationService, reassign ReassignmentService, riskSvc RiskService, cfg SettingsService, logger *slog.Logger) *Handler {
	return &Handler{
		generation:   gen,
		reassignment: reassign,
		risk:         riskSvc,
		settings:     cfg,
		logger:       logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/engine/generate", h.handleGenerate)
	r.Post("/engine/reassign", h.handleReassign)
	r.Post("/engine/absences/sweep", h.handleAbsenceSweep)
	r.Post("/engine/risk/sweep", h.handleRiskSweep)

	r.Get("/risk/tasks", h.handleListAtRisk)
	r.Get("/risk/clients", h.handleCountByClient)
	r.Put("/risk/tasks/{taskID}", h.handleOverride)

	r.Get("/tasks/summary", h.handleSummary)

	r.Get("/settings/risk", h.handleGetRisk)
	r.Put("/settings/risk", h.handlePutRisk)
	r.Get("/settings/auto-generation", h.handleGetAutoGeneration)
	r.Put("/settings/auto-generation", h.handlePutAutoGeneration)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[GenerateRequest](w, r, h.logger)
	if !ok {
		return
	}
	taxpayerID, err := req.Parse()
	if err != nil {
		h.reject(ctx, w, "generate", err)
		return
	}

	result, err := h.generation.Generate(ctx, req.Period, taxpayerID)
	if err != nil {
		h.fail(ctx, w, "generate", err)
		return
	}
	httputil.WriteJSON(w, runStatus(result.Success), result)
}

func (h *Handler) handleReassign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[ReassignRequest](w, r, h.logger)
	if !ok {
		return
	}
	collaboratorID, substituteID, err := req.Parse()
	if err != nil {
		h.reject(ctx, w, "reassign", err)
		return
	}

	result, err := h.reassignment.Reassign(ctx, collaboratorID, substituteID)
	if err != nil {
		h.fail(ctx, w, "reassign", err)
		return
	}
	httputil.WriteJSON(w, runStatus(result.Success), result)
}

func (h *Handler) handleAbsenceSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.reassignment.SweepActiveAbsences(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "absence sweep", err)
		return
	}
	httputil.WriteJSON(w, runStatus(result.Success), result)
}

func (h *Handler) handleRiskSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.risk.Sweep(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "risk sweep", err)
		return
	}
	httputil.WriteJSON(w, runStatus(result.Success), result)
}

func (h *Handler) handleListAtRisk(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.risk.ListAtRisk(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "list at-risk tasks", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AtRiskTasksResponse{Tasks: tasks, Total: len(tasks)})
}

func (h *Handler) handleCountByClient(w http.ResponseWriter, r *http.Request) {
	counts, err := h.risk.CountByClient(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "count at-risk tasks", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClientCounts(counts))
}

func (h *Handler) handleOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID, err := id.ParseTaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		h.reject(ctx, w, "override", err)
		return
	}
	req, ok := httputil.DecodeJSON[OverrideRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		h.reject(ctx, w, "override", err)
		return
	}

	if err := h.risk.Override(ctx, taskID, *req.AtRisk); err != nil {
		h.fail(ctx, w, "override", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		h.reject(r.Context(), w, "summary", dErrors.New(dErrors.CodeBadRequest, "period is required"))
		return
	}
	summary, err := h.generation.Summary(r.Context(), period)
	if err != nil {
		h.fail(r.Context(), w, "summary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleGetRisk(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.Risk(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "get risk settings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handlePutRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[RiskSettingsRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		h.reject(ctx, w, "update risk settings", err)
		return
	}
	cfg, err := h.settings.UpdateRisk(ctx, settings.RiskConfig{ThresholdDays: *req.ThresholdDays, Enabled: *req.Enabled})
	if err != nil {
		h.fail(ctx, w, "update risk settings", err)
		return
	}
	h.audit(ctx, "risk settings updated", "threshold_days", cfg.ThresholdDays, "enabled", cfg.Enabled)
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleGetAutoGeneration(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.AutoGeneration(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "get auto-generation settings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handlePutAutoGeneration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[AutoGenerationRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		h.reject(ctx, w, "update auto-generation settings", err)
		return
	}
	cfg, err := h.settings.UpdateAutoGeneration(ctx, *req.Enabled, *req.RunDay)
	if err != nil {
		h.fail(ctx, w, "update auto-generation settings", err)
		return
	}
	h.audit(ctx, "auto-generation settings updated", "enabled", cfg.Enabled, "run_day", cfg.RunDay)
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

// runStatus maps an engine result to 200, or 207 when anything failed.
func runStatus(success bool) int {
	if success {
		return http.StatusOK
	}
	return http.StatusMultiStatus
}

func (h *Handler) reject(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.WarnContext(ctx, "invalid "+op+" request",
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
	httputil.WriteError(w, err)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, op+" rejected",
			"request_id", requestcontext.RequestID(ctx),
			"code", string(code),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) audit(ctx context.Context, msg string, args ...any) {
	attrs := append([]any{
		"log_type", "audit",
		"actor_id", requestcontext.ActorID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
	}, args...)
	h.logger.InfoContext(ctx, msg, attrs...)
}
