package policy

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sudoersllc/opsbox-rego/pkg/adapters"
	"github.com/sudoersllc/opsbox-rego/pkg/models/api"
	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
)

type Handler struct {
	engine   *policy.Engine
	registry *policy.Registry
}

func NewHandler(engine *policy.Engine, registry *policy.Registry) *Handler {
	return &Handler{
		engine:   engine,
		registry: registry,
	}
}

func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	policies := h.registry.Policies()
	response := make([]api.Policy, 0, len(policies))
	for _, p := range policies {
		response = append(response, adapters.MapDomainPolicyToAPI(p))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode policies")
	}
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	policyName := chi.URLParam(r, "policy")

	var request api.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	snapshot := adapters.MapAPISnapshotToDomain(request.Snapshot)
	report, err := h.engine.Evaluate(snapshot, policyName, request.Overrides)
	if err != nil {
		var nfErr *policy.NotFoundError
		var confErr *policy.ConfigurationError
		switch {
		case errors.As(err, &nfErr):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.As(err, &confErr):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			logger.Error().
				Err(err).
				Str("policy", policyName).
				Msg("evaluation failed")
			http.Error(w, "evaluation failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(adapters.MapDomainReportToAPI(report)); err != nil {
		logger.Error().
			Err(err).
			Str("policy", policyName).
			Msg("failed to encode report")
	}
}
