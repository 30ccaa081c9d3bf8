package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/acircuit-ctrlV/badminton-koun/internal/app"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
)

// TallyDependencies defines the stateless operations used by the handlers.
type TallyDependencies interface {
	Tally(ctx context.Context, t model.Table, tariffs model.Tariffs) (service.Calculation, error)
	RenderTable(ctx context.Context, t model.Table, label string) (service.File, error)
}

// TallyHandler handles stateless /tally and /render requests.
type TallyHandler struct {
	deps     TallyDependencies
	maxBytes int64
}

// NewTallyHandler creates a new tally handler.
func NewTallyHandler(deps TallyDependencies, maxBytes int64) *TallyHandler {
	return &TallyHandler{deps: deps, maxBytes: maxBytes}
}

// tallyRequest mirrors the OpenAPI schema for POST /tally.
type tallyRequest struct {
	Table   model.Table    `json:"table"`
	Tariffs *model.Tariffs `json:"tariffs"`
}

// renderRequest mirrors the OpenAPI schema for POST /render.
type renderRequest struct {
	Table model.Table `json:"table"`
	Label string      `json:"label"`
}

// HandleTally handles POST /tally requests.
func (h *TallyHandler) HandleTally(w http.ResponseWriter, r *http.Request) {
	const op = "api.tally"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req tallyRequest
	if err := decodeJSON(w, r, h.maxBytes, &req, false); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if req.Tariffs == nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing tariffs")))
		return
	}
	calc, err := h.deps.Tally(r.Context(), req.Table, *req.Tariffs)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

// HandleRender handles POST /render requests.
func (h *TallyHandler) HandleRender(w http.ResponseWriter, r *http.Request) {
	const op = "api.render"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req renderRequest
	if err := decodeJSON(w, r, h.maxBytes, &req, false); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	f, err := h.deps.RenderTable(r.Context(), req.Table, req.Label)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeFile(w, f)
}
