package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/sheet"
	service "github.com/acircuit-ctrlV/badminton-koun/internal/app"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/types"
	"github.com/go-chi/chi/v5"
)

// uploadField is the multipart field carrying an imported sheet.
const uploadField = "file"

// SessionDependencies defines the session operations used by the handlers.
type SessionDependencies interface {
	CreateSession(ctx context.Context, in service.NewSession) (model.Session, error)
	Session(ctx context.Context, id string) (model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	ReplaceTable(ctx context.Context, id string, t model.Table) (model.Session, error)
	SetTariffs(ctx context.Context, id string, t model.Tariffs) (model.Session, error)
	SetLabel(ctx context.Context, id, label string) (model.Session, error)
	SetUsage(ctx context.Context, id string, row, game, value int) (model.Session, error)
	Calculate(ctx context.Context, id string) (service.Calculation, error)
	Image(ctx context.Context, id string) (service.File, error)
	Export(ctx context.Context, id string, format sheet.Format) (service.File, error)
	Import(ctx context.Context, id, name string, r io.Reader) (model.Session, error)
	Stats(ctx context.Context, id string) (types.UsageStats, error)
}

// SessionHandler handles /sessions requests.
type SessionHandler struct {
	deps     SessionDependencies
	maxBytes int64
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies, maxBytes int64) *SessionHandler {
	return &SessionHandler{deps: deps, maxBytes: maxBytes}
}

// Routes registers the session routes on r.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Post("/sessions", MetricsMiddleware(h.HandleCreate, "sessions"))
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(h.HandleGet, "session"))
		r.Delete("/", MetricsMiddleware(h.HandleDelete, "session"))
		r.Put("/table", MetricsMiddleware(h.HandleReplaceTable, "session_table"))
		r.Put("/tariffs", MetricsMiddleware(h.HandleSetTariffs, "session_tariffs"))
		r.Put("/label", MetricsMiddleware(h.HandleSetLabel, "session_label"))
		r.Put("/usage", MetricsMiddleware(h.HandleSetUsage, "session_usage"))
		r.Post("/calculate", MetricsMiddleware(h.HandleCalculate, "session_calculate"))
		r.Get("/image", MetricsMiddleware(h.HandleImage, "session_image"))
		r.Get("/export", MetricsMiddleware(h.HandleExport, "session_export"))
		r.Post("/import", MetricsMiddleware(h.HandleImport, "session_import"))
		r.Get("/stats", MetricsMiddleware(h.HandleStats, "session_stats"))
	})
}

type labelRequest struct {
	Label string `json:"label"`
}

type usageRequest struct {
	Row   *int `json:"row"`
	Game  *int `json:"game"`
	Value *int `json:"value"`
}

func (u usageRequest) validate() error {
	switch {
	case u.Row == nil:
		return errors.New("missing row")
	case u.Game == nil:
		return errors.New("missing game")
	case u.Value == nil:
		return errors.New("missing value")
	}
	return nil
}

// HandleCreate handles POST /sessions requests.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req service.NewSession
	if err := decodeJSON(w, r, h.maxBytes, &req, true); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	sess, err := h.deps.CreateSession(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sess)
}

// HandleGet handles GET /sessions/{id} requests.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	sess, err := h.deps.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// HandleDelete handles DELETE /sessions/{id} requests.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := h.deps.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReplaceTable handles PUT /sessions/{id}/table requests.
func (h *SessionHandler) HandleReplaceTable(w http.ResponseWriter, r *http.Request) {
	const op = "api.replace_table"
	var t model.Table
	if err := decodeJSON(w, r, h.maxBytes, &t, false); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	h.respond(w, op)(h.deps.ReplaceTable(r.Context(), chi.URLParam(r, "id"), t))
}

// HandleSetTariffs handles PUT /sessions/{id}/tariffs requests.
func (h *SessionHandler) HandleSetTariffs(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_tariffs"
	var t model.Tariffs
	if err := decodeJSON(w, r, h.maxBytes, &t, false); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	h.respond(w, op)(h.deps.SetTariffs(r.Context(), chi.URLParam(r, "id"), t))
}

// HandleSetLabel handles PUT /sessions/{id}/label requests.
func (h *SessionHandler) HandleSetLabel(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_label"
	var req labelRequest
	if err := decodeJSON(w, r, h.maxBytes, &req, false); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	h.respond(w, op)(h.deps.SetLabel(r.Context(), chi.URLParam(r, "id"), req.Label))
}

// HandleSetUsage handles PUT /sessions/{id}/usage requests.
func (h *SessionHandler) HandleSetUsage(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_usage"
	var req usageRequest
	if err := decodeJSON(w, r, h.maxBytes, &req, false); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	h.respond(w, op)(h.deps.SetUsage(r.Context(), chi.URLParam(r, "id"), *req.Row, *req.Game, *req.Value))
}

// HandleCalculate handles POST /sessions/{id}/calculate requests.
func (h *SessionHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "api.calculate"
	calc, err := h.deps.Calculate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

// HandleImage handles GET /sessions/{id}/image requests.
func (h *SessionHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_image"
	f, err := h.deps.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeFile(w, f)
}

// HandleExport handles GET /sessions/{id}/export?format=xlsx|csv requests.
func (h *SessionHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_export"
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(sheet.FormatXLSX)
	}
	format, err := sheet.ParseFormat(name)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	f, err := h.deps.Export(r.Context(), chi.URLParam(r, "id"), format)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeFile(w, f)
}

// HandleImport handles multipart POST /sessions/{id}/import requests.
func (h *SessionHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_import"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, NewKind(op, ErrTooLarge))
			return
		}
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = file.Close() }()

	h.respond(w, op)(h.deps.Import(r.Context(), chi.URLParam(r, "id"), header.Filename, file))
}

// HandleStats handles GET /sessions/{id}/stats requests.
func (h *SessionHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_stats"
	st, err := h.deps.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// respond writes the session returned by an update, or the error.
func (h *SessionHandler) respond(w http.ResponseWriter, op string) func(model.Session, error) {
	return func(sess model.Session, err error) {
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}
