package masterdata

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradedesk/tradedesk/internal/platform/httpx"
	"github.com/tradedesk/tradedesk/internal/shared"
)

// Handler exposes one record type under a path prefix.
type Handler[T Record, I Input[T]] struct {
	logger  *slog.Logger
	service *Service[T, I]
	kind    Kind[T]
	path    string
}

// NewHandler constructs a handler serving kind under path, e.g. "/customers".
func NewHandler[T Record, I Input[T]](logger *slog.Logger, service *Service[T, I], kind Kind[T], path string) *Handler[T, I] {
	return &Handler[T, I]{logger: logger, service: service, kind: kind, path: path}
}

// MountRoutes registers the list-CRUD routes.
func (h *Handler[T, I]) MountRoutes(r chi.Router) {
	r.Route(h.path, func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler[T, I]) list(w http.ResponseWriter, r *http.Request) {
	q, err := h.kind.ParseQuery(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	records, total, err := h.service.List(r.Context(), q)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	perPage := q.Page.PerPage
	if perPage == 0 {
		perPage = max(total, 1)
	}
	httpx.Page(w, records, shared.NewPagination(q.Page.Page, perPage, total))
}

func (h *Handler[T, I]) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.id(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, rec)
}

func (h *Handler[T, I]) create(w http.ResponseWriter, r *http.Request) {
	var in I
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	rec, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, rec)
}

func (h *Handler[T, I]) update(w http.ResponseWriter, r *http.Request) {
	id, err := h.id(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in I
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	rec, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, rec)
}

func (h *Handler[T, I]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.id(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true})
}

func (h *Handler[T, I]) id(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s not found", shared.ErrNotFound, h.kind.Name)
	}
	return id, nil
}
