package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spscricket/player-service/internal/domain"
)

// PlayerService is the set of use cases the player endpoints depend on.
type PlayerService interface {
	Now() time.Time
	ListAll(ctx context.Context) ([]domain.Player, error)
	GetByID(ctx context.Context, id int64) (*domain.Player, error)
	Create(ctx context.Context, req *domain.PlayerRequest) (*domain.Player, error)
	Update(ctx context.Context, id int64, req *domain.PlayerRequest) (*domain.Player, error)
	Delete(ctx context.Context, id int64) error
	ListByStatus(ctx context.Context, status domain.Status) ([]domain.Player, error)
	SearchByName(ctx context.Context, term string) ([]domain.Player, error)
	ListByAgeRange(ctx context.Context, minAge, maxAge int) ([]domain.Player, error)
	ListByBirthdayRange(ctx context.Context, start, end domain.Date) ([]domain.Player, error)
	ActiveCount(ctx context.Context) (int64, error)
	InactiveCount(ctx context.Context) (int64, error)
	TotalCount(ctx context.Context) (int64, error)
	ImageURL(ctx context.Context, id int64) (*domain.ImageLink, error)
}

// PlayerHandler handles the /api/players endpoints.
type PlayerHandler struct {
	svc PlayerService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(svc PlayerService) *PlayerHandler {
	return &PlayerHandler{svc: svc}
}

// Routes mounts every player endpoint on a fresh router.
func (h *PlayerHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/search", h.Search)
	r.Get("/age-range", h.ByAgeRange)
	r.Get("/birthday-range", h.ByBirthdayRange)
	r.Get("/status/{status}", h.ByStatus)
	r.Get("/count/active", h.ActiveCount)
	r.Get("/count/inactive", h.InactiveCount)
	r.Get("/count/total", h.TotalCount)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/image", h.Image)
	return r
}

// List handles GET /api/players.
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.svc.ListAll(r.Context())
	h.respondList(w, r, players, err, "Players retrieved successfully")
}

// Get handles GET /api/players/{id}.
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	player, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, "Player retrieved successfully", domain.ToResponse(player, h.svc.Now()))
}

// Create handles POST /api/players.
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodePlayerRequest(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	player, err := h.svc.Create(r.Context(), req)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, "Player created successfully", domain.ToResponse(player, h.svc.Now()))
}

// Update handles PUT /api/players/{id}.
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	req, err := decodePlayerRequest(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	player, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, "Player updated successfully", domain.ToResponse(player, h.svc.Now()))
}

// Delete handles DELETE /api/players/{id}.
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		RespondError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, "Player deleted successfully", nil)
}

// ByStatus handles GET /api/players/status/{status}. The status is case-insensitive.
func (h *PlayerHandler) ByStatus(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "status")
	status, err := domain.ParseStatus(raw)
	if err != nil {
		RespondError(w, r, domain.ErrValidation(fmt.Sprintf("Invalid status: %s. Must be one of ACTIVE, INACTIVE", raw)))
		return
	}
	players, err := h.svc.ListByStatus(r.Context(), status)
	h.respondList(w, r, players, err, "Players retrieved successfully")
}

// Search handles GET /api/players/search?name=. A missing name matches everyone.
func (h *PlayerHandler) Search(w http.ResponseWriter, r *http.Request) {
	players, err := h.svc.SearchByName(r.Context(), r.URL.Query().Get("name"))
	h.respondList(w, r, players, err, "Search completed successfully")
}

// ByAgeRange handles GET /api/players/age-range?minAge=&maxAge=.
func (h *PlayerHandler) ByAgeRange(w http.ResponseWriter, r *http.Request) {
	minAge, err := queryInt(r, "minAge")
	if err != nil {
		RespondError(w, r, err)
		return
	}
	maxAge, err := queryInt(r, "maxAge")
	if err != nil {
		RespondError(w, r, err)
		return
	}
	players, err := h.svc.ListByAgeRange(r.Context(), minAge, maxAge)
	h.respondList(w, r, players, err, "Players retrieved successfully")
}

// ByBirthdayRange handles GET /api/players/birthday-range?startDate=&endDate=.
func (h *PlayerHandler) ByBirthdayRange(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "startDate")
	if err != nil {
		RespondError(w, r, err)
		return
	}
	end, err := queryDate(r, "endDate")
	if err != nil {
		RespondError(w, r, err)
		return
	}
	players, err := h.svc.ListByBirthdayRange(r.Context(), start, end)
	h.respondList(w, r, players, err, "Players retrieved successfully")
}

func (h *PlayerHandler) ActiveCount(w http.ResponseWriter, r *http.Request) {
	h.respondCount(w, r, h.svc.ActiveCount, "Active players count retrieved")
}

func (h *PlayerHandler) InactiveCount(w http.ResponseWriter, r *http.Request) {
	h.respondCount(w, r, h.svc.InactiveCount, "Inactive players count retrieved")
}

func (h *PlayerHandler) TotalCount(w http.ResponseWriter, r *http.Request) {
	h.respondCount(w, r, h.svc.TotalCount, "Total players count retrieved")
}

// Image handles GET /api/players/{id}/image.
func (h *PlayerHandler) Image(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	link, err := h.svc.ImageURL(r.Context(), id)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, "Image URL generated successfully", link)
}

func (h *PlayerHandler) respondList(w http.ResponseWriter, r *http.Request, players []domain.Player, err error, message string) {
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, message, domain.ToResponses(players, h.svc.Now()))
}

func (h *PlayerHandler) respondCount(w http.ResponseWriter, r *http.Request, count func(context.Context) (int64, error), message string) {
	n, err := count(r.Context())
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, message, n)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.ErrValidation(fmt.Sprintf("Invalid player id: %s", raw))
	}
	return id, nil
}

func decodePlayerRequest(r *http.Request) (*domain.PlayerRequest, error) {
	var req *domain.PlayerRequest
	if err := DecodeJSON(r, &req); err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			return nil, domain.ErrValidationFields([]string{
				"birthday: Birthday must be a valid date in YYYY-MM-DD format",
			})
		}
		return nil, domain.ErrValidation("Malformed JSON request body")
	}
	return req, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, domain.ErrValidation(fmt.Sprintf("Missing required parameter: %s", name))
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrValidation(fmt.Sprintf("Invalid value for %s: %s", name, raw))
	}
	return n, nil
}

func queryDate(r *http.Request, name string) (domain.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return domain.Date{}, domain.ErrValidation(fmt.Sprintf("Missing required parameter: %s", name))
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, domain.ErrValidation(fmt.Sprintf("Invalid value for %s: %s (expected %s)", name, raw, domain.DateLayout))
	}
	return d, nil
}
