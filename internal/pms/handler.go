package pms

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/harborpoint/roomcharge/internal/platform/httpx"
)

// Handler wires the PMS endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers PMS routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/rsv/v1/hotels/{hotelId}/reservations", h.lookupGuest)
	r.Post("/csh/v1/hotels/{hotelId}/reservations/{reservationId}/charges", h.postCharge)
	r.Get("/csh/v1/hotels/{hotelId}/reservations/{reservationId}/folios", h.getFolio)
	r.Post("/__seed/guest", h.seedGuest)
}

func (h *Handler) lookupGuest(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	surname := r.URL.Query().Get("surname")
	if roomID == "" || surname == "" {
		httpx.Error(w, http.StatusBadRequest, "roomId and surname query parameters required")
		return
	}

	reservation, err := h.service.Lookup(r.Context(), chi.URLParam(r, "hotelId"), roomID, surname)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reservation)
}

func (h *Handler) postCharge(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.service.PostCharge(r.Context(), chi.URLParam(r, "hotelId"), chi.URLParam(r, "reservationId"), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) getFolio(w http.ResponseWriter, r *http.Request) {
	q := FolioQuery{}
	if windowNo, err := strconv.Atoi(r.URL.Query().Get("folioWindowNo")); err == nil {
		q.WindowNo = windowNo
	}
	if raw := r.URL.Query().Get("fetchInstructions"); raw != "" {
		q.Instructions = strings.Split(raw, ",")
	}

	view, err := h.service.Folio(r.Context(), chi.URLParam(r, "hotelId"), chi.URLParam(r, "reservationId"), q)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) seedGuest(w http.ResponseWriter, r *http.Request) {
	var req SeedGuestRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Room == "" || req.LastName == "" {
		httpx.Error(w, http.StatusBadRequest, "room and lastName required")
		return
	}

	if err := h.service.Seed(r.Context(), req); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrGuestNotFound) {
		httpx.Error(w, http.StatusNotFound, ErrGuestNotFound.Error())
		return
	}
	h.logger.Error("pms request failed", slog.Any("error", err))
	httpx.JSON(w, http.StatusInternalServerError, httpx.ErrorBody{Error: "internal server error"})
}
