package check

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/harborpoint/roomcharge/internal/folio"
	"github.com/harborpoint/roomcharge/internal/platform/httpx"
)

// POS workstation headers required on every check endpoint.
const (
	HeaderLocRef       = "Simphony-LocRef"
	HeaderOrgShortName = "Simphony-OrgShortName"
	HeaderRvcRef       = "Simphony-RvcRef"
)

// Handler wires the check endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers check routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/checks", func(r chi.Router) {
		r.Use(h.requirePOSHeaders)
		r.Post("/", h.createCheck)
		r.Get("/", h.listChecks)
		r.Get("/{checkId}", h.getCheck)
		r.Post("/{checkId}/items", h.appendItems)
		r.Post("/{checkId}/tenders", h.tenderCheck)
	})
}

// requirePOSHeaders validates the workstation headers. The revenue-center
// reference must parse as an integer.
func (h *Handler) requirePOSHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var missing []string
		for _, header := range []string{HeaderLocRef, HeaderOrgShortName, HeaderRvcRef} {
			if r.Header.Get(header) == "" {
				missing = append(missing, header)
			}
		}
		if len(missing) > 0 {
			httpx.JSON(w, http.StatusBadRequest, httpx.ErrorBody{
				Error:   "Bad Request",
				Message: fmt.Sprintf("Missing required headers: %s", strings.Join(missing, ", ")),
				Code:    "MISSING_HEADERS",
			})
			return
		}
		if _, err := strconv.Atoi(r.Header.Get(HeaderRvcRef)); err != nil {
			httpx.JSON(w, http.StatusBadRequest, httpx.ErrorBody{
				Error:   "Bad Request",
				Message: "Simphony-RvcRef must be an integer",
				Code:    "INVALID_RVCREF",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func posFromRequest(r *http.Request) POSContext {
	rvcRef, _ := strconv.Atoi(r.Header.Get(HeaderRvcRef))
	return POSContext{
		OrgShortName: r.Header.Get(HeaderOrgShortName),
		LocRef:       r.Header.Get(HeaderLocRef),
		RvcRef:       rvcRef,
	}
}

func (h *Handler) createCheck(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), posFromRequest(r), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listChecks(w http.ResponseWriter, r *http.Request) {
	checks, err := h.service.List(r.Context(), ParseListFilter(r.URL.Query()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, checks)
}

func (h *Handler) getCheck(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "checkId"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) appendItems(w http.ResponseWriter, r *http.Request) {
	var req AppendItemsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.AppendItems(r.Context(), chi.URLParam(r, "checkId"), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) tenderCheck(w http.ResponseWriter, r *http.Request) {
	var req TenderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	receipt, err := h.service.Tender(r.Context(), chi.URLParam(r, "checkId"), posFromRequest(r), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, receipt)
}

// respondError maps domain and settlement errors to their HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrAlreadyClosed):
		httpx.Error(w, http.StatusConflict, ErrAlreadyClosed.Error())
	case errors.Is(err, ErrGuestNotFound):
		httpx.Error(w, http.StatusConflict, ErrGuestNotFound.Error())
	case errors.Is(err, ErrInvalidTender):
		httpx.Error(w, http.StatusBadRequest, ErrInvalidTender.Error())
	default:
		var postErr *folio.PostingError
		if errors.As(err, &postErr) {
			httpx.JSON(w, http.StatusBadGateway, httpx.ErrorBody{
				Error:   "folio posting failed",
				Details: postErr.Details(),
			})
			return
		}
		h.logger.Error("check request failed", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, httpx.ErrorBody{
			Error:   "tender processing error",
			Details: err.Error(),
		})
	}
}
