package checkflow

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/platform/httpx"
)

// Handler exposes the check capture flow over HTTP.
type Handler struct {
	logger   *slog.Logger
	registry *Registry
	validate *validator.Validate
}

// NewHandler constructs the checkflow handler.
func NewHandler(logger *slog.Logger, registry *Registry) *Handler {
	return &Handler{logger: logger, registry: registry, validate: validator.New()}
}

// MountRoutes registers checkflow routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.begin)
	r.Get("/{id}", h.state)
	r.Post("/{id}/details", h.confirm)
	r.Post("/{id}/cancel", h.cancel)
}

type beginRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type flowResponse struct {
	ID    string `json:"id"`
	State State  `json:"state"`
}

type detailsRequest struct {
	Date        string `json:"date"`
	BankName    string `json:"bankName" validate:"required"`
	CheckNumber string `json:"checkNumber" validate:"required"`
	Payee       string `json:"payee" validate:"required"`
	Currency    string `json:"currency" validate:"required"`
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	id, err := h.registry.Begin(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, flowResponse{ID: id, State: StateAwaitingDetails})
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := h.registry.State(id)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, flowResponse{ID: id, State: state})
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req detailsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := DetailsInput{
		BankName:    req.BankName,
		CheckNumber: req.CheckNumber,
		Payee:       req.Payee,
		Currency:    req.Currency,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be yyyy-mm-dd")
			return
		}
		input.Date = date
	}
	if _, err := h.registry.Confirm(r.Context(), id, input); err != nil {
		switch {
		case errors.Is(err, ErrFlowNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrIncompleteDetails):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("confirm check flow", slog.Any("error", err), slog.String("flow_id", id))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, flowResponse{ID: id, State: StateConfirmed})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.Cancel(id); err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
