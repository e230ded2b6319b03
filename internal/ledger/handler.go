package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/masterdata"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/platform/httpx"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
)

// CheckFlowPort hands confirmed check details to transaction creation
// and payment recording.
type CheckFlowPort interface {
	Take(id string) (*CheckDetails, error)
}

// Handler wires HTTP endpoints for the balance ledger.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	checkFlows CheckFlowPort
	validate   *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service, checkFlows CheckFlowPort) *Handler {
	return &Handler{logger: logger, service: service, checkFlows: checkFlows, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/outstanding", h.listOutstanding)
	r.Post("/", h.create)
	r.Post("/payment-only", h.createPaymentOnly)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/payments", h.recordPayment)
}

type lineItemRequest struct {
	ProductID   string  `json:"productId" validate:"required"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"gte=0"`
}

type createTransactionRequest struct {
	Kind           string            `json:"kind" validate:"required,oneof=sale purchase"`
	Date           string            `json:"date"`
	CounterpartyID string            `json:"counterpartyId" validate:"required"`
	LineItems      []lineItemRequest `json:"lineItems" validate:"required,min=1,dive"`
	InitialPayment float64           `json:"initialPayment" validate:"gte=0"`
	Method         string            `json:"paymentMethod"`
	CheckFlowID    string            `json:"checkFlowId"`
}

type recordPaymentRequest struct {
	Amount             float64 `json:"amount" validate:"required,gt=0"`
	Method             string  `json:"paymentMethod"`
	Reference          string  `json:"reference"`
	ConfirmOverpayment bool    `json:"confirmOverpayment"`
	CheckFlowID        string  `json:"checkFlowId"`
}

type paymentOnlyRequest struct {
	Kind           string  `json:"kind" validate:"required,oneof=sale purchase"`
	Date           string  `json:"date"`
	CounterpartyID string  `json:"counterpartyId" validate:"required"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Method         string  `json:"paymentMethod"`
	PaymentType    string  `json:"paymentType" validate:"required,oneof=account_payment advance_payment deposit"`
	Reference      string  `json:"reference"`
	CheckFlowID    string  `json:"checkFlowId"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, ok := h.parseDate(w, req.Date)
	if !ok {
		return
	}
	details, ok := h.takeCheckDetails(w, PaymentMethod(req.Method), req.CheckFlowID)
	if !ok {
		return
	}
	items := make([]LineItem, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		items = append(items, LineItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	tx, err := h.service.CreateTransaction(r.Context(), CreateTransactionInput{
		Kind:           TransactionKind(req.Kind),
		Date:           date,
		CounterpartyID: req.CounterpartyID,
		LineItems:      items,
		InitialPayment: req.InitialPayment,
		Method:         PaymentMethod(req.Method),
		CheckDetails:   details,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tx)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req recordPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	details, ok := h.takeCheckDetails(w, PaymentMethod(req.Method), req.CheckFlowID)
	if !ok {
		return
	}
	result, err := h.service.RecordPayment(r.Context(), RecordPaymentInput{
		TransactionID:      id,
		Amount:             req.Amount,
		Method:             PaymentMethod(req.Method),
		CheckDetails:       details,
		Reference:          req.Reference,
		ConfirmOverpayment: req.ConfirmOverpayment,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"transaction": result.Transaction,
		"overpaid":    result.Overpaid,
	})
}

func (h *Handler) createPaymentOnly(w http.ResponseWriter, r *http.Request) {
	var req paymentOnlyRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, ok := h.parseDate(w, req.Date)
	if !ok {
		return
	}
	details, ok := h.takeCheckDetails(w, PaymentMethod(req.Method), req.CheckFlowID)
	if !ok {
		return
	}
	tx, err := h.service.CreatePaymentOnly(r.Context(), PaymentOnlyInput{
		Kind:           TransactionKind(req.Kind),
		Date:           date,
		CounterpartyID: req.CounterpartyID,
		Amount:         req.Amount,
		Method:         PaymentMethod(req.Method),
		PaymentType:    PaymentType(req.PaymentType),
		CheckDetails:   details,
		Reference:      req.Reference,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tx)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind := TransactionKind(r.URL.Query().Get("kind"))
	txs, err := h.service.ListTransactions(r.Context(), kind)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txs)
}

func (h *Handler) listOutstanding(w http.ResponseWriter, r *http.Request) {
	kind := TransactionKind(r.URL.Query().Get("kind"))
	search := r.URL.Query().Get("q")
	txs, err := h.service.ListOutstanding(r.Context(), kind, search)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.service.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tx)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) parseDate(w http.ResponseWriter, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be yyyy-mm-dd")
		return time.Time{}, false
	}
	return date, true
}

// takeCheckDetails resolves confirmed details for check payments. The flow
// must already be confirmed; its absence is a validation error, never a
// silent fallback to cash.
func (h *Handler) takeCheckDetails(w http.ResponseWriter, method PaymentMethod, flowID string) (*CheckDetails, bool) {
	if method != MethodCheck {
		return nil, true
	}
	if flowID == "" || h.checkFlows == nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", ErrCheckDetailsRequired.Error())
		return nil, false
	}
	details, err := h.checkFlows.Take(flowID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return nil, false
	}
	return details, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOverpaymentUnconfirmed):
		httpx.ProblemTyped(w, http.StatusConflict, "overpayment-unconfirmed", "Overpayment Requires Confirmation", err.Error())
	case errors.Is(err, ErrVersionConflict):
		httpx.ProblemTyped(w, http.StatusConflict, "version-conflict", "Conflict", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.ProblemTyped(w, http.StatusConflict, "duplicate-reference", "Duplicate", err.Error())
	case errors.Is(err, masterdata.ErrNegativeStock):
		httpx.ProblemTyped(w, http.StatusBadRequest, "insufficient-stock", "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAmountNotPositive), errors.Is(err, ErrCheckDetailsRequired),
		errors.Is(err, ErrNoLineItems), errors.Is(err, ErrPaymentOnlyImmutable):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("ledger request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
