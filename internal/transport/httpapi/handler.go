package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/acme/orders/internal/domain"
	"github.com/acme/orders/internal/service/lifecycle"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	// requesterHeader передаёт идентичность инициатора; извлечение и
	// проверка identity — забота внешнего слоя.
	requesterHeader = "X-Requester"
)

// Handler — тонкий JSON-слой над сервисом жизненного цикла. Бизнес-правил
// здесь нет: только маппинг DTO и ошибок на HTTP-статусы.
type Handler struct {
	lifecycle lifecycle.Service
	logger    *log.Entry
}

// NewHandler создаёт HTTP handler поверх сервиса жизненного цикла.
func NewHandler(svc lifecycle.Service, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "httpapi")
	}
	return &Handler{lifecycle: svc, logger: logger}
}

// Register навешивает маршруты API на mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/orders", h.createOrder)
	mux.HandleFunc("GET /v1/orders", h.listOrders)
	mux.HandleFunc("GET /v1/orders/{id}", h.getOrder)
	mux.HandleFunc("POST /v1/orders/{id}/complete", h.completeOrder)
	mux.HandleFunc("POST /v1/orders/{id}/cancel", h.cancelOrder)
}

type draftItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID string             `json:"customer_id,omitempty"`
	Cart       []draftItemRequest `json:"cart"`
}

type orderItemResponse struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Currency  string          `json:"currency"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	CustomerID    string              `json:"customer_id,omitempty"`
	Status        string              `json:"status"`
	Cart          []orderItemResponse `json:"cart"`
	Total         decimal.Decimal     `json:"total"`
	Currency      string              `json:"currency,omitempty"`
	TransactionID string              `json:"transaction_id,omitempty"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

type listOrdersResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type errorResponse struct {
	Error         string `json:"error"`
	TransactionID string `json:"transaction_id,omitempty"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	draft := &domain.OrderDraft{CustomerID: req.CustomerID}
	for _, item := range req.Cart {
		draft.Cart = append(draft.Cart, domain.DraftItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	requester := domain.Requester{ID: r.Header.Get(requesterHeader)}
	order, err := h.lifecycle.Create(r.Context(), draft, requester)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.lifecycle.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := queryInt(r, "offset", 0)

	orders, err := h.lifecycle.Find(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	total, err := h.lifecycle.Count(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := listOrdersResponse{
		Orders: make([]orderResponse, 0, len(orders)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for _, order := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(order))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.lifecycle.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.lifecycle.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// writeError механически отображает доменные ошибки на HTTP-статусы.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyDraft):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrCartEmpty):
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case domain.IsNotFound(err):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case domain.IsInvalidState(err):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		if recErr, ok := domain.AsReconciliationError(err); ok {
			h.writeJSON(w, http.StatusConflict, errorResponse{
				Error:         recErr.Error(),
				TransactionID: recErr.TransactionID,
			})
			return
		}
		if _, ok := domain.AsDependencyError(err); ok {
			h.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}
		h.logger.WithError(err).Error("unhandled service error")
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Warn("encode response failed")
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		Status:        string(order.Status),
		Cart:          make([]orderItemResponse, 0, len(order.Cart)),
		Total:         order.Total(),
		Currency:      order.Currency(),
		TransactionID: order.TransactionID,
		CreatedAt:     order.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     order.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, item := range order.Cart {
		resp.Cart = append(resp.Cart, orderItemResponse{
			ProductID: item.ProductID,
			Title:     item.Title,
			Currency:  item.Currency,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Amount:    item.Amount,
		})
	}
	return resp
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
