package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/purchase-orders/internal/domain"
	"github.com/utafrali/purchase-orders/internal/service"
	"github.com/utafrali/purchase-orders/pkg/httputil"
	"github.com/utafrali/purchase-orders/pkg/pagination"
	"github.com/utafrali/purchase-orders/pkg/validator"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// PurchaseOrderHandler handles HTTP requests for purchase order endpoints.
type PurchaseOrderHandler struct {
	service *service.PurchaseOrderService
	logger  *slog.Logger
	now     func() time.Time
}

// NewPurchaseOrderHandler creates a new purchase order HTTP handler.
func NewPurchaseOrderHandler(svc *service.PurchaseOrderService, logger *slog.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		service: svc,
		logger:  logger,
		now:     time.Now,
	}
}

// --- Request / Response DTOs ---

// CreatePurchaseOrderRequest is the JSON request body for creating an order.
type CreatePurchaseOrderRequest struct {
	ItemName     string   `json:"item_name" validate:"required,max=255"`
	OrderDate    string   `json:"order_date" validate:"required,datetime=2006-01-02"`
	DeliveryDate string   `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	Quantity     int      `json:"quantity" validate:"required,gt=0,lte=2147483647"`
	UnitPrice    *float64 `json:"unit_price" validate:"required,gte=0,lte=1000000000"`
}

// PurchaseOrderResponse is the wire form of a purchase order.
type PurchaseOrderResponse struct {
	ID           int64   `json:"id"`
	ItemName     string  `json:"item_name"`
	OrderDate    string  `json:"order_date"`
	DeliveryDate string  `json:"delivery_date"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalPrice   float64 `json:"total_price"`
	Status       string  `json:"status"`
}

func (h *PurchaseOrderHandler) toResponse(o domain.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:           o.ID,
		ItemName:     o.ItemName,
		OrderDate:    o.OrderDate.Format(domain.DateLayout),
		DeliveryDate: o.DeliveryDate.Format(domain.DateLayout),
		Quantity:     o.Quantity,
		UnitPrice:    o.UnitPrice,
		TotalPrice:   o.TotalPrice,
		Status:       o.StatusAt(h.now()),
	}
}

func (h *PurchaseOrderHandler) toResponses(orders []domain.PurchaseOrder) []PurchaseOrderResponse {
	out := make([]PurchaseOrderResponse, len(orders))
	for i, o := range orders {
		out[i] = h.toResponse(o)
	}
	return out
}

// --- Handlers ---

// CreatePurchaseOrder handles POST /api/purchase-orders
func (h *PurchaseOrderHandler) CreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreatePurchaseOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// Both dates already passed the datetime tag.
	orderDate, _ := domain.ParseDate(req.OrderDate)
	deliveryDate, _ := domain.ParseDate(req.DeliveryDate)

	order, err := h.service.CreatePurchaseOrder(r.Context(), service.CreatePurchaseOrderInput{
		ItemName:     req.ItemName,
		OrderDate:    orderDate,
		DeliveryDate: deliveryDate,
		Quantity:     req.Quantity,
		UnitPrice:    *req.UnitPrice,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, h.toResponse(*order))
}

// ListPurchaseOrders handles GET /api/purchase-orders
func (h *PurchaseOrderHandler) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListPurchaseOrders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.toResponses(orders))
}

// ListPurchaseOrdersWithCursor handles GET /api/purchase-orders/cursor
func (h *PurchaseOrderHandler) ListPurchaseOrdersWithCursor(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if errors.Is(err, pagination.ErrInvalidLimit) {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  map[string]string{"limit": "must be an integer"},
			},
		})
		return
	}
	if err := validator.Validate(params); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page, err := h.service.ListPurchaseOrdersWithCursor(r.Context(), params.Cursor, params.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.Page[PurchaseOrderResponse]{
		Items:      h.toResponses(page.Items),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	})
}

// GetPurchaseOrder handles GET /api/purchase-orders/{id}
func (h *PurchaseOrderHandler) GetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.service.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.toResponse(*order))
}

// DeletePurchaseOrder handles DELETE /api/purchase-orders/{id}
func (h *PurchaseOrderHandler) DeletePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeletePurchaseOrder(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
