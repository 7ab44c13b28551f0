package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Prithwi32/Ecommerce-Backend/internal/order"
)

// OrderService is the order surface the handlers need.
type OrderService interface {
	Create(ctx context.Context, req order.CreateRequest) (*order.CreateResult, error)
	GetByID(ctx context.Context, orderID string) (*order.Order, error)
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
	UpdateStatus(ctx context.Context, orderID string, to order.Status) (*order.Order, error)
}

// PaymentVerifier reconciles a completed gateway payment into an order.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string, draft *order.Order) (*order.Order, error)
}

type OrderHandler struct {
	orders   OrderService
	verifier PaymentVerifier
}

func NewOrderHandler(orders OrderService, verifier PaymentVerifier) *OrderHandler {
	return &OrderHandler{orders: orders, verifier: verifier}
}

type createOrderRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Items     []struct {
		ProductID string      `json:"product"`
		Quantity  int         `json:"quantity"`
		Variant   *variantRef `json:"variant"`
		Color     *colorRef   `json:"color"`
	} `json:"items"`
	ShippingAddress order.Address `json:"shippingAddress"`
	PaymentInfo     struct {
		Method string `json:"method"`
	} `json:"paymentInfo"`
	Notes string `json:"notes"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var body createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	req := order.CreateRequest{
		UserID:          userID(r),
		ProductID:       body.ProductID,
		Quantity:        body.Quantity,
		ShippingAddress: body.ShippingAddress,
		PaymentMethod:   body.PaymentInfo.Method,
		Notes:           body.Notes,
	}
	for _, it := range body.Items {
		ri := order.RequestItem{ProductID: it.ProductID, Quantity: it.Quantity}
		if it.Variant != nil {
			ri.VariantLabel = it.Variant.Label
		}
		if it.Color != nil {
			ri.ColorName = it.Color.Name
		}
		req.Items = append(req.Items, ri)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.orders.Create(ctx, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if res.Order != nil {
		writeJSON(w, http.StatusCreated, res.Order)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type verifyPaymentRequest struct {
	GatewayOrderID   string       `json:"razorpay_order_id"`
	GatewayPaymentID string       `json:"razorpay_payment_id"`
	Signature        string       `json:"razorpay_signature"`
	OrderData        *order.Order `json:"orderData"`
}

func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var body verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.OrderData == nil {
		writeError(w, http.StatusBadRequest, "missing orderData")
		return
	}

	// The draft is echoed back by the client; it must belong to the caller.
	body.OrderData.UserID = userID(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.verifier.VerifyPayment(ctx, body.GatewayOrderID, body.GatewayPaymentID, body.Signature, body.OrderData)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if o.UserID != userID(r) {
		writeError(w, http.StatusUnauthorized, "not authorized to access this order")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.orders.ListByUser(ctx, userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.orders.UpdateStatus(ctx, orderID, order.Status(body.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
