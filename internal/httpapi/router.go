package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(carts CartService, orders OrderService, verifier PaymentVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	cartHandler := NewCartHandler(carts)
	orderHandler := NewOrderHandler(orders, verifier)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireUser)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/", cartHandler.AddItem)
			r.Delete("/", cartHandler.ClearCart)
			r.Get("/validate", cartHandler.ValidateStock)
			r.Patch("/{productId}", cartHandler.UpdateItem)
			r.Delete("/{productId}", cartHandler.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.ListMyOrders)
			r.Post("/", orderHandler.CreateOrder)
			r.Post("/verify", orderHandler.VerifyPayment)
			r.Get("/{orderId}", orderHandler.GetOrder)
			r.Put("/{orderId}/status", orderHandler.UpdateStatus)
		})
	})

	return r
}
