package http

import (
	"net/http"
	"time"

	"github.com/caffeinepub/ocarina-store-clone/internal/authz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Payment  *PaymentHandler
	Me       *MeHandler
	Gate     *authz.Gate
}

func NewRouter(h Handlers, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(CartSessionMiddleware)
	r.Use(IdentityMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.Products.ListProducts)
		r.Get("/products/{product_id}", h.Products.GetProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
		})

		r.Post("/checkout", h.Checkout.InitiateCheckout)

		r.Route("/payment", func(r chi.Router) {
			r.Get("/success", h.Payment.PaymentSuccess)
			r.Get("/failure", h.Payment.PaymentFailure)
		})

		r.Route("/me", func(r chi.Router) {
			r.Get("/is-admin", h.Me.IsAdmin)
			r.Get("/profile", h.Me.GetProfile)
		})

		// Admin surface stays behind the fail-closed gate. The CRUD forms
		// themselves live in the backend; this subtree only exposes the
		// reads the dashboard needs.
		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminOnly(h.Gate))
			r.Get("/products", h.Products.ListProducts)
		})
	})

	return r
}
