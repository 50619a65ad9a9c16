// Package routes wires handlers onto the router with the per-group
// middleware each surface needs.
package routes

import (
	"net/http"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/handler"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/middleware"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/router"
)

// Deps contains the handlers and shared middleware for the API.
type Deps struct {
	Cart      *handler.CartHandler
	Product   *handler.ProductHandler
	Promotion *handler.PromotionHandler
	Order     *handler.OrderHandler
	Checkout  *handler.CheckoutHandler
	User      *handler.UserHandler

	Health  http.HandlerFunc
	Metrics *middleware.Metrics
}

// Register mounts every route on the router.
func Register(r *router.Router, deps Deps) {
	// Operational endpoints, outside the identity chain.
	r.Get("/health", deps.Health)
	r.Handle(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Catalog and promotions: public reads, open writes (admin gating is
	// handled at the edge).
	r.Get("/products", deps.Product.List)
	r.Get("/products/{id}", deps.Product.Get)
	r.Post("/products", deps.Product.Create)
	r.Put("/products/{id}", deps.Product.Update)
	r.Delete("/products/{id}", deps.Product.Delete)

	r.Get("/promotions", deps.Promotion.List)
	r.Get("/promotions/{id}", deps.Promotion.Get)
	r.Post("/promotions", deps.Promotion.Create)
	r.Put("/promotions/{id}", deps.Promotion.Update)
	r.Delete("/promotions/{id}", deps.Promotion.Delete)
	r.Post("/promotions/purge", deps.Promotion.Purge)

	// User-scoped surface.
	user := r.Group(middleware.RequireUserID)
	user.Get("/cart", deps.Cart.GetCart)
	user.Delete("/cart", deps.Cart.ClearCart)
	user.Post("/cart/items", deps.Cart.AddItem)
	user.Patch("/cart/items/{productID}", deps.Cart.UpdateItem)
	user.Delete("/cart/items/{productID}", deps.Cart.RemoveItem)
	user.Post("/cart/virtual", deps.Cart.VirtualCart)

	user.Post("/checkout", deps.Checkout.Start,
		middleware.RateLimit(middleware.StrictRateLimiterConfig()))

	user.Get("/orders", deps.Order.List)
	user.Get("/orders/{id}", deps.Order.Get)
	user.Patch("/orders/{id}/status", deps.Order.UpdateStatus)
	user.Delete("/orders/{id}", deps.Order.Delete)

	user.Get("/users/me", deps.User.GetProfile)
	user.Put("/users/me", deps.User.UpsertProfile)

	// Gateway callbacks: reached by the buyer's browser and by the
	// gateway's servers, no identity header present.
	r.Get("/checkout/success", deps.Checkout.Success)
	r.Get("/checkout/failure", deps.Checkout.Failure)
	r.Get("/checkout/pending", deps.Checkout.Pending)
	r.Post("/webhooks/payments", deps.Checkout.Webhook)
}
