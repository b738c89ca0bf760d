package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/storefront/internal/middleware"
)

// API groups the handlers mounted by Register.
type API struct {
	Health     *HealthHandler
	Auth       *AuthHandler
	Products   *ProductHandler
	Categories *CategoryHandler
	Reviews    *ReviewHandler
	Cart       *CartHandler
	Orders     *OrderHandler
	Coupons    *CouponHandler
	Webhooks   *WebhookHandler
	Tokens     middleware.TokenParser
	Profiles   middleware.ProfileReader
}

// Register mounts every endpoint on r.
func (a *API) Register(r chi.Router) {
	r.Get("/health", a.Health.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", a.Auth.Register)
		r.Post("/auth/login", a.Auth.Login)

		r.Get("/products", a.Products.ListProducts)
		r.Get("/products/{productId}", a.Products.GetProduct)
		r.Get("/products/{productId}/reviews", a.Reviews.List)

		r.Get("/categories", a.Categories.List)
		r.Get("/categories/{slug}", a.Categories.Get)

		r.Get("/coupons/stats", a.Coupons.GetStats)
		r.Get("/coupons/{couponCode}", a.Coupons.ValidateCoupon)

		r.Post("/polar/webhooks", a.Webhooks.Lenient)
		r.Post("/webhooks/polar", a.Webhooks.Strict)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(a.Tokens))

			r.Get("/profile", a.Auth.GetProfile)
			r.Put("/profile", a.Auth.UpdateProfile)
			r.Get("/addresses", a.Auth.ListAddresses)

			r.Post("/products/{productId}/reviews", a.Reviews.Create)

			r.Get("/cart", a.Cart.GetCart)
			r.Delete("/cart", a.Cart.ClearCart)
			r.Post("/cart/items", a.Cart.AddItem)
			r.Put("/cart/items/{productId}", a.Cart.UpdateItem)
			r.Delete("/cart/items/{productId}", a.Cart.RemoveItem)

			r.Post("/checkout", a.Orders.Checkout)
			r.Get("/orders", a.Orders.ListOrders)
			r.Get("/orders/{orderId}", a.Orders.GetOrder)

			// Admin endpoints
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(a.Profiles))

				r.Post("/products", a.Products.CreateProduct)
				r.Put("/products/{productId}", a.Products.UpdateProduct)
				r.Delete("/products/{productId}", a.Products.DeleteProduct)
				r.Post("/products/{productId}/image", a.Products.UploadImage)

				r.Post("/categories", a.Categories.Create)
				r.Put("/categories/{categoryId}", a.Categories.Update)
				r.Delete("/categories/{categoryId}", a.Categories.Delete)

				r.Get("/orders", a.Orders.AdminListOrders)
				r.Get("/orders/{orderId}", a.Orders.AdminGetOrder)
				r.Patch("/orders/{orderId}/status", a.Orders.UpdateStatus)

				r.Get("/users", a.Auth.ListUsers)
				r.Patch("/users/{userId}/role", a.Auth.SetRole)
			})
		})
	})
}
