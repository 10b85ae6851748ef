// Package http exposes the gateway's REST surface to the mobile app.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/ixplor/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const DefaultRequestTimeout = 10 * time.Second

type Deps struct {
	Log            logrus.FieldLogger
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	Vendors     service.VendorFinder
	Activities  service.ActivityFinder
	Nearby      NearbyService
	ClearCaches func(ctx context.Context)
	Directory   VendorDirectory
	Viewports   ViewportHub

	Carts    CartService
	Records  RecordsService
	Checkout CheckoutService

	Sessions Sessions
	Profiles Profiles
}

func NewRouter(d Deps) chi.Router {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = DefaultRequestTimeout
	}

	b := base{
		log:      d.Log,
		timeout:  d.RequestTimeout,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if d.Sessions != nil {
		b.unauthorized = d.Sessions.Invalidate
	}

	maps := &MapHandler{base: b, vendors: d.Vendors, activities: d.Activities, nearby: d.Nearby, clear: d.ClearCaches}
	directory := &VendorHandler{base: b, directory: d.Directory}
	viewports := &ViewportHandler{base: b, hub: d.Viewports}
	carts := &CartHandler{base: b, carts: d.Carts}
	records := &RecordsHandler{base: b, records: d.Records}
	checkout := &CheckoutHandler{base: b, checkout: d.Checkout}
	auths := &AuthHandler{base: b, sessions: d.Sessions, profiles: d.Profiles}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(SessionMiddleware)
	r.Use(LogMiddleware(d.Log))
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.Compress(5))
	if d.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(d.MaxBodyBytes))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/vendors/nearby", maps.NearbyVendors)
		r.Get("/vendors/by-type", directory.ByType)
		r.Get("/vendors/{vendorId}", directory.Get)
		r.Get("/vendors/{vendorId}/items", directory.Items)
		r.Get("/product-items/{productItemId}", directory.ProductItem)
		r.Get("/activities/nearby", maps.NearbyActivities)
		r.Get("/map/nearby", maps.Nearby)
		r.Post("/map/cache/clear", maps.ClearCaches)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", auths.Login)
			r.Post("/register", auths.Register)
			r.Post("/google", auths.Google)
			r.Post("/apple", auths.Apple)
			r.With(RequireSession).Post("/logout", auths.Logout)
			r.With(RequireSession).Get("/me", auths.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireSession)

			r.Route("/viewport", func(r chi.Router) {
				r.Put("/", viewports.Update)
				r.Post("/refresh", viewports.Refresh)
				r.Get("/nearby", viewports.Latest)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", carts.GetCart)
				r.Delete("/", carts.ClearCart)
				r.Post("/items", carts.AddItem)
				r.Put("/items/{productItemId}", carts.UpdateQuantity)
				r.Delete("/items/{productItemId}", carts.RemoveItem)
			})

			r.Get("/tickets", records.Tickets)
			r.Post("/tickets/{ticketId}/redeem", records.RedeemTicket)
			r.Get("/invoices", records.Invoices)

			r.Route("/support-tickets", func(r chi.Router) {
				r.Get("/", records.SupportTickets)
				r.Post("/", records.CreateSupportTicket)
				r.Put("/{ticketId}/status", records.UpdateSupportTicketStatus)
				r.Post("/{ticketId}/updates", records.AddSupportTicketUpdate)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/payment-intent", checkout.CreatePaymentIntent)
				r.Post("/confirm", checkout.ConfirmPayment)
			})
		})
	})

	return r
}
