package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shiptrack-service/internal/http/handlers"
	"shiptrack-service/internal/http/middleware"
	"shiptrack-service/internal/http/middleware/ratelimit"
	"shiptrack-service/internal/http/pprofserver"
	"shiptrack-service/internal/logx"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger       logx.Logger
	Base         *handlers.Handlers
	Shipments    *handlers.ShipmentHandler
	Claims       *handlers.ClaimHandler
	Visibility   *handlers.VisibilityHandler
	Views        *handlers.ViewsHandler
	Recap        *handlers.RecapHandler
	ClaimLimiter *ratelimit.Middleware
	Pprof        pprofserver.Config
}

// New constructs a chi-based http.Handler with base middleware and all
// shipment routes. The claim routes additionally pass the rate limiter.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))
	r.Use(middleware.Observability(d.Logger))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	r.Route("/shipments", func(r chi.Router) {
		r.Post("/", d.Shipments.Create)
		r.Get("/code/{code}", d.Shipments.GetByCode)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", d.Shipments.Get)
			r.Put("/", d.Shipments.Update)
			r.Post("/unclaim", d.Shipments.Unclaim)
			r.Post("/deliver", d.Shipments.Deliver)
			r.Post("/confirm", d.Shipments.Confirm)
			r.Post("/revert", d.Shipments.Revert)
			r.Post("/complete", d.Shipments.ForceComplete)
			r.Post("/pay", d.Shipments.MarkPaid)
			r.Post("/location", d.Shipments.UpdateLocation)

			r.Put("/visibility/sender", d.Visibility.SenderArchive)
			r.Put("/visibility/driver", d.Visibility.DriverArchive)
			r.Delete("/visibility/driver", d.Visibility.DriverDelete)
			r.Put("/visibility/receiver", d.Visibility.ReceiverArchive)
			r.Delete("/visibility/receiver", d.Visibility.ReceiverDelete)
		})
	})

	r.Group(func(r chi.Router) {
		if d.ClaimLimiter != nil {
			r.Use(d.ClaimLimiter.Handler())
		}
		r.Post("/claims", d.Claims.Claim)
	})

	r.Route("/senders/{id}", func(r chi.Router) {
		r.Get("/shipments", d.Views.SenderList)
		r.Get("/recap/monthly", d.Views.SenderMonthly)
		r.Get("/recap/summary", d.Recap.Summary)
	})

	r.Route("/drivers", func(r chi.Router) {
		r.Get("/pool", d.Views.DriverPool)
		r.Get("/{email}/shipments", d.Views.DriverBoard)
		r.Get("/{email}/recap/revenue", d.Views.DriverRevenue)
	})

	r.Get("/receivers/{email}/shipments", d.Views.ReceiverList)

	r.Route("/admin", func(r chi.Router) {
		r.Delete("/shipments/{id}", d.Visibility.Purge)
		r.Post("/normalize-emails", d.Visibility.NormalizeLegacyEmails)
	})

	// Handle, not Mount: the pprof mux routes on the full /debug/pprof
	// path.
	r.Handle("/debug/pprof/*", pprofserver.Handler(d.Pprof))

	return r
}
