package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sandburr/invoicing/internal/config"
	"github.com/sandburr/invoicing/internal/draft"
	"github.com/sandburr/invoicing/internal/handlers"
	"github.com/sandburr/invoicing/internal/httpx"
	"github.com/sandburr/invoicing/internal/obs"
	"github.com/sandburr/invoicing/internal/services"
)

// New assembles the HTTP router with all application routes and middleware.
func New(cfg *config.Config, conn *gorm.DB, logger zerolog.Logger) http.Handler {
	svc := services.NewInvoiceService(conn)
	store := draft.NewStore()

	customers := handlers.NewCustomerHandler(conn)
	products := handlers.NewProductHandler(conn)
	invoices := handlers.NewInvoiceHandler(conn, svc)
	drafts := handlers.NewDraftHandler(conn, store, svc)
	dashboard := handlers.NewDashboardHandler(conn)

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	health := func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := conn.DB()
		if err != nil || sqlDB.PingContext(r.Context()) != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "database_unreachable", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	r.Get("/health", health)
	r.Get("/healthz", health)

	r.Get("/dashboard", dashboard.Summary)

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", customers.List)
		r.Post("/", customers.Create)
		r.Get("/{id}", customers.Get)
		r.Put("/{id}", customers.Update)
		r.Delete("/{id}", customers.Delete)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", products.List)
		r.Post("/", products.Create)
		r.Get("/{id}", products.Get)
		r.Put("/{id}", products.Update)
		r.Delete("/{id}", products.Delete)
	})

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", invoices.List)
		r.Post("/", invoices.Create)
		r.Get("/{id}", invoices.Get)
		r.Put("/{id}", invoices.Update)
		r.Delete("/{id}", invoices.Delete)
		r.Get("/{id}/pdf", invoices.PDF)
	})

	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", drafts.Create)
		r.Post("/from-invoice/{id}", drafts.CreateFromInvoice)
		r.Route("/{draftID}", func(r chi.Router) {
			r.Get("/", drafts.Get)
			r.Delete("/", drafts.Abandon)
			r.Put("/customer", drafts.SetCustomer)
			r.Post("/rows", drafts.AddRow)
			r.Patch("/rows/{rowID}", drafts.UpdateRow)
			r.Delete("/rows/{rowID}", drafts.RemoveRow)
			r.Post("/submit", drafts.Submit)
		})
	})

	return r
}
