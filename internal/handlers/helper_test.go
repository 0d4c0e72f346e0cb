package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sandburr/invoicing/internal/draft"
	"github.com/sandburr/invoicing/internal/models"
	"github.com/sandburr/invoicing/internal/services"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Customer{}, &models.Product{}, &models.Invoice{}, &models.InvoiceItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// newTestRouter wires the API routes against a fresh in-memory database,
// without the middleware stack.
func newTestRouter(t *testing.T) (*chi.Mux, *gorm.DB) {
	t.Helper()
	conn := setupHandlerDB(t)
	svc := services.NewInvoiceService(conn)
	store := draft.NewStore()

	customers := NewCustomerHandler(conn)
	products := NewProductHandler(conn)
	invoices := NewInvoiceHandler(conn, svc)
	drafts := NewDraftHandler(conn, store, svc)
	dashboard := NewDashboardHandler(conn)

	r := chi.NewRouter()
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
	return r, conn
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func seedHandlerFixtures(t *testing.T, conn *gorm.DB) (models.Customer, models.Product) {
	t.Helper()
	customer := models.Customer{Name: "Garden Oasis Landscaping", Email: "contact@gardenoasis.com", Phone: "555-0101", Address: "123 Green Valley Road"}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	product := models.Product{Name: "Lawn Mowing Service", Description: "Weekly lawn mowing", Price: 75}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	return customer, product
}
