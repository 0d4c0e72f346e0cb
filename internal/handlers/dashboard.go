package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/sandburr/invoicing/internal/httpx"
	"github.com/sandburr/invoicing/internal/models"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler { return &DashboardHandler{DB: db} }

type dashboardResponse struct {
	CustomerCount  int64            `json:"customerCount"`
	ProductCount   int64            `json:"productCount"`
	InvoiceCount   int64            `json:"invoiceCount"`
	RecentInvoices []models.Invoice `json:"recentInvoices"`
}

// Summary: GET /dashboard — entity counts plus the five most recent invoices.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var resp dashboardResponse
	counts := []struct {
		model any
		dst   *int64
	}{
		{&models.Customer{}, &resp.CustomerCount},
		{&models.Product{}, &resp.ProductCount},
		{&models.Invoice{}, &resp.InvoiceCount},
	}
	for _, c := range counts {
		if err := h.DB.Model(c.model).Count(c.dst).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "dashboard_failed", nil)
			return
		}
	}
	err := h.DB.Preload("Customer").
		Order("invoice_date desc").
		Limit(5).
		Find(&resp.RecentInvoices).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "dashboard_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}
