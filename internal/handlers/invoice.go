package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/sandburr/invoicing/internal/draft"
	"github.com/sandburr/invoicing/internal/httpx"
	"github.com/sandburr/invoicing/internal/models"
	"github.com/sandburr/invoicing/internal/pdf"
	"github.com/sandburr/invoicing/internal/services"
	"github.com/sandburr/invoicing/internal/validation"
)

type InvoiceHandler struct {
	DB  *gorm.DB
	Svc *services.InvoiceService
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc}
}

// invoiceRequest is the wire shape a finished draft submits. Client-supplied
// totals (and per-item totalPrice) are accepted for compatibility but
// recomputed server-side before anything is stored.
type invoiceRequest struct {
	CustomerID uint `json:"customerId"`
	Items      []struct {
		ProductID  uint    `json:"productId"`
		Quantity   int     `json:"quantity"`
		UnitPrice  float64 `json:"unitPrice"`
		TotalPrice float64 `json:"totalPrice"`
	} `json:"items"`
	Subtotal   float64 `json:"subtotal"`
	Tax        float64 `json:"tax"`
	TotalPrice float64 `json:"totalPrice"`
}

// gate rebuilds editor rows from the request and runs the submission gate so
// direct API submissions obey the same rules as draft sessions.
func (req invoiceRequest) gate() (draft.Submission, validation.Violations) {
	items := make([]draft.LineItem, 0, len(req.Items))
	for i, it := range req.Items {
		qty := it.Quantity
		if qty < 0 {
			qty = 0
		}
		rate := it.UnitPrice
		if rate < 0 {
			rate = 0
		}
		items = append(items, draft.LineItem{
			ID:        i + 1,
			ProductID: it.ProductID,
			Quantity:  qty,
			Rate:      rate,
			Amount:    float64(qty) * rate,
		})
	}
	return draft.BuildSubmission(req.CustomerID, items)
}

// List: GET /invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invs, err := h.Svc.List()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, invs)
}

// Get: GET /invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Create: POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	sub, v := req.gate()
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if !h.referencesExist(w, sub) {
		return
	}
	inv, err := h.Svc.Create(sub)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// Update: PUT /invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	sub, v := req.gate()
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if !h.referencesExist(w, sub) {
		return
	}
	inv, err := h.Svc.Update(id, sub)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: DELETE /invoices/{id}
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(id); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "delete_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// PDF: GET /invoices/{id}/pdf
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_invoice", nil)
		return
	}
	data, genErr := pdf.Render(inv)
	if genErr != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"invoice-"+strconv.Itoa(int(inv.ID))+".pdf\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// referencesExist verifies the submission's customer and products are stored
// rows, writing the error response itself when they are not.
func (h *InvoiceHandler) referencesExist(w http.ResponseWriter, sub draft.Submission) bool {
	var customer models.Customer
	if err := h.DB.First(&customer, sub.CustomerID).Error; err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_customer", nil)
		return false
	}
	seen := make(map[uint]struct{}, len(sub.Items))
	ids := make([]uint, 0, len(sub.Items))
	for _, it := range sub.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	var count int64
	if err := h.DB.Model(&models.Product{}).Where("id IN ?", ids).Count(&count).Error; err != nil || count != int64(len(ids)) {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_products", nil)
		return false
	}
	return true
}
