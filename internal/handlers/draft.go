package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/sandburr/invoicing/internal/draft"
	"github.com/sandburr/invoicing/internal/httpx"
	"github.com/sandburr/invoicing/internal/models"
	"github.com/sandburr/invoicing/internal/services"
)

// DraftHandler exposes the line-item editor as a session resource. A session
// snapshots the product catalog when it opens, applies row edits through the
// editor rules, and reports recomputed totals with every response.
type DraftHandler struct {
	DB    *gorm.DB
	Store *draft.Store
	Svc   *services.InvoiceService
}

func NewDraftHandler(db *gorm.DB, store *draft.Store, svc *services.InvoiceService) *DraftHandler {
	return &DraftHandler{DB: db, Store: store, Svc: svc}
}

type draftResponse struct {
	DraftID    string           `json:"draftId"`
	InvoiceID  uint             `json:"invoiceId,omitempty"`
	CustomerID uint             `json:"customerId"`
	Items      []draft.LineItem `json:"items"`
	Totals     draft.Totals     `json:"totals"`
}

func toResponse(sess draft.Session) draftResponse {
	return draftResponse{
		DraftID:    sess.ID,
		InvoiceID:  sess.InvoiceID,
		CustomerID: sess.CustomerID,
		Items:      sess.Items,
		Totals:     draft.Compute(sess.Items),
	}
}

// Create: POST /drafts — opens a draft with one blank row.
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.catalog()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_catalog", nil)
		return
	}
	sess := h.Store.Create(catalog, draft.NewItems(), 0)
	httpx.JSON(w, http.StatusCreated, toResponse(*sess))
}

// CreateFromInvoice: POST /drafts/from-invoice/{id} — opens a draft
// pre-populated with a stored invoice's rows, for editing.
func (h *DraftHandler) CreateFromInvoice(w http.ResponseWriter, r *http.Request) {
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
	catalog, err := h.catalog()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_catalog", nil)
		return
	}
	created := h.Store.Create(catalog, draft.ItemsFromInvoice(inv), inv.ID)
	sess, _ := h.Store.SetCustomer(created.ID, inv.CustomerID)
	httpx.JSON(w, http.StatusCreated, toResponse(sess))
}

// Get: GET /drafts/{draftID}
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Store.Get(chi.URLParam(r, "draftID"))
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "draft_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sess))
}

// Abandon: DELETE /drafts/{draftID}
func (h *DraftHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.Store.Delete(chi.URLParam(r, "draftID"))
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}

// AddRow: POST /drafts/{draftID}/rows
func (h *DraftHandler) AddRow(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Store.Apply(chi.URLParam(r, "draftID"), func(items []draft.LineItem, _ []models.Product) []draft.LineItem {
		return draft.AddRow(items)
	})
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "draft_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sess))
}

// RemoveRow: DELETE /drafts/{draftID}/rows/{rowID}. Removing an unknown row
// or the last remaining one is a no-op, mirroring the editor rules, so the
// response is 200 with the (possibly unchanged) state.
func (h *DraftHandler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	rowID, _ := strconv.Atoi(chi.URLParam(r, "rowID"))
	sess, ok := h.Store.Apply(chi.URLParam(r, "draftID"), func(items []draft.LineItem, _ []models.Product) []draft.LineItem {
		return draft.RemoveRow(items, rowID)
	})
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "draft_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sess))
}

// UpdateRow: PATCH /drafts/{draftID}/rows/{rowID} with {"field": ..., "value": ...}.
// The value may arrive as a JSON string or number; both feed the same
// coercion rules.
func (h *DraftHandler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Field string          `json:"field"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	field := strings.TrimSpace(body.Field)
	if field != draft.FieldProduct && field != draft.FieldQuantity && field != draft.FieldRate {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_field", nil)
		return
	}
	rowID, _ := strconv.Atoi(chi.URLParam(r, "rowID"))
	value := rawToString(body.Value)
	sess, ok := h.Store.Apply(chi.URLParam(r, "draftID"), func(items []draft.LineItem, catalog []models.Product) []draft.LineItem {
		return draft.UpdateRow(items, catalog, rowID, field, value)
	})
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "draft_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sess))
}

// SetCustomer: PUT /drafts/{draftID}/customer with {"customerId": n}.
func (h *DraftHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerID uint `json:"customerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	sess, ok := h.Store.SetCustomer(chi.URLParam(r, "draftID"), body.CustomerID)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "draft_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sess))
}

// Submit: POST /drafts/{draftID}/submit — gates the draft, persists it (a new
// invoice, or a replacement when the draft was opened from one), and discards
// the session. A rejected draft stays open for further edits.
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")
	sess, ok := h.Store.Get(draftID)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "draft_not_found", nil)
		return
	}
	sub, v := draft.BuildSubmission(sess.CustomerID, sess.Items)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var inv *models.Invoice
	var err error
	if sess.InvoiceID != 0 {
		inv, err = h.Svc.Update(sess.InvoiceID, sub)
	} else {
		inv, err = h.Svc.Create(sub)
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_save_invoice", nil)
		return
	}
	h.Store.Delete(draftID)
	status := http.StatusCreated
	if sess.InvoiceID != 0 {
		status = http.StatusOK
	}
	httpx.JSON(w, status, inv)
}

// catalog loads the product snapshot a new session works against. The list
// is not refreshed mid-session.
func (h *DraftHandler) catalog() ([]models.Product, error) {
	var products []models.Product
	if err := h.DB.Order("id asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
