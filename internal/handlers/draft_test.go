package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/sandburr/invoicing/internal/draft"
	"github.com/sandburr/invoicing/internal/models"
)

type draftState struct {
	DraftID    string           `json:"draftId"`
	InvoiceID  uint             `json:"invoiceId"`
	CustomerID uint             `json:"customerId"`
	Items      []draft.LineItem `json:"items"`
	Totals     draft.Totals     `json:"totals"`
}

func openDraft(t *testing.T, router http.Handler) draftState {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/drafts", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open draft: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var state draftState
	decodeBody(t, rec, &state)
	return state
}

func TestDraftLifecycle(t *testing.T) {
	router, conn := newTestRouter(t)
	customer, product := seedHandlerFixtures(t, conn)

	state := openDraft(t, router)
	if len(state.Items) != 1 || state.Items[0].ID != 1 || state.Items[0].Quantity != 1 {
		t.Fatalf("unexpected initial state: %#v", state.Items)
	}
	base := "/drafts/" + state.DraftID

	// select the product; value arrives as a JSON string
	rec := doJSON(t, router, http.MethodPatch, base+"/rows/1", map[string]any{
		"field": "productId", "value": fmt.Sprint(product.ID),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch product: %d: %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &state)
	if state.Items[0].Rate != 75 || state.Items[0].Amount != 75 {
		t.Fatalf("product not applied: %#v", state.Items[0])
	}

	// quantity arrives as a JSON number
	rec = doJSON(t, router, http.MethodPatch, base+"/rows/1", map[string]any{
		"field": "quantity", "value": 3,
	})
	decodeBody(t, rec, &state)
	if state.Items[0].Amount != 225 {
		t.Fatalf("amount: %v", state.Items[0].Amount)
	}
	if state.Totals.Subtotal != 225 || state.Totals.Tax != 22.5 || state.Totals.Total != 247.5 {
		t.Fatalf("totals: %#v", state.Totals)
	}

	// add then remove a row; ids are never reused
	rec = doJSON(t, router, http.MethodPost, base+"/rows", nil)
	decodeBody(t, rec, &state)
	if len(state.Items) != 2 || state.Items[1].ID != 2 {
		t.Fatalf("add row: %#v", state.Items)
	}
	rec = doJSON(t, router, http.MethodDelete, base+"/rows/2", nil)
	decodeBody(t, rec, &state)
	if len(state.Items) != 1 {
		t.Fatalf("remove row: %#v", state.Items)
	}

	// removing the last row is a no-op
	rec = doJSON(t, router, http.MethodDelete, base+"/rows/1", nil)
	decodeBody(t, rec, &state)
	if len(state.Items) != 1 {
		t.Fatalf("last row removed: %#v", state.Items)
	}

	// submit is rejected until a customer is selected; the draft stays open
	rec = doJSON(t, router, http.MethodPost, base+"/submit", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("submit without customer: expected 400 got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("draft discarded on rejected submit: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, base+"/customer", map[string]any{"customerId": customer.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("set customer: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, base+"/submit", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var inv models.Invoice
	decodeBody(t, rec, &inv)
	if inv.Subtotal != 225 || inv.TotalPrice != 247.5 {
		t.Fatalf("submitted totals: %v/%v", inv.Subtotal, inv.TotalPrice)
	}

	// the session is gone after submit
	rec = doJSON(t, router, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after submit, got %d", rec.Code)
	}
}

func TestDraftQuantityCoercion(t *testing.T) {
	router, conn := newTestRouter(t)
	_, product := seedHandlerFixtures(t, conn)

	state := openDraft(t, router)
	base := "/drafts/" + state.DraftID

	doJSON(t, router, http.MethodPatch, base+"/rows/1", map[string]any{
		"field": "productId", "value": fmt.Sprint(product.ID),
	})
	rec := doJSON(t, router, http.MethodPatch, base+"/rows/1", map[string]any{
		"field": "quantity", "value": "abc",
	})
	decodeBody(t, rec, &state)
	if state.Items[0].Quantity != 0 || state.Items[0].Amount != 0 {
		t.Fatalf("invalid quantity not coerced to zero: %#v", state.Items[0])
	}
}

func TestDraftRejectsUnknownField(t *testing.T) {
	router, _ := newTestRouter(t)
	state := openDraft(t, router)

	rec := doJSON(t, router, http.MethodPatch, "/drafts/"+state.DraftID+"/rows/1", map[string]any{
		"field": "discount", "value": "10",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestDraftFromInvoice(t *testing.T) {
	router, conn := newTestRouter(t)
	customer, product := seedHandlerFixtures(t, conn)

	rec := doJSON(t, router, http.MethodPost, "/invoices", map[string]any{
		"customerId": customer.ID,
		"items":      []map[string]any{{"productId": product.ID, "quantity": 2, "unitPrice": 75}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create invoice: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/drafts/from-invoice/1", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open from invoice: %d: %s", rec.Code, rec.Body.String())
	}
	var state draftState
	decodeBody(t, rec, &state)
	if state.InvoiceID != 1 || state.CustomerID != customer.ID {
		t.Fatalf("draft not bound to invoice: %#v", state)
	}
	if len(state.Items) != 1 || state.Items[0].Amount != 150 {
		t.Fatalf("rows not loaded: %#v", state.Items)
	}
	base := "/drafts/" + state.DraftID

	rec = doJSON(t, router, http.MethodPatch, base+"/rows/1", map[string]any{
		"field": "quantity", "value": 4,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, base+"/submit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resubmit: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var inv models.Invoice
	decodeBody(t, rec, &inv)
	if inv.ID != 1 || inv.Subtotal != 300 {
		t.Fatalf("invoice not updated in place: %#v", inv)
	}
}

func TestDraftAbandon(t *testing.T) {
	router, _ := newTestRouter(t)
	state := openDraft(t, router)

	rec := doJSON(t, router, http.MethodDelete, "/drafts/"+state.DraftID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("abandon: %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/drafts/"+state.DraftID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestDraftUnknownSession(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/drafts/no-such-session", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
