// Package draft holds the line-item editor for an in-progress invoice: the
// ordered row list, the field-edit rules that keep each row's amount in step
// with its quantity and rate, and the totals derived from the list.
//
// Every operation returns a fresh snapshot of the row list; callers never
// share mutable rows between the old and new state.
package draft

import (
	"strconv"
	"strings"

	"github.com/sandburr/invoicing/internal/models"
)

// TaxRate is the flat tax applied to every invoice subtotal.
const TaxRate = 0.10

// Field names accepted by UpdateRow.
const (
	FieldProduct  = "productId"
	FieldQuantity = "quantity"
	FieldRate     = "rate"
)

// LineItem is one editable row of a draft invoice. ID is a row-local sequence
// number, not a persisted identifier. Amount is derived and never set
// directly; it is recomputed whenever ProductID, Quantity, or Rate changes.
type LineItem struct {
	ID          int     `json:"id"`
	ProductID   uint    `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// Totals is the derived {subtotal, tax, total} triple. No rounding happens
// here; two-decimal formatting belongs to the presentation layer.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// NewItems returns the initial row list for a fresh draft: a single blank row.
func NewItems() []LineItem {
	return []LineItem{blankRow(1)}
}

// ItemsFromInvoice rebuilds editor rows from a stored invoice's items, for
// editing. Row ids restart at 1 in document order.
func ItemsFromInvoice(inv *models.Invoice) []LineItem {
	if inv == nil || len(inv.Items) == 0 {
		return NewItems()
	}
	items := make([]LineItem, 0, len(inv.Items))
	for i, it := range inv.Items {
		items = append(items, LineItem{
			ID:          i + 1,
			ProductID:   it.ProductID,
			ProductName: it.Product.Name,
			Quantity:    it.Quantity,
			Rate:        it.UnitPrice,
			Amount:      it.TotalPrice,
		})
	}
	return items
}

func blankRow(id int) LineItem {
	return LineItem{ID: id, Quantity: 1}
}

func nextID(items []LineItem) int {
	max := 0
	for _, it := range items {
		if it.ID > max {
			max = it.ID
		}
	}
	return max + 1
}

// AddRow appends a blank row (quantity 1, rate 0, amount 0) with the next
// row-local id and returns the new snapshot.
func AddRow(items []LineItem) []LineItem {
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	return append(out, blankRow(nextID(items)))
}

// RemoveRow drops the row with the given id. Removing an unknown id, or the
// last remaining row, is a silent no-op: a draft always keeps at least one
// row.
func RemoveRow(items []LineItem, id int) []LineItem {
	if len(items) <= 1 {
		return snapshot(items)
	}
	found := false
	for _, it := range items {
		if it.ID == id {
			found = true
			break
		}
	}
	if !found {
		return snapshot(items)
	}
	out := make([]LineItem, 0, len(items)-1)
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// UpdateRow applies a single field edit to the row with the given id and
// returns the new snapshot. Unknown row ids and unknown fields are no-ops.
//
// Selecting a product copies its name and price onto the row and recomputes
// the amount with the row's current quantity. A product id that resolves to
// nothing (including deselection) updates only ProductID: name, rate, and
// amount keep their previous values. Quantity and rate edits coerce the raw
// value (invalid or empty input becomes 0) and recompute the amount.
func UpdateRow(items []LineItem, catalog []models.Product, id int, field, value string) []LineItem {
	out := snapshot(items)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		switch field {
		case FieldProduct:
			pid := coerceUint(value)
			out[i].ProductID = pid
			if p, ok := findProduct(catalog, pid); ok {
				out[i].ProductName = p.Name
				out[i].Rate = p.Price
				out[i].Amount = float64(out[i].Quantity) * p.Price
			}
		case FieldQuantity:
			out[i].Quantity = coerceQuantity(value)
			out[i].Amount = float64(out[i].Quantity) * out[i].Rate
		case FieldRate:
			out[i].Rate = coerceRate(value)
			out[i].Amount = float64(out[i].Quantity) * out[i].Rate
		}
		break
	}
	return out
}

// Compute derives the document totals from the full row list. Rows without a
// product still participate; their amount is simply whatever the edit rules
// left there. Compute cannot fail.
func Compute(items []LineItem) Totals {
	var subtotal float64
	for _, it := range items {
		subtotal += it.Amount
	}
	tax := subtotal * TaxRate
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal + tax}
}

func snapshot(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func findProduct(catalog []models.Product, id uint) (models.Product, bool) {
	if id == 0 {
		return models.Product{}, false
	}
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// coerceQuantity parses a quantity edit. Anything that is not a non-negative
// integer becomes 0; this is deliberate input coercion, not an error path.
func coerceQuantity(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// coerceRate parses a rate edit with the same silent-zero rule.
func coerceRate(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func coerceUint(value string) uint {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return uint(n)
}
