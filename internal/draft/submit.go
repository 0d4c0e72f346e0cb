package draft

import "github.com/sandburr/invoicing/internal/validation"

// SubmitItem is one persisted-shape line of a submission request.
type SubmitItem struct {
	ProductID  uint    `json:"productId"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// Submission is the persistence request a finished draft turns into.
type Submission struct {
	CustomerID uint         `json:"customerId"`
	Items      []SubmitItem `json:"items"`
	Subtotal   float64      `json:"subtotal"`
	Tax        float64      `json:"tax"`
	TotalPrice float64      `json:"totalPrice"`
}

// BuildSubmission gates a draft before it becomes a persistence request.
// Rows with no product selected are silently dropped. The two checks here —
// a selected customer and at least one surviving row — are the only
// validation gates; quantity and rate are already non-negative by the edit
// coercion rules. Totals are recomputed from the surviving rows so dropped
// blanks cannot leak into the stored figures.
func BuildSubmission(customerID uint, items []LineItem) (Submission, validation.Violations) {
	v := validation.Violations{}
	if customerID == 0 {
		v["customerId"] = "required"
	}
	kept := make([]SubmitItem, 0, len(items))
	var subtotal float64
	for _, it := range items {
		if it.ProductID == 0 {
			continue
		}
		kept = append(kept, SubmitItem{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.Rate,
			TotalPrice: it.Amount,
		})
		subtotal += it.Amount
	}
	if len(kept) == 0 {
		v["items"] = "at_least_one_item"
	}
	if !v.Empty() {
		return Submission{}, v
	}
	tax := subtotal * TaxRate
	return Submission{
		CustomerID: customerID,
		Items:      kept,
		Subtotal:   subtotal,
		Tax:        tax,
		TotalPrice: subtotal + tax,
	}, nil
}
