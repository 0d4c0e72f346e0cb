package pdf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/sandburr/invoicing/internal/models"
)

const companyName = "Sand Burr LLC"

// Render produces a printable PDF for a stored invoice. The invoice must be
// loaded with its customer and item products.
func Render(inv *models.Invoice) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Invoice #"+strconv.Itoa(int(inv.ID)), false)
	doc.AddPage()

	doc.SetFont("Arial", "B", 22)
	doc.Cell(100, 12, "INVOICE")
	doc.SetFont("Arial", "", 11)
	doc.CellFormat(0, 12, companyName, "", 1, "R", false, 0, "")

	doc.SetFont("Arial", "", 10)
	doc.Cell(0, 6, "Invoice #: "+strconv.Itoa(int(inv.ID)))
	doc.Ln(6)
	doc.Cell(0, 6, "Date: "+inv.InvoiceDate.Format("January 2, 2006"))
	doc.Ln(6)
	doc.Cell(0, 6, "Status: "+inv.Status)
	doc.Ln(10)

	doc.SetFont("Arial", "B", 10)
	doc.Cell(0, 6, "Bill To")
	doc.Ln(6)
	doc.SetFont("Arial", "", 10)
	for _, line := range []string{inv.Customer.Name, inv.Customer.Address, inv.Customer.Email, inv.Customer.Phone} {
		if line == "" {
			continue
		}
		doc.Cell(0, 5, line)
		doc.Ln(5)
	}
	doc.Ln(6)

	colWidths := []float64{95, 25, 35, 35}
	headers := []string{"Description", "Qty", "Rate", "Amount"}
	doc.SetFont("Arial", "B", 10)
	doc.SetFillColor(235, 235, 235)
	for i, h := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		doc.CellFormat(colWidths[i], 8, h, "1", 0, align, true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Arial", "", 10)
	for _, item := range inv.Items {
		name := item.Product.Name
		if name == "" {
			name = "Item #" + strconv.Itoa(int(item.ProductID))
		}
		doc.CellFormat(colWidths[0], 8, name, "1", 0, "L", false, 0, "")
		doc.CellFormat(colWidths[1], 8, strconv.Itoa(item.Quantity), "1", 0, "R", false, 0, "")
		doc.CellFormat(colWidths[2], 8, money(item.UnitPrice), "1", 0, "R", false, 0, "")
		doc.CellFormat(colWidths[3], 8, money(item.TotalPrice), "1", 0, "R", false, 0, "")
		doc.Ln(-1)
	}

	doc.Ln(4)
	totals := []struct {
		label string
		value float64
	}{
		{"Subtotal", inv.Subtotal},
		{"Tax (10%)", inv.Tax},
		{"Total", inv.TotalPrice},
	}
	labelWidth := colWidths[0] + colWidths[1] + colWidths[2]
	for i, row := range totals {
		if i == len(totals)-1 {
			doc.SetFont("Arial", "B", 10)
		}
		doc.CellFormat(labelWidth, 7, row.label, "", 0, "R", false, 0, "")
		doc.CellFormat(colWidths[3], 7, money(row.value), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
