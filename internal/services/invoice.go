package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/sandburr/invoicing/internal/draft"
	"github.com/sandburr/invoicing/internal/models"
)

// InvoiceService encapsulates invoice persistence: creating an invoice with
// its items in one transaction, loading with the preloads the renderer and
// API responses need, and replacing a stored invoice from a new submission.
type InvoiceService struct {
	DB *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService { return &InvoiceService{DB: db} }

// Create stores a gated submission as a new invoice. The submission's totals
// are trusted here because they were recomputed by the gate; handlers must
// never pass client-supplied totals through directly.
func (s *InvoiceService) Create(sub draft.Submission) (*models.Invoice, error) {
	inv := models.Invoice{
		CustomerID:  sub.CustomerID,
		InvoiceDate: time.Now(),
		Status:      "Paid",
		Subtotal:    sub.Subtotal,
		Tax:         sub.Tax,
		TotalPrice:  sub.TotalPrice,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		items := submissionItems(inv.ID, sub)
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(inv.ID)
}

// Update replaces a stored invoice's customer, items, and totals with a new
// submission. Old items are dropped and recreated rather than diffed.
func (s *InvoiceService) Update(id uint, sub draft.Submission) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.DB.First(&inv, id).Error; err != nil {
		return nil, err
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		items := submissionItems(inv.ID, sub)
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return tx.Model(&inv).Updates(map[string]any{
			"customer_id": sub.CustomerID,
			"subtotal":    sub.Subtotal,
			"tax":         sub.Tax,
			"total_price": sub.TotalPrice,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(inv.ID)
}

// Get loads one invoice with customer and item products preloaded.
func (s *InvoiceService) Get(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.DB.Preload("Customer").Preload("Items.Product").First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// List returns all invoices, newest first, with the same preloads as Get.
func (s *InvoiceService) List() ([]models.Invoice, error) {
	var invs []models.Invoice
	if err := s.DB.Preload("Customer").Preload("Items.Product").
		Order("invoice_date desc").Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

// Delete removes an invoice and its items.
func (s *InvoiceService) Delete(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, id).Error
	})
}

func submissionItems(invoiceID uint, sub draft.Submission) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(sub.Items))
	for _, it := range sub.Items {
		items = append(items, models.InvoiceItem{
			InvoiceID:  invoiceID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return items
}
