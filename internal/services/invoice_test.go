package services

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sandburr/invoicing/internal/draft"
	"github.com/sandburr/invoicing/internal/models"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
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

func seedServiceFixtures(t *testing.T, conn *gorm.DB) (models.Customer, models.Product) {
	t.Helper()
	customer := models.Customer{Name: "Garden Oasis Landscaping", Email: "contact@gardenoasis.com"}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	product := models.Product{Name: "Lawn Mowing Service", Price: 75}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	return customer, product
}

func TestInvoiceCreateGetList(t *testing.T) {
	conn := setupServiceTestDB(t)
	customer, product := seedServiceFixtures(t, conn)
	svc := NewInvoiceService(conn)

	sub := draft.Submission{
		CustomerID: customer.ID,
		Items:      []draft.SubmitItem{{ProductID: product.ID, Quantity: 2, UnitPrice: 75, TotalPrice: 150}},
		Subtotal:   150, Tax: 15, TotalPrice: 165,
	}
	inv, err := svc.Create(sub)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Status != "Paid" {
		t.Fatalf("expected status Paid got %q", inv.Status)
	}
	if len(inv.Items) != 1 || inv.Items[0].Product.Name != "Lawn Mowing Service" {
		t.Fatalf("items not preloaded: %#v", inv.Items)
	}
	if inv.Customer.Name != customer.Name {
		t.Fatalf("customer not preloaded: %#v", inv.Customer)
	}

	got, err := svc.Get(inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalPrice != 165 {
		t.Fatalf("expected total 165 got %v", got.TotalPrice)
	}

	list, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one invoice, got %d", len(list))
	}
}

func TestInvoiceUpdateReplacesItems(t *testing.T) {
	conn := setupServiceTestDB(t)
	customer, product := seedServiceFixtures(t, conn)
	other := models.Product{Name: "Landscape Design Consultation", Price: 150}
	if err := conn.Create(&other).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	svc := NewInvoiceService(conn)

	inv, err := svc.Create(draft.Submission{
		CustomerID: customer.ID,
		Items:      []draft.SubmitItem{{ProductID: product.ID, Quantity: 1, UnitPrice: 75, TotalPrice: 75}},
		Subtotal:   75, Tax: 7.5, TotalPrice: 82.5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(inv.ID, draft.Submission{
		CustomerID: customer.ID,
		Items:      []draft.SubmitItem{{ProductID: other.ID, Quantity: 2, UnitPrice: 150, TotalPrice: 300}},
		Subtotal:   300, Tax: 30, TotalPrice: 330,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Items) != 1 || updated.Items[0].ProductID != other.ID {
		t.Fatalf("items not replaced: %#v", updated.Items)
	}
	if updated.TotalPrice != 330 {
		t.Fatalf("totals not updated: %v", updated.TotalPrice)
	}

	var count int64
	conn.Model(&models.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Count(&count)
	if count != 1 {
		t.Fatalf("stale items remain: %d", count)
	}
}

func TestInvoiceDeleteCascadesItems(t *testing.T) {
	conn := setupServiceTestDB(t)
	customer, product := seedServiceFixtures(t, conn)
	svc := NewInvoiceService(conn)

	inv, err := svc.Create(draft.Submission{
		CustomerID: customer.ID,
		Items:      []draft.SubmitItem{{ProductID: product.ID, Quantity: 1, UnitPrice: 75, TotalPrice: 75}},
		Subtotal:   75, Tax: 7.5, TotalPrice: 82.5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(inv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(inv.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	var count int64
	conn.Model(&models.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Count(&count)
	if count != 0 {
		t.Fatalf("items not deleted: %d", count)
	}
}
