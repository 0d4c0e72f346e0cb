package models

import "time"

// Invoicing models. Totals are stored denormalized but are always recomputed
// server-side from the submitted items before persisting.
type Invoice struct {
	ID          uint          `gorm:"primaryKey" json:"invoiceId"`
	CustomerID  uint          `gorm:"not null;index" json:"customerId"`
	Customer    Customer      `gorm:"foreignKey:CustomerID" json:"customer"`
	InvoiceDate time.Time     `gorm:"not null" json:"invoiceDate"`
	Status      string        `gorm:"not null;default:'Paid'" json:"status"`
	Subtotal    float64       `gorm:"not null" json:"subtotal"`
	Tax         float64       `gorm:"not null" json:"tax"`
	TotalPrice  float64       `gorm:"not null" json:"totalPrice"`
	Items       []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"invoiceItems"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type InvoiceItem struct {
	ID         uint    `gorm:"primaryKey" json:"invoiceItemId"`
	InvoiceID  uint    `gorm:"not null;index" json:"invoiceId"`
	ProductID  uint    `gorm:"not null" json:"productId"`
	Product    Product `gorm:"foreignKey:ProductID" json:"product"`
	Quantity   int     `gorm:"not null" json:"quantity"`
	UnitPrice  float64 `gorm:"not null" json:"unitPrice"`
	TotalPrice float64 `gorm:"not null" json:"totalPrice"`
}
