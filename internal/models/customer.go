package models

import "time"

// Customer is a billable party. JSON field names follow the wire format the
// web client already speaks.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"customerId"`
	Name      string    `gorm:"not null;index" json:"customerName"`
	Email     string    `gorm:"not null" json:"customerEmail"`
	Phone     string    `json:"customerPhone"`
	Address   string    `json:"customerAddress"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
