package models

import "time"

// Product is a catalog entry selectable on invoice lines.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"productId"`
	Name        string    `gorm:"not null;index" json:"productName"`
	Description string    `json:"productDescription"`
	Price       float64   `gorm:"not null" json:"productPrice"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
