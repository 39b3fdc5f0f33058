package domain

import "time"

// InventoryReading is one stock count of a product at a location. Readings are
// never updated; a newer reading supersedes older ones.
type InventoryReading struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	LocationID uint `json:"location_id" gorm:"not null;index:idx_reading_lookup"`
	// ProductID is 0 for legacy readings that only carry a product name.
	ProductID   uint      `json:"product_id" gorm:"index:idx_reading_lookup"`
	ProductName string    `json:"product_name" gorm:"index"`
	Quantity    float64   `json:"quantity" gorm:"not null"`
	Unit        Unit      `json:"unit"`
	CountedAt   time.Time `json:"counted_at" gorm:"not null;index:idx_reading_lookup"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name
func (InventoryReading) TableName() string {
	return "inventory_readings"
}

// Location is a site holding inventory and receiving orders
type Location struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Name   string `json:"name" gorm:"not null"`
	Active bool   `json:"active" gorm:"not null"`
}

// TableName specifies the table name
func (Location) TableName() string {
	return "locations"
}
