package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supplier is a vendor addressed by orders
type Supplier struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null"`
	// Key is the normalized name used for exact matching.
	Key               string          `json:"key" gorm:"index"`
	ContactEmail      string          `json:"contact_email"`
	ContactName       string          `json:"contact_name"`
	MinimumOrderValue decimal.Decimal `json:"minimum_order_value" gorm:"type:numeric(12,2);not null;default:0"`
	Active            bool            `json:"active" gorm:"not null"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (Supplier) TableName() string {
	return "suppliers"
}

// BeforeSave keeps Key in sync with Name
func (s *Supplier) BeforeSave(tx *gorm.DB) error {
	s.Key = NormalizeSupplierKey(s.Name)
	return nil
}

// NormalizeSupplierKey lower-cases, trims and collapses inner whitespace
func NormalizeSupplierKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// SupplierNamesMatch is the legacy free-text matcher: case-insensitive
// substring containment in either direction. Empty names never match.
func SupplierNamesMatch(a, b string) bool {
	ka, kb := NormalizeSupplierKey(a), NormalizeSupplierKey(b)
	if ka == "" || kb == "" {
		return false
	}
	return strings.Contains(ka, kb) || strings.Contains(kb, ka)
}

// MatchSupplier finds the supplier record for a product's free-text supplier
// field. Exact key matches win over substring matches.
func MatchSupplier(suppliers []Supplier, name string) (*Supplier, bool) {
	key := NormalizeSupplierKey(name)
	if key == "" {
		return nil, false
	}
	for i := range suppliers {
		if NormalizeSupplierKey(suppliers[i].Name) == key {
			return &suppliers[i], true
		}
	}
	for i := range suppliers {
		if SupplierNamesMatch(suppliers[i].Name, name) {
			return &suppliers[i], true
		}
	}
	return nil, false
}
