package domain

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order
type Status string

const (
	// StatusSuggested is virtual: orders in this state are never persisted.
	StatusSuggested Status = "suggested"
	StatusSent      Status = "sent"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a persisted status
func (s Status) Valid() bool {
	return s == StatusSent || s == StatusCompleted
}

// LineOrigin records how a line entered the order
type LineOrigin string

const (
	OriginSuggestion LineOrigin = "suggestion"
	OriginManual     LineOrigin = "manual"
)

// Order is a supplier-addressed purchase for one location
type Order struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Reference     string     `json:"reference" gorm:"uniqueIndex;not null"`
	LocationID    uint       `json:"location_id" gorm:"not null;index:idx_order_scope"`
	LocationName  string     `json:"location_name"`
	SupplierName  string     `json:"supplier_name" gorm:"not null;index:idx_order_scope"`
	SupplierEmail string     `json:"supplier_email"`
	Status        Status     `json:"status" gorm:"not null;index:idx_order_scope"`
	CreatedAt     time.Time  `json:"created_at"`
	SentAt        *time.Time `json:"sent_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Lines      []OrderLine     `json:"lines" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	NetTotal   decimal.Decimal `json:"net_total" gorm:"type:numeric(12,2);not null;default:0"`
	GrossTotal decimal.Decimal `json:"gross_total" gorm:"type:numeric(12,2);not null;default:0"`

	Note                 string         `json:"note"`
	DeliveryNotePhotos   pq.StringArray `json:"delivery_note_photos" gorm:"type:text[]"`
	HasVariance          bool           `json:"has_variance"`
	VarianceAcknowledged bool           `json:"variance_acknowledged"`
	CompletedBy          string         `json:"completed_by"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "orders"
}

// OrderLine is one product on an order
type OrderLine struct {
	ID          uint                `json:"id" gorm:"primaryKey"`
	OrderID     uint                `json:"order_id" gorm:"not null;index"`
	ProductID   uint                `json:"product_id" gorm:"not null"`
	ProductName string              `json:"product_name"`
	OrderedQty  float64             `json:"ordered_qty"`
	Unit        string              `json:"unit"`
	UnitPrice   decimal.Decimal     `json:"unit_price" gorm:"type:numeric(12,4);not null;default:0"`
	TaxRate     decimal.NullDecimal `json:"tax_rate" gorm:"type:numeric(6,4)"`
	ReceivedQty float64             `json:"received_qty"`
	Confirmed   bool                `json:"confirmed"`
	Origin      LineOrigin          `json:"origin" gorm:"not null;default:suggestion"`
}

// TableName specifies the table name
func (OrderLine) TableName() string {
	return "order_lines"
}

// NewReference returns an order reference of the form ORD-20260302-1a2b3c4d
func NewReference(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), hex.EncodeToString(id[:4]))
}

// Orderable returns the lines with a positive ordered quantity
func Orderable(lines []OrderLine) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		if l.OrderedQty > 0 {
			out = append(out, l)
		}
	}
	return out
}

// Unconfirmed returns the orderable lines the receiver has not checked yet
func (o *Order) Unconfirmed() []OrderLine {
	var out []OrderLine
	for _, l := range o.Lines {
		if l.OrderedQty > 0 && !l.Confirmed {
			out = append(out, l)
		}
	}
	return out
}

// VarianceLines returns the lines whose received quantity differs from the
// ordered one
func (o *Order) VarianceLines() []OrderLine {
	var out []OrderLine
	for _, l := range o.Lines {
		if l.ReceivedQty != l.OrderedQty {
			out = append(out, l)
		}
	}
	return out
}

// Contains reports whether the order carries product with a positive quantity
func (o *Order) Contains(productID uint) bool {
	for _, l := range o.Lines {
		if l.ProductID == productID && l.OrderedQty > 0 {
			return true
		}
	}
	return false
}
