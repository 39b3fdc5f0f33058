package domain

import "time"

// CompositionRule states that a semi-finished product, identified by name,
// stands in for a quantity of a raw material. The proportion is taken from the
// rate ingredient of the producing recipe divided by the recipe yield.
type CompositionRule struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	SourceName       string    `json:"source_name" gorm:"not null;index"`
	TargetProductID  uint      `json:"target_product_id" gorm:"not null;index"`
	RateIngredientID uint      `json:"rate_ingredient_id"`
	YieldQuantity    float64   `json:"yield_quantity"`
	YieldUnit        Unit      `json:"yield_unit"`
	Active           bool      `json:"active" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (CompositionRule) TableName() string {
	return "composition_rules"
}

// RecipeIngredient is one input line of a production recipe
type RecipeIngredient struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	RecipeName string  `json:"recipe_name" gorm:"index"`
	ProductID  uint    `json:"product_id" gorm:"index"`
	Quantity   float64 `json:"quantity" gorm:"not null"`
	Unit       Unit    `json:"unit" gorm:"not null"`
	// UnitsPerPackage and WeightPerUnit apply when Unit is package-based.
	UnitsPerPackage float64 `json:"units_per_package"`
	WeightPerUnit   float64 `json:"weight_per_unit"`
}

// TableName specifies the table name
func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

// Package returns the package breakdown of the ingredient quantity
func (i *RecipeIngredient) Package() PackageSpec {
	return PackageSpec{UnitsPerPackage: i.UnitsPerPackage, WeightPerUnit: i.WeightPerUnit}
}
