package models

import "github.com/shopspring/decimal"

// MenuCategory represents the category of a menu item
type MenuCategory string

const (
	CategorySet      MenuCategory = "Set"
	CategoryALaCarte MenuCategory = "A la carte"
)

// MenuItem is a purchasable item. Price is the authoritative unit
// price; stock never goes below zero.
type MenuItem struct {
	ID       int             `json:"id" db:"id"`
	Name     string          `json:"name" db:"name"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Category MenuCategory    `json:"category" db:"category"`
	Stock    int             `json:"stock" db:"stock"`
}
