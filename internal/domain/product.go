package domain

import (
	"fmt"
	"time"
)

// Category groups products on the menu.
type Category string

const (
	CategoryHeavyMeal  Category = "makanan_berat"
	CategoryLightSnack Category = "makanan_ringan"
	CategoryBeverage   Category = "minuman"
)

// Categories lists every category in menu order.
var Categories = []Category{CategoryHeavyMeal, CategoryLightSnack, CategoryBeverage}

var categoryLabels = map[Category]string{
	CategoryHeavyMeal:  "Makanan Berat",
	CategoryLightSnack: "Makanan Ringan",
	CategoryBeverage:   "Minuman",
}

// ParseCategory validates a stored or submitted category value.
func ParseCategory(v string) (Category, error) {
	c := Category(v)
	if _, ok := categoryLabels[c]; !ok {
		return "", fmt.Errorf("unknown category %q", v)
	}
	return c, nil
}

// Label is the display name shown on the menu.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Category    Category  `json:"category"`
	IsAvailable bool      `json:"isAvailable"`
	ImageRef    string    `json:"-"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CategoryGroup is one tab of the menu.
type CategoryGroup struct {
	Category Category  `json:"category"`
	Label    string    `json:"label"`
	Products []Product `json:"products"`
}
