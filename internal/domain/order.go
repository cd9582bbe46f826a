package domain

import (
	"fmt"
	"time"
)

// DeliveryMethod is how the order reaches the student. Payment is always cash
// on pickup or delivery.
type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
)

// ParseDeliveryMethod validates a stored or submitted delivery method.
func ParseDeliveryMethod(v string) (DeliveryMethod, error) {
	switch DeliveryMethod(v) {
	case DeliveryPickup, DeliveryDelivery:
		return DeliveryMethod(v), nil
	}
	return "", fmt.Errorf("unknown delivery method %q", v)
}

// Dorms are the accepted values of Order.StudentDorm.
var Dorms = []string{"Abu Bakar", "Usman", "Umar", "Khodijah", "Fatimah", "Aisyah"}

// IsDorm reports whether name is one of Dorms.
func IsDorm(name string) bool {
	for _, d := range Dorms {
		if d == name {
			return true
		}
	}
	return false
}

type Order struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	StudentName     string         `json:"studentName"`
	StudentDorm     string         `json:"studentDorm"`
	RoomNumber      string         `json:"roomNumber"`
	Phone           string         `json:"phone"`
	DeliveryMethod  DeliveryMethod `json:"deliveryMethod"`
	DeliveryAddress string         `json:"deliveryAddress,omitempty"`
	DeliveryTime    string         `json:"deliveryTime,omitempty"`
	Status          OrderStatus    `json:"status"`
	TotalAmount     int64          `json:"totalAmount"`
	Notes           string         `json:"notes,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	Items           []OrderItem    `json:"items,omitempty"`
}

// OrderItem keeps the product name and unit price as they were when the order
// was placed.
type OrderItem struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"orderId"`
	ProductID   string    `json:"productId,omitempty"`
	ProductName string    `json:"productName"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ItemsTotal sums price times quantity over items.
func ItemsTotal(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}
