package domain

import "time"

type Order struct {
	ID                  string
	BuyerID             int64
	RestaurantID        int64
	TotalCents          int64
	DeliveryLocation    string
	SpecialInstructions string
	Status              OrderStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OrderLine snapshots the unit price at order time; later price changes on
// the menu item never touch committed lines.
type OrderLine struct {
	OrderID       string `json:"-"`
	ItemID        int64  `json:"item_id"`
	ItemName      string `json:"item_name"`
	Quantity      int    `json:"quantity"`
	PriceCents    int64  `json:"price"`
	SubtotalCents int64  `json:"subtotal"`
}

// Placement is a buyer's order request before the commit protocol runs.
type Placement struct {
	OrderID             string
	BuyerID             int64
	RestaurantID        int64
	Lines               []RequestedLine
	DeliveryLocation    string
	SpecialInstructions string
	PaymentMethod       string
}

// Receipt is the result of a committed order: the server-computed total and
// the priced lines, exactly as persisted.
type Receipt struct {
	OrderID    string      `json:"order_id"`
	TotalCents int64       `json:"total_amount"`
	Lines      []OrderLine `json:"items"`
}

// Summary is one row of an order listing.
type Summary struct {
	OrderID        string      `json:"order_id"`
	RestaurantID   int64       `json:"restaurant_id"`
	RestaurantName string      `json:"restaurant_name"`
	BuyerName      string      `json:"buyer_name,omitempty"`
	TotalCents     int64       `json:"total_amount"`
	Status         OrderStatus `json:"order_status"`
	CreatedAt      time.Time   `json:"order_date"`
}

// Details is an order joined with its lines for the detail view.
type Details struct {
	Order          Order       `json:"-"`
	OrderID        string      `json:"order_id"`
	RestaurantName string      `json:"restaurant_name"`
	BuyerName      string      `json:"buyer_name"`
	TotalCents     int64       `json:"total_amount"`
	Status         OrderStatus `json:"order_status"`
	Location       string      `json:"delivery_location"`
	Instructions   string      `json:"special_instructions"`
	CreatedAt      time.Time   `json:"order_date"`
	Lines          []OrderLine `json:"items"`
}
