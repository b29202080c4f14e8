package domain

// OrderPlaced is written to the outbox in the same transaction that commits
// the order.
type OrderPlaced struct {
	OrderID      string      `json:"order_id"`
	BuyerID      int64       `json:"buyer_id"`
	RestaurantID int64       `json:"restaurant_id"`
	TotalCents   int64       `json:"total_amount"`
	Lines        []OrderLine `json:"items"`
}
