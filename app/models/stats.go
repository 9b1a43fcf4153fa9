package models

// AdminStats summarises the whole store for the dashboard.
type AdminStats struct {
	Users     int64   `json:"users"`
	MenuItems int64   `json:"menuItems"`
	Orders    int64   `json:"orders"`
	Revenue   float64 `json:"revenue"`
}

// UserStats summarises one customer's purchase history.
type UserStats struct {
	Orders   int64   `json:"orders"`
	Menu     int64   `json:"menu"`
	Payments int64   `json:"payments"`
	Spent    float64 `json:"spent"`
}

// CategoryStats is one row of the order-stats breakdown.
type CategoryStats struct {
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Total    float64 `json:"total"`
}
