package models

// Customer is the registered identity an order is placed under.
// Registration and login live outside the ordering flow; here the
// record is read-only.
type Customer struct {
	ID     int    `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Age    int    `json:"age" db:"age"`
	Phone  string `json:"phone" db:"phone"`
	Gender string `json:"gender" db:"gender"`
}
