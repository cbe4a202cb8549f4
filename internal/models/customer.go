package models

type Customer struct {
	ID   int64  `json:"id"`
	Name string `json:"customer_name"`
	Logo string `json:"customer_logo"`
}

// CustomerRef is the customer object joined onto a tool row.
type CustomerRef struct {
	ID   int64  `json:"id"`
	Name string `json:"customer_name"`
	Logo string `json:"customer_logo"`
}
