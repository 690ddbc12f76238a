package types

// Address carries the structured shipping fields the storefront collects.
// Shipping normalizes it into a single geocoder-friendly line.
type Address struct {
	Street    string `json:"street"`
	Apartment string `json:"apartment,omitempty"`
	Ward      string `json:"ward,omitempty"`
	District  string `json:"district,omitempty"`
	City      string `json:"city"`
	Country   string `json:"country"`
}
