package models

const (
	AddressHome   = "home"
	AddressOffice = "office"
	AddressOther  = "other"
)

type Address struct {
	ID         string `json:"id" bson:"id"`
	Label      string `json:"label" bson:"label"` // home, office, other
	FullName   string `json:"fullName" bson:"fullName"`
	Phone      string `json:"phone" bson:"phone"`
	Line1      string `json:"line1" bson:"line1"`
	Line2      string `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state" bson:"state"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
	IsDefault  bool   `json:"isDefault" bson:"isDefault"`
}

func (a Address) ToShipping() ShippingAddress {
	return ShippingAddress{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
