package models

// CategorySummary is derived from the products collection; categories are
// plain strings on the product.
type CategorySummary struct {
	Name  string `json:"name" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}
