package models

import "time"

// Settings is a single document edited from the admin settings screen.
// Tax and shipping values are informational; pricing uses fixed constants.
type Settings struct {
	StoreName             string    `json:"storeName" bson:"storeName"`
	SupportEmail          string    `json:"supportEmail" bson:"supportEmail"`
	SupportPhone          string    `json:"supportPhone" bson:"supportPhone"`
	Announcement          string    `json:"announcement" bson:"announcement"`
	TaxRate               float64   `json:"taxRate" bson:"taxRate"`
	FreeShippingThreshold float64   `json:"freeShippingThreshold" bson:"freeShippingThreshold"`
	Maintenance           bool      `json:"maintenance" bson:"maintenance"`
	UpdatedAt             time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
