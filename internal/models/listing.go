package models

import "time"

type Listing struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Price       float64   `json:"price" yaml:"price"`
	PriceUnit   string    `json:"price_unit" yaml:"price_unit"` // hour, day, week
	Location    string    `json:"location" yaml:"location"`
	City        string    `json:"city,omitempty" yaml:"city"`
	State       string    `json:"state,omitempty" yaml:"state"`
	Country     string    `json:"country,omitempty" yaml:"country"`
	Category    string    `json:"category" yaml:"category"`
	Condition   string    `json:"condition" yaml:"condition"`
	Images      []string  `json:"images" yaml:"images"`
	OwnerID     string    `json:"owner_id" yaml:"owner_id"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// ListingPatch carries a partial update. Nil fields keep their prior values.
type ListingPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	PriceUnit   *string   `json:"price_unit,omitempty"`
	Location    *string   `json:"location,omitempty"`
	City        *string   `json:"city,omitempty"`
	State       *string   `json:"state,omitempty"`
	Country     *string   `json:"country,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Condition   *string   `json:"condition,omitempty"`
	Images      *[]string `json:"images,omitempty"`
}

// Apply merges set fields into the listing.
func (p ListingPatch) Apply(l *Listing) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.PriceUnit != nil {
		l.PriceUnit = *p.PriceUnit
	}
	if p.Location != nil {
		l.Location = *p.Location
	}
	if p.City != nil {
		l.City = *p.City
	}
	if p.State != nil {
		l.State = *p.State
	}
	if p.Country != nil {
		l.Country = *p.Country
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if p.Condition != nil {
		l.Condition = *p.Condition
	}
	if p.Images != nil {
		l.Images = *p.Images
	}
}
