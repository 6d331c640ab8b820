package model

import "time"

// Service is a wedding-service listing owned by a provider.  Price is
// stored in rupees as a decimal; the payment layer converts it to paise
// (minor units) when minting gateway orders.
//
// Fields:
//  ID          – primary key identifier.
//  ProviderID  – owning provider account.
//  Name        – listing title.
//  Description – optional free-text description.
//  Price       – price in rupees.
//  PhotoURL    – optional image URL.
//  Location    – city or area the service operates in.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Service struct {
	ID          uint64     // services.id
	ProviderID  uint64     // services.provider_id
	Name        string     // services.name
	Description *string    // services.description (nullable)
	Price       float64    // services.price
	PhotoURL    *string    // services.photo_url (nullable)
	Location    string     // services.location
	CreatedAt   time.Time  // services.created_at
	UpdatedAt   time.Time  // services.updated_at
}

// PricePaise returns the listing price converted to paise, the integer
// minor currency unit the payment gateway operates in.  Half-paise
// amounts round to the nearest paisa.
func (s Service) PricePaise() int64 {
	return int64(s.Price*100 + 0.5)
}
