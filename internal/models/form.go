package models

import "time"

// PricingPackage is one selectable price option of a registration form
type PricingPackage struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       Dollars `json:"price"`
	Description string  `json:"description,omitempty"`
}

// RegistrationFormConfig describes one registration form as set up by league staff.
// Only the pricing fields feed the amount calculation; the rest is for display.
type RegistrationFormConfig struct {
	Kind            string           `json:"kind"`
	Active          bool             `json:"active"`
	RequiresPayment bool             `json:"requiresPayment"`
	Season          string           `json:"season,omitempty"`
	Year            int              `json:"year"`
	TryoutID        string           `json:"tryoutId,omitempty"`
	BasePrice       Dollars          `json:"basePrice,omitempty"`
	Packages        []PricingPackage `json:"packages,omitempty"`
	TournamentName  string           `json:"tournamentName,omitempty"`
	TournamentFee   Dollars          `json:"tournamentFee,omitempty"`
	TryoutFee       Dollars          `json:"tryoutFee,omitempty"`
	Deadline        *time.Time       `json:"deadline,omitempty"`
	Locations       []string         `json:"locations,omitempty"`
	Description     string           `json:"description,omitempty"`
	UpdatedAt       time.Time        `json:"updatedAt,omitempty"`
}

// Package returns the package with the given id, or nil
func (c *RegistrationFormConfig) Package(id string) *PricingPackage {
	for i := range c.Packages {
		if c.Packages[i].ID == id {
			p := c.Packages[i]
			return &p
		}
	}
	return nil
}
