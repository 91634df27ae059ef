package domain

import "time"

// Profile is the personal and address data kept per user id.
type Profile struct {
	Name    string
	TaxID   string // CPF
	Phone   string
	Address Address

	UpdatedAt time.Time
}

// Address is a postal address. Lookups fill Street, Neighborhood, City and Region from PostalCode.
type Address struct {
	PostalCode   string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	Region       string // state abbreviation, e.g. SP
}

func (p Profile) IsZero() bool {
	return p == Profile{}
}
