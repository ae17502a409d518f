package models

import "time"

// Address is a US postal address
type Address struct {
	Street  string `json:"street"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// IsZero reports whether no address field has been filled in
func (a Address) IsZero() bool {
	return a == Address{}
}

// Guardian represents a parent or other responsible adult
type Guardian struct {
	ID                   string    `json:"id,omitempty"`
	UserID               int64     `json:"userId,omitempty"`
	FullName             string    `json:"fullName"`
	Relationship         string    `json:"relationship"`
	Phone                string    `json:"phone"`
	Email                string    `json:"email"`
	Address              Address   `json:"address"`
	IsCoach              bool      `json:"isCoach"`
	AAUNumber            string    `json:"aauNumber,omitempty"`
	IsPrimary            bool      `json:"isPrimary"`
	SharesPrimaryAddress bool      `json:"sharesPrimaryAddress,omitempty"`
	CreatedAt            time.Time `json:"createdAt,omitempty"`
}

// CoachWarning returns a non-empty message when a coach has no membership number.
// It is advisory only and never blocks a save.
func (g *Guardian) CoachWarning() string {
	if g.IsCoach && g.AAUNumber == "" {
		return "coaches should provide an AAU membership number"
	}
	return ""
}
