package models

import "time"

// TournamentRegistration is one entry of a team's tournament history
type TournamentRegistration struct {
	Tournament      string    `json:"tournament"`
	Year            int       `json:"year"`
	PaymentStatus   string    `json:"paymentStatus,omitempty"`
	PaymentComplete bool      `json:"paymentComplete,omitempty"`
	AmountPaid      int64     `json:"amountPaid,omitempty"`
	PaymentID       string    `json:"paymentId,omitempty"`
	CardBrand       string    `json:"cardBrand,omitempty"`
	CardLast4       string    `json:"cardLast4,omitempty"`
	RegisteredAt    time.Time `json:"registeredAt,omitempty"`
}

// Team is a tournament entrant
type Team struct {
	ID                 string                   `json:"id,omitempty"`
	GuardianID         string                   `json:"guardianId,omitempty"`
	Name               string                   `json:"name"`
	Grade              Grade                    `json:"grade"`
	Sex                Gender                   `json:"sex"`
	LevelOfCompetition string                   `json:"levelOfCompetition"`
	CoachIDs           []string                 `json:"coachIds,omitempty"`
	PaymentComplete    bool                     `json:"paymentComplete,omitempty"`
	PaymentStatus      string                   `json:"paymentStatus,omitempty"`
	Tournaments        []TournamentRegistration `json:"tournaments,omitempty"`
	CreatedAt          time.Time                `json:"createdAt,omitempty"`
}

func (t *Team) RegistrantID() string { return t.ID }

func (t *Team) PaymentHistory() []PaymentRecord {
	records := make([]PaymentRecord, 0, len(t.Tournaments))
	for _, r := range t.Tournaments {
		records = append(records, PaymentRecord{
			Name:            r.Tournament,
			Year:            r.Year,
			PaymentStatus:   r.PaymentStatus,
			PaymentComplete: r.PaymentComplete,
		})
	}
	return records
}

func (t *Team) TopLevelPayment() (string, bool) { return t.PaymentStatus, t.PaymentComplete }
