package models

import "time"

// Gender of a player or sex of a team
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Valid reports whether g is one of the known values
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Grade is a school grade: PK, K, or 1 through 12
type Grade string

const (
	GradePK Grade = "PK"
	GradeK  Grade = "K"
)

// Grades lists every grade in school order
var Grades = []Grade{GradePK, GradeK, "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}

// Valid reports whether gr is a known grade
func (gr Grade) Valid() bool {
	for _, g := range Grades {
		if g == gr {
			return true
		}
	}
	return false
}

// Payment status values recorded on history entries
const (
	PaymentStatusPaid    = "paid"
	PaymentStatusPending = "pending"
	PaymentStatusFailed  = "failed"
)

// SeasonRegistration is one entry of a player's season history
type SeasonRegistration struct {
	Season          string    `json:"season"`
	Year            int       `json:"year"`
	TryoutID        string    `json:"tryoutId,omitempty"`
	PaymentStatus   string    `json:"paymentStatus,omitempty"`
	PaymentComplete bool      `json:"paymentComplete,omitempty"`
	AmountPaid      int64     `json:"amountPaid,omitempty"`
	PaymentID       string    `json:"paymentId,omitempty"`
	CardBrand       string    `json:"cardBrand,omitempty"`
	CardLast4       string    `json:"cardLast4,omitempty"`
	RegisteredAt    time.Time `json:"registeredAt,omitempty"`
}

// Player is a minor who can be registered for seasons, trainings and tryouts
type Player struct {
	ID                string               `json:"id,omitempty"`
	ParentID          string               `json:"parentId,omitempty"`
	FullName          string               `json:"fullName"`
	Gender            Gender               `json:"gender"`
	DateOfBirth       string               `json:"dob"`
	SchoolName        string               `json:"schoolName"`
	Grade             Grade                `json:"grade"`
	IsGradeOverridden bool                 `json:"isGradeOverridden"`
	HealthConcerns    string               `json:"healthConcerns,omitempty"`
	AAUNumber         string               `json:"aauNumber,omitempty"`
	PaymentComplete   bool                 `json:"paymentComplete,omitempty"`
	PaymentStatus     string               `json:"paymentStatus,omitempty"`
	Seasons           []SeasonRegistration `json:"seasons,omitempty"`
	CreatedAt         time.Time            `json:"createdAt,omitempty"`
}

// PaymentRecord is the history view shared by players and teams
type PaymentRecord struct {
	Name            string
	Year            int
	TryoutID        string
	PaymentStatus   string
	PaymentComplete bool
}

// Paid reports whether the record carries a completed payment
func (r PaymentRecord) Paid() bool {
	return r.PaymentStatus == PaymentStatusPaid || r.PaymentComplete
}

func (p *Player) RegistrantID() string { return p.ID }

func (p *Player) PaymentHistory() []PaymentRecord {
	records := make([]PaymentRecord, 0, len(p.Seasons))
	for _, s := range p.Seasons {
		records = append(records, PaymentRecord{
			Name:            s.Season,
			Year:            s.Year,
			TryoutID:        s.TryoutID,
			PaymentStatus:   s.PaymentStatus,
			PaymentComplete: s.PaymentComplete,
		})
	}
	return records
}

func (p *Player) TopLevelPayment() (string, bool) { return p.PaymentStatus, p.PaymentComplete }
