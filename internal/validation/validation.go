package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"leaguereg/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	zipRegex   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	stateRegex = regexp.MustCompile(`^[A-Z]{2}$`)
	dateLayout = "2006-01-02"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidatePhone requires exactly ten digits once formatting characters are removed
func ValidatePhone(phone string) error {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return ValidationError{Field: "phone", Message: "phone number is required"}
	}
	if len(digits) != 10 {
		return ValidationError{Field: "phone", Message: "phone number must be 10 digits"}
	}
	return nil
}

// ValidateAddress checks that an address is structurally complete
func ValidateAddress(a models.Address) error {
	if strings.TrimSpace(a.Street) == "" {
		return ValidationError{Field: "address.street", Message: "street is required"}
	}
	if strings.TrimSpace(a.City) == "" {
		return ValidationError{Field: "address.city", Message: "city is required"}
	}
	if !stateRegex.MatchString(a.State) {
		return ValidationError{Field: "address.state", Message: "state must be a 2-letter code"}
	}
	if !zipRegex.MatchString(a.Zip) {
		return ValidationError{Field: "address.zip", Message: "ZIP code must be 5 digits or ZIP+4"}
	}
	return nil
}

// ValidateGuardian checks the fields required to complete the guardian step
func ValidateGuardian(g models.Guardian, checkAddress bool) error {
	if strings.TrimSpace(g.FullName) == "" {
		return ValidationError{Field: "fullName", Message: "guardian name is required"}
	}
	if strings.TrimSpace(g.Relationship) == "" {
		return ValidationError{Field: "relationship", Message: "relationship to player is required"}
	}
	if err := ValidatePhone(g.Phone); err != nil {
		return err
	}
	if checkAddress {
		return ValidateAddress(g.Address)
	}
	return nil
}

// ValidatePlayer checks the fields required to save a player
func ValidatePlayer(p models.Player) error {
	if strings.TrimSpace(p.FullName) == "" {
		return ValidationError{Field: "fullName", Message: "player name is required"}
	}
	if !p.Gender.Valid() {
		return ValidationError{Field: "gender", Message: "gender must be Male or Female"}
	}
	if err := ValidateDate(p.DateOfBirth); err != nil {
		return err
	}
	if !p.Grade.Valid() {
		return ValidationError{Field: "grade", Message: "grade is required"}
	}
	return nil
}

// ValidateTeam checks the fields required to save a team
func ValidateTeam(t models.Team) error {
	if strings.TrimSpace(t.Name) == "" {
		return ValidationError{Field: "name", Message: "team name is required"}
	}
	if !t.Grade.Valid() {
		return ValidationError{Field: "grade", Message: "team grade is required"}
	}
	if !t.Sex.Valid() {
		return ValidationError{Field: "sex", Message: "team sex must be Male or Female"}
	}
	if strings.TrimSpace(t.LevelOfCompetition) == "" {
		return ValidationError{Field: "levelOfCompetition", Message: "level of competition is required"}
	}
	return nil
}

// ValidateDate checks an ISO date (YYYY-MM-DD)
func ValidateDate(s string) error {
	if s == "" {
		return ValidationError{Field: "dob", Message: "date of birth is required"}
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return ValidationError{Field: "dob", Message: "date of birth must be YYYY-MM-DD"}
	}
	return nil
}
