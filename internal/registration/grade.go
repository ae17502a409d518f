package registration

import (
	"strconv"
	"time"

	"leaguereg/internal/models"
)

// School-entry cutoff: a child's grade follows their age on August 31 of
// the registration year.
const (
	cutoffMonth = time.August
	cutoffDay   = 31
)

// GradeFor derives the school grade for a date of birth
func GradeFor(dob time.Time, registrationYear int) models.Grade {
	cutoff := time.Date(registrationYear, cutoffMonth, cutoffDay, 0, 0, 0, 0, time.UTC)

	age := cutoff.Year() - dob.Year()
	if cutoff.Month() < dob.Month() || (cutoff.Month() == dob.Month() && cutoff.Day() < dob.Day()) {
		age--
	}

	switch {
	case age < 5:
		return models.GradePK
	case age == 5:
		return models.GradeK
	case age > 17:
		return "12"
	default:
		return models.Grade(strconv.Itoa(age - 5))
	}
}

// GradeForDate parses an ISO date of birth and derives the grade
func GradeForDate(dob string, registrationYear int) (models.Grade, error) {
	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return "", err
	}
	return GradeFor(t, registrationYear), nil
}
