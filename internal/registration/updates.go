package registration

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"leaguereg/internal/models"
)

// Guardian fields accepted by UpdateGuardianField
const (
	FieldFullName             = "fullName"
	FieldRelationship         = "relationship"
	FieldPhone                = "phone"
	FieldEmail                = "email"
	FieldStreet               = "street"
	FieldStreet2              = "street2"
	FieldCity                 = "city"
	FieldState                = "state"
	FieldZip                  = "zip"
	FieldIsCoach              = "isCoach"
	FieldAAUNumber            = "aauNumber"
	FieldSharesPrimaryAddress = "sharesPrimaryAddress"
)

// Player and team fields
const (
	FieldGender             = "gender"
	FieldDateOfBirth        = "dob"
	FieldSchoolName         = "schoolName"
	FieldGrade              = "grade"
	FieldHealthConcerns     = "healthConcerns"
	FieldName               = "name"
	FieldSex                = "sex"
	FieldLevelOfCompetition = "levelOfCompetition"
)

func unknownField(entity, field string) *Error {
	return ValidationError(fmt.Sprintf("Unknown %s field %q.", entity, field))
}

func setGuardianField(g *models.Guardian, field, value string) error {
	switch field {
	case FieldFullName:
		g.FullName = value
	case FieldRelationship:
		g.Relationship = value
	case FieldPhone:
		g.Phone = value
	case FieldEmail:
		g.Email = strings.TrimSpace(value)
	case FieldStreet:
		g.Address.Street = value
	case FieldStreet2:
		g.Address.Street2 = value
	case FieldCity:
		g.Address.City = value
	case FieldState:
		g.Address.State = strings.ToUpper(strings.TrimSpace(value))
	case FieldZip:
		g.Address.Zip = strings.TrimSpace(value)
	case FieldAAUNumber:
		g.AAUNumber = strings.TrimSpace(value)
	case FieldIsCoach, FieldSharesPrimaryAddress:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return ValidationError(fmt.Sprintf("%s must be true or false.", field))
		}
		if field == FieldIsCoach {
			g.IsCoach = b
		} else {
			g.SharesPrimaryAddress = b
		}
	default:
		return unknownField("guardian", field)
	}
	return nil
}

// UpdateGuardianField sets one field of the primary guardian
func UpdateGuardianField(s State, field, value string) (State, error) {
	if s.Done() {
		return s, nil
	}
	if field == FieldSharesPrimaryAddress {
		return s, ValidationError("The primary guardian always holds the registration address.")
	}
	next := s.clone()
	if err := setGuardianField(&next.Guardian, field, value); err != nil {
		return s, err
	}
	return next, nil
}

// AddGuardian appends a blank additional guardian sharing the primary address
func AddGuardian(s State) State {
	if s.Done() {
		return s
	}
	next := s.clone()
	next.AdditionalGuardians = append(next.AdditionalGuardians, models.Guardian{SharesPrimaryAddress: true})
	return next
}

// UpdateAdditionalGuardianField sets one field of an additional guardian
func UpdateAdditionalGuardianField(s State, index int, field, value string) (State, error) {
	if s.Done() {
		return s, nil
	}
	if index < 0 || index >= len(s.AdditionalGuardians) {
		return s, ValidationError("That guardian no longer exists.")
	}
	next := s.clone()
	if err := setGuardianField(&next.AdditionalGuardians[index], field, value); err != nil {
		return s, err
	}
	return next, nil
}

// RemoveGuardian drops an additional guardian
func RemoveGuardian(s State, index int) (State, error) {
	if s.Done() {
		return s, nil
	}
	if index < 0 || index >= len(s.AdditionalGuardians) {
		return s, ValidationError("That guardian no longer exists.")
	}
	next := s.clone()
	next.AdditionalGuardians = slices.Delete(next.AdditionalGuardians, index, index+1)
	return next, nil
}

// ResolveGuardianAddresses copies the primary address into every additional
// guardian flagged as sharing it. It runs at submission, never while editing.
func ResolveGuardianAddresses(primary models.Guardian, additional []models.Guardian) []models.Guardian {
	out := slices.Clone(additional)
	for i := range out {
		if out[i].SharesPrimaryAddress {
			out[i].Address = primary.Address
		}
	}
	return out
}

func (s State) registrationYear() int {
	if s.Target.Year != 0 {
		return s.Target.Year
	}
	return time.Now().Year()
}

// UpdatePlayerField sets one field of the player at index. A new date of
// birth recomputes the grade unless the grade was chosen by hand; choosing
// a grade marks it as overridden, and clearing it restores the derived one.
func UpdatePlayerField(s State, index int, field, value string) (State, error) {
	if s.Done() {
		return s, nil
	}
	if index < 0 || index >= len(s.Players) {
		return s, ValidationError("That player no longer exists.")
	}

	next := s.clone()
	p := &next.Players[index]
	switch field {
	case FieldFullName:
		p.FullName = value
	case FieldGender:
		g := models.Gender(value)
		if value != "" && !g.Valid() {
			return s, ValidationError("Gender must be Male or Female.")
		}
		p.Gender = g
	case FieldDateOfBirth:
		p.DateOfBirth = strings.TrimSpace(value)
		if !p.IsGradeOverridden {
			if grade, err := GradeForDate(p.DateOfBirth, s.registrationYear()); err == nil {
				p.Grade = grade
			}
		}
	case FieldGrade:
		if value == "" {
			p.IsGradeOverridden = false
			p.Grade = ""
			if grade, err := GradeForDate(p.DateOfBirth, s.registrationYear()); err == nil {
				p.Grade = grade
			}
			break
		}
		g := models.Grade(value)
		if !g.Valid() {
			return s, ValidationError("Grade must be PK, K, or 1 through 12.")
		}
		p.Grade = g
		p.IsGradeOverridden = true
	case FieldSchoolName:
		p.SchoolName = value
	case FieldHealthConcerns:
		p.HealthConcerns = value
	case FieldAAUNumber:
		p.AAUNumber = strings.TrimSpace(value)
	default:
		return s, unknownField("player", field)
	}

	if p.ID == "" {
		next.PlayersSaved = false
	}
	return next, nil
}

// AddPlayer appends a blank draft player
func AddPlayer(s State) State {
	if s.Done() {
		return s
	}
	next := s.clone()
	next.Players = append(next.Players, models.Player{})
	next.PlayersSaved = false
	return next
}

// RemovePlayer drops the player at index and any selection of it
func RemovePlayer(s State, index int) (State, error) {
	if s.Done() {
		return s, nil
	}
	if index < 0 || index >= len(s.Players) {
		return s, ValidationError("That player no longer exists.")
	}
	next := s.clone()
	removed := next.Players[index]
	next.Players = slices.Delete(next.Players, index, index+1)
	if removed.ID != "" {
		next.SelectedIDs = slices.DeleteFunc(next.SelectedIDs, func(id string) bool { return id == removed.ID })
	}
	return next, nil
}

// UpdateTeamField sets one field of the team at index
func UpdateTeamField(s State, index int, field, value string) (State, error) {
	if s.Done() {
		return s, nil
	}
	if index < 0 || index >= len(s.Teams) {
		return s, ValidationError("That team no longer exists.")
	}

	next := s.clone()
	t := &next.Teams[index]
	switch field {
	case FieldName:
		t.Name = value
	case FieldGrade:
		g := models.Grade(value)
		if value != "" && !g.Valid() {
			return s, ValidationError("Grade must be PK, K, or 1 through 12.")
		}
		t.Grade = g
	case FieldSex:
		g := models.Gender(value)
		if value != "" && !g.Valid() {
			return s, ValidationError("Team sex must be Male or Female.")
		}
		t.Sex = g
	case FieldLevelOfCompetition:
		t.LevelOfCompetition = value
	default:
		return s, unknownField("team", field)
	}

	if t.ID == "" {
		next.TeamsSaved = false
	}
	return next, nil
}

// AddTeam appends a blank draft team
func AddTeam(s State) State {
	if s.Done() {
		return s
	}
	next := s.clone()
	next.Teams = append(next.Teams, models.Team{})
	next.TeamsSaved = false
	return next
}

// RemoveTeam drops the team at index
func RemoveTeam(s State, index int) (State, error) {
	if s.Done() {
		return s, nil
	}
	if index < 0 || index >= len(s.Teams) {
		return s, ValidationError("That team no longer exists.")
	}
	next := s.clone()
	next.Teams = slices.Delete(next.Teams, index, index+1)
	return next, nil
}

// ToggleSelection selects or deselects a saved player or team by id
func ToggleSelection(s State, id string) (State, error) {
	if s.Done() {
		return s, nil
	}
	known := slices.ContainsFunc(s.Players, func(p models.Player) bool { return p.ID == id }) ||
		slices.ContainsFunc(s.Teams, func(t models.Team) bool { return t.ID == id })
	if id == "" || !known {
		return s, ValidationError("Only saved players can be selected.")
	}

	next := s.clone()
	if next.selected(id) {
		next.SelectedIDs = slices.DeleteFunc(next.SelectedIDs, func(v string) bool { return v == id })
	} else {
		next.SelectedIDs = append(next.SelectedIDs, id)
	}
	return next, nil
}

// SelectPackage chooses a pricing package; nil clears the choice
func SelectPackage(s State, pkg *models.PricingPackage) State {
	if s.Done() {
		return s
	}
	next := s.clone()
	if pkg == nil {
		next.Package = nil
		return next
	}
	p := *pkg
	next.Package = &p
	return next
}

// AcceptTerms records the waiver acknowledgement
func AcceptTerms(s State, accepted bool) State {
	if s.Done() {
		return s
	}
	next := s.clone()
	next.TermsAccepted = accepted
	return next
}

// MarkAccountCreated records the email of the account just created
func MarkAccountCreated(s State, email string) State {
	if s.Done() {
		return s
	}
	next := s.clone()
	next.PendingEmail = email
	next.Error = ""
	return next
}

// MarkEmailVerified records a verified and signed-in account
func MarkEmailVerified(s State, userID int64) State {
	if s.Done() {
		return s
	}
	next := s.clone()
	next.EmailVerified = true
	next.Authenticated = true
	next.UserID = userID
	next.Error = ""
	return next
}

// MarkGuardianRegistered records the persisted primary and additional guardians
func MarkGuardianRegistered(s State, primary models.Guardian, additional []models.Guardian) State {
	if s.Done() {
		return s
	}
	next := s.clone()
	next.Guardian = primary
	next.AdditionalGuardians = slices.Clone(additional)
	next.GuardianRegistered = true
	for i := range next.Players {
		if next.Players[i].ParentID == "" {
			next.Players[i].ParentID = primary.ID
		}
	}
	return next
}
