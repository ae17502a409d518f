package registration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaguereg/internal/models"
)

func TestGradeFor(t *testing.T) {
	tests := []struct {
		dob  string
		year int
		want models.Grade
	}{
		{dob: "2019-08-31", year: 2025, want: "1"},
		{dob: "2019-09-01", year: 2025, want: models.GradeK},
		{dob: "2020-08-31", year: 2025, want: models.GradeK},
		{dob: "2021-01-01", year: 2025, want: models.GradePK},
		{dob: "2013-05-01", year: 2025, want: "7"},
		{dob: "2008-08-31", year: 2025, want: "12"},
		{dob: "2007-01-01", year: 2025, want: "12"},
	}

	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			got, err := GradeForDate(tt.dob, tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := GradeForDate("03/02/2014", 2025)
	assert.Error(t, err)

	dob := time.Date(2016, time.December, 24, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, models.Grade("3"), GradeFor(dob, 2025))
}

func TestUpdatesDoNotModifyInput(t *testing.T) {
	s := State{Kind: KindPlayer, CurrentStep: StepPlayer, Players: []models.Player{{FullName: "Jamie"}}}

	next, err := UpdatePlayerField(s, 0, FieldFullName, "Jamie Parent")
	require.NoError(t, err)
	assert.Equal(t, "Jamie", s.Players[0].FullName)
	assert.Equal(t, "Jamie Parent", next.Players[0].FullName)

	added := AddPlayer(s)
	assert.Len(t, s.Players, 1)
	assert.Len(t, added.Players, 2)

	withGuardian := AddGuardian(s)
	assert.Empty(t, s.AdditionalGuardians)
	require.Len(t, withGuardian.AdditionalGuardians, 1)
	assert.True(t, withGuardian.AdditionalGuardians[0].SharesPrimaryAddress)
}

func TestDateOfBirthDerivesGrade(t *testing.T) {
	s := State{Kind: KindPlayer, CurrentStep: StepPlayer, Target: Target{Year: 2025}}
	s = AddPlayer(s)

	s, err := UpdatePlayerField(s, 0, FieldDateOfBirth, "2013-05-01")
	require.NoError(t, err)
	assert.Equal(t, models.Grade("7"), s.Players[0].Grade)
	assert.False(t, s.Players[0].IsGradeOverridden)

	s, err = UpdatePlayerField(s, 0, FieldGrade, "8")
	require.NoError(t, err)
	assert.Equal(t, models.Grade("8"), s.Players[0].Grade)
	assert.True(t, s.Players[0].IsGradeOverridden)

	s, err = UpdatePlayerField(s, 0, FieldDateOfBirth, "2019-08-31")
	require.NoError(t, err)
	assert.Equal(t, models.Grade("8"), s.Players[0].Grade, "an overridden grade survives a new date of birth")

	s, err = UpdatePlayerField(s, 0, FieldGrade, "")
	require.NoError(t, err)
	assert.Equal(t, models.Grade("1"), s.Players[0].Grade)
	assert.False(t, s.Players[0].IsGradeOverridden)

	_, err = UpdatePlayerField(s, 0, FieldGrade, "13")
	assert.True(t, IsKind(err, Validation))
}

func TestUpdatePlayerFieldErrors(t *testing.T) {
	s := AddPlayer(State{Kind: KindPlayer, CurrentStep: StepPlayer})

	_, err := UpdatePlayerField(s, 3, FieldFullName, "x")
	assert.True(t, IsKind(err, Validation))

	_, err = UpdatePlayerField(s, 0, "shoeSize", "9")
	assert.True(t, IsKind(err, Validation))

	_, err = UpdatePlayerField(s, 0, FieldGender, "Other")
	assert.True(t, IsKind(err, Validation))
}

func TestEditingUnsavedPlayerClearsSavedFlag(t *testing.T) {
	s := State{
		Kind:         KindPlayer,
		CurrentStep:  StepPlayer,
		PlayersSaved: true,
		Players:      []models.Player{{ID: "65a1f0c2b3d4e5f601234567", FullName: "Saved"}},
	}

	next, err := UpdatePlayerField(s, 0, FieldSchoolName, "Lincoln")
	require.NoError(t, err)
	assert.True(t, next.PlayersSaved)

	next = AddPlayer(next)
	assert.False(t, next.PlayersSaved)
}

func TestGuardianUpdates(t *testing.T) {
	s := State{Kind: KindPlayer, CurrentStep: StepGuardian}

	s, err := UpdateGuardianField(s, FieldState, " wa ")
	require.NoError(t, err)
	assert.Equal(t, "WA", s.Guardian.Address.State)

	s, err = UpdateGuardianField(s, FieldIsCoach, "true")
	require.NoError(t, err)
	assert.True(t, s.Guardian.IsCoach)

	_, err = UpdateGuardianField(s, FieldIsCoach, "maybe")
	assert.True(t, IsKind(err, Validation))

	_, err = UpdateGuardianField(s, FieldSharesPrimaryAddress, "true")
	assert.True(t, IsKind(err, Validation))

	s = AddGuardian(s)
	s, err = UpdateAdditionalGuardianField(s, 0, FieldSharesPrimaryAddress, "false")
	require.NoError(t, err)
	assert.False(t, s.AdditionalGuardians[0].SharesPrimaryAddress)

	_, err = UpdateAdditionalGuardianField(s, 1, FieldFullName, "x")
	assert.True(t, IsKind(err, Validation))

	s, err = RemoveGuardian(s, 0)
	require.NoError(t, err)
	assert.Empty(t, s.AdditionalGuardians)
}

func TestResolveGuardianAddresses(t *testing.T) {
	primary := models.Guardian{Address: models.Address{Street: "1 Main St", City: "Seattle", State: "WA", Zip: "98101"}}
	own := models.Address{Street: "9 Elm", City: "Tacoma", State: "WA", Zip: "98402"}
	additional := []models.Guardian{
		{FullName: "Sharing", SharesPrimaryAddress: true},
		{FullName: "Own", Address: own},
	}

	resolved := ResolveGuardianAddresses(primary, additional)

	assert.Equal(t, primary.Address, resolved[0].Address)
	assert.Equal(t, own, resolved[1].Address)
	assert.True(t, additional[0].Address.IsZero(), "input is not modified")
}

func TestTeamUpdates(t *testing.T) {
	s := AddTeam(State{Kind: KindTournament, CurrentStep: StepTeam, TeamsSaved: true})
	assert.False(t, s.TeamsSaved)

	s, err := UpdateTeamField(s, 0, FieldName, "Rockets")
	require.NoError(t, err)
	s, err = UpdateTeamField(s, 0, FieldSex, "Female")
	require.NoError(t, err)
	assert.Equal(t, models.GenderFemale, s.Teams[0].Sex)

	_, err = UpdateTeamField(s, 0, FieldSex, "Mixed")
	assert.True(t, IsKind(err, Validation))

	s, err = RemoveTeam(s, 0)
	require.NoError(t, err)
	assert.Empty(t, s.Teams)
}

func TestToggleSelection(t *testing.T) {
	saved := "65a1f0c2b3d4e5f601234567"
	s := State{
		Kind:        KindTraining,
		CurrentStep: StepPlayerSelect,
		Players:     []models.Player{{ID: saved, FullName: "Saved"}, {FullName: "Draft"}},
	}

	s, err := ToggleSelection(s, saved)
	require.NoError(t, err)
	assert.Equal(t, []string{saved}, s.SelectedIDs)

	_, err = ToggleSelection(s, "")
	assert.True(t, IsKind(err, Validation), "drafts cannot be selected")
	_, err = ToggleSelection(s, "65a1f0c2b3d4e5f6012345ff")
	assert.True(t, IsKind(err, Validation))

	removed, err := RemovePlayer(s, 0)
	require.NoError(t, err)
	assert.Empty(t, removed.SelectedIDs)

	s, err = ToggleSelection(s, saved)
	require.NoError(t, err)
	assert.Empty(t, s.SelectedIDs)
}

func TestPackageAndTerms(t *testing.T) {
	pkg := &models.PricingPackage{ID: "full", Price: "120"}
	s := SelectPackage(State{Kind: KindPlayer, CurrentStep: StepReview}, pkg)
	pkg.Price = "1"
	assert.Equal(t, models.Dollars("120"), s.Package.Price)

	s = SelectPackage(s, nil)
	assert.Nil(t, s.Package)

	s = AcceptTerms(s, true)
	assert.True(t, s.TermsAccepted)
}

func TestMarkGuardianRegisteredAssignsParent(t *testing.T) {
	s := State{Kind: KindPlayer, CurrentStep: StepGuardian, Players: []models.Player{{FullName: "Jamie"}}}
	g := models.Guardian{ID: "65a1f0c2b3d4e5f601234567", FullName: "Pat"}

	next := MarkGuardianRegistered(s, g, nil)

	assert.True(t, next.GuardianRegistered)
	assert.Equal(t, g.ID, next.Players[0].ParentID)
	assert.Empty(t, s.Players[0].ParentID)
}
