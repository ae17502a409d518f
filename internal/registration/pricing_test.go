package registration

import (
	"testing"

	"leaguereg/internal/models"
)

func TestComputeAmount(t *testing.T) {
	cfg := &models.RegistrationFormConfig{
		BasePrice:     "75",
		TournamentFee: "350.00",
		TryoutFee:     "25.50",
		Packages: []models.PricingPackage{
			{ID: "full", Name: "Full season", Price: "120"},
			{ID: "half", Name: "Half season", Price: "65.25"},
		},
	}

	tests := []struct {
		name     string
		count    int
		kind     Kind
		selected *models.PricingPackage
		want     int64
	}{
		{name: "base price", count: 3, kind: PlayerKind{}, want: 22500},
		{name: "selected package", count: 2, kind: PlayerKind{}, selected: cfg.Package("full"), want: 24000},
		{name: "fractional package", count: 3, kind: TrainingKind{}, selected: cfg.Package("half"), want: 19575},
		{name: "tournament fee per team", count: 2, kind: TournamentKind{}, want: 70000},
		{name: "tournament ignores packages", count: 1, kind: TournamentKind{}, selected: cfg.Package("full"), want: 35000},
		{name: "tryout fee", count: 2, kind: TryoutKind{}, want: 5100},
		{name: "package beats tryout fee", count: 1, kind: TryoutKind{}, selected: cfg.Package("full"), want: 12000},
		{name: "zero eligible", count: 0, kind: PlayerKind{}, want: 0},
		{name: "negative count", count: -2, kind: PlayerKind{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeAmount(tt.count, cfg, tt.kind, tt.selected)
			if err != nil {
				t.Fatalf("ComputeAmount() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ComputeAmount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeAmountIsLinear(t *testing.T) {
	configs := []*models.RegistrationFormConfig{
		{BasePrice: "75"},
		{BasePrice: "19.99"},
		{BasePrice: "0.5"},
		{TournamentFee: "350"},
	}

	for _, cfg := range configs {
		for _, kind := range Kinds {
			one, err := ComputeAmount(1, cfg, kind, nil)
			if err != nil {
				t.Fatalf("ComputeAmount(1) error = %v", err)
			}
			for n := 0; n <= 25; n++ {
				got, err := ComputeAmount(n, cfg, kind, nil)
				if err != nil {
					t.Fatalf("ComputeAmount(%d) error = %v", n, err)
				}
				if got != int64(n)*one {
					t.Errorf("%s %+v: ComputeAmount(%d) = %d, want %d", kind.Name(), cfg, n, got, int64(n)*one)
				}
			}
		}
	}
}

func TestComputeAmountScalesOnce(t *testing.T) {
	cfg := &models.RegistrationFormConfig{BasePrice: "75.50"}
	got, err := ComputeAmount(3, cfg, PlayerKind{}, nil)
	if err != nil {
		t.Fatalf("ComputeAmount() error = %v", err)
	}
	// $226.50 for three players
	if got != 22650 {
		t.Errorf("ComputeAmount() = %d, want 22650", got)
	}
}

func TestComputeAmountRejectsBadConfig(t *testing.T) {
	_, err := ComputeAmount(1, &models.RegistrationFormConfig{BasePrice: "75.999"}, PlayerKind{}, nil)
	if !IsKind(err, Validation) {
		t.Errorf("expected validation error, got %v", err)
	}

	_, err = ComputeAmount(1, nil, PlayerKind{}, nil)
	if !IsKind(err, Validation) {
		t.Errorf("expected validation error for missing config, got %v", err)
	}
}

func TestBuildQuote(t *testing.T) {
	cfg := &models.RegistrationFormConfig{Season: "Basketball", Year: 2025, BasePrice: "75"}
	s := State{
		Kind:   KindPlayer,
		Target: PlayerKind{}.Target(cfg),
		Players: []models.Player{
			{ID: "a", Seasons: []models.SeasonRegistration{paidSeason("Basketball", 2025)}},
			{ID: "b"},
			{FullName: "draft"},
		},
	}

	q, err := BuildQuote(s, cfg)
	if err != nil {
		t.Fatalf("BuildQuote() error = %v", err)
	}
	if q.EligibleCount != 2 || q.AmountCents != 15000 || q.UnitCents != 7500 {
		t.Errorf("unexpected quote %+v", q)
	}
	if len(q.PaidIDs) != 1 || q.PaidIDs[0] != "a" {
		t.Errorf("PaidIDs = %v", q.PaidIDs)
	}
	if len(q.PayableIDs) != 1 || q.UnsavedEntries != 1 {
		t.Errorf("PayableIDs = %v unsaved = %d", q.PayableIDs, q.UnsavedEntries)
	}
	if q.AmountDisplay != "$150.00" {
		t.Errorf("AmountDisplay = %q", q.AmountDisplay)
	}
}

func TestBuildQuoteSelectionFlowCountsSelectedOnly(t *testing.T) {
	cfg := &models.RegistrationFormConfig{Season: "Summer Camp", Year: 2025, BasePrice: "40"}
	s := State{
		Kind:        KindTraining,
		Target:      TrainingKind{}.Target(cfg),
		Players:     []models.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		SelectedIDs: []string{"a", "c"},
	}

	q, err := BuildQuote(s, cfg)
	if err != nil {
		t.Fatalf("BuildQuote() error = %v", err)
	}
	if q.EligibleCount != 2 || q.AmountCents != 8000 {
		t.Errorf("unexpected quote %+v", q)
	}
}
