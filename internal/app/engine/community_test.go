package engine_test

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/engine"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/models"
	"github.com/spanexx/KolocollectV1-sub001/internal/domain/money"
)

func TestNormalizeSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.CommunitySettings)
		wantErr bool
	}{
		{"valid", func(s *models.CommunitySettings) {}, false},
		{"zero min contribution", func(s *models.CommunitySettings) {
			s.MinContribution = money.Zero
		}, true},
		{"negative min contribution", func(s *models.CommunitySettings) {
			s.MinContribution = money.MustParse("-5")
		}, true},
		{"max members below two", func(s *models.CommunitySettings) {
			s.MaxMembers = 1
		}, true},
		{"backup percentage above one", func(s *models.CommunitySettings) {
			s.BackupFundPercentage = money.MustParse("3")
		}, true},
		{"backup percentage negative", func(s *models.CommunitySettings) {
			s.BackupFundPercentage = money.MustParse("-0.1")
		}, true},
		{"backup percentage at one", func(s *models.CommunitySettings) {
			s.BackupFundPercentage = money.FromInt(1)
		}, false},
		{"negative penalty", func(s *models.CommunitySettings) {
			s.Penalty = money.MustParse("-2")
		}, true},
		{"negative miss threshold", func(s *models.CommunitySettings) {
			s.NumMissContribution = -1
		}, true},
		{"unknown positioning mode", func(s *models.CommunitySettings) {
			s.PositioningMode = "alphabetical"
		}, true},
		{"unknown frequency", func(s *models.CommunitySettings) {
			s.ContributionFrequency = "fortnightly"
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultSettings()
			tt.mutate(&s)
			_, err := engine.NormalizeSettings(s)
			if tt.wantErr {
				if !faults.HasCode(err, faults.CodeValidation) {
					t.Errorf("error code = %q, want validation", faults.CodeOf(err))
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeSettings_Defaults(t *testing.T) {
	s := defaultSettings()
	s.PositioningMode = ""
	s.ContributionFrequency = ""

	got, err := engine.NormalizeSettings(s)
	if err != nil {
		t.Fatalf("NormalizeSettings: %v", err)
	}
	if got.PositioningMode != models.PositioningSequential {
		t.Errorf("positioning mode = %q, want sequential", got.PositioningMode)
	}
	if got.ContributionFrequency != models.FrequencyWeekly {
		t.Errorf("frequency = %q, want weekly", got.ContributionFrequency)
	}
}

func TestCreateCommunity(t *testing.T) {
	w := newWorld(t)
	admin := w.newUserWithWallet(t, "100")

	c, err := w.eng.CreateCommunity(context.Background(), admin, "lagos-circle", defaultSettings())
	if err != nil {
		t.Fatalf("CreateCommunity: %v", err)
	}
	if c.ID.IsZero() {
		t.Error("created community has no id")
	}
	if c.AdminID != admin {
		t.Errorf("admin = %s, want %s", c.AdminID.Hex(), admin.Hex())
	}
	if len(c.Members) != 1 || c.Members[0].UserID != admin {
		t.Fatalf("members = %+v, want the admin alone", c.Members)
	}
	if c.Members[0].Status != models.MemberActive {
		t.Errorf("admin status = %q, want active", c.Members[0].Status)
	}
	if !c.BackupFund.IsZero() {
		t.Errorf("backup fund = %s, want 0", c.BackupFund)
	}
	if len(c.ActivityLog) != 1 {
		t.Errorf("activity log entries = %d, want 1", len(c.ActivityLog))
	}
}

func TestCreateCommunity_RejectsEmptyName(t *testing.T) {
	w := newWorld(t)
	admin := w.newUserWithWallet(t, "100")

	_, err := w.eng.CreateCommunity(context.Background(), admin, "", defaultSettings())
	if !faults.HasCode(err, faults.CodeValidation) {
		t.Errorf("error code = %q, want validation", faults.CodeOf(err))
	}
}

func TestCreateCommunity_RejectsBadSettings(t *testing.T) {
	w := newWorld(t)
	admin := w.newUserWithWallet(t, "100")
	s := defaultSettings()
	s.MaxMembers = 1

	_, err := w.eng.CreateCommunity(context.Background(), admin, "tiny", s)
	if !faults.HasCode(err, faults.CodeValidation) {
		t.Errorf("error code = %q, want validation", faults.CodeOf(err))
	}
}

func TestJoinCommunity_AlreadyMember(t *testing.T) {
	w := newWorld(t)
	c, userIDs := w.newCommunity(t, 2, "100")

	_, err := w.eng.JoinCommunity(context.Background(), c.ID, userIDs[1], nil)
	if !faults.HasCode(err, faults.CodeAlreadyMember) {
		t.Errorf("error code = %q, want %q", faults.CodeOf(err), faults.CodeAlreadyMember)
	}
}

func TestJoinCommunity_Full(t *testing.T) {
	w := newWorld(t)
	admin := w.newUserWithWallet(t, "100")
	s := defaultSettings()
	s.MaxMembers = 2

	ctx := context.Background()
	c, err := w.eng.CreateCommunity(ctx, admin, "pair", s)
	if err != nil {
		t.Fatalf("CreateCommunity: %v", err)
	}
	if _, err := w.eng.JoinCommunity(ctx, c.ID, w.newUserWithWallet(t, "100"), nil); err != nil {
		t.Fatalf("second member: %v", err)
	}

	_, err = w.eng.JoinCommunity(ctx, c.ID, w.newUserWithWallet(t, "100"), nil)
	if !faults.HasCode(err, faults.CodeValidation) {
		t.Errorf("error code = %q, want validation", faults.CodeOf(err))
	}
}

func TestJoinCommunity_UnknownCommunity(t *testing.T) {
	w := newWorld(t)

	_, err := w.eng.JoinCommunity(context.Background(), primitive.NewObjectID(), w.newUserWithWallet(t, "100"), nil)
	if !faults.HasCode(err, faults.CodeNotFound) {
		t.Errorf("error code = %q, want not_found", faults.CodeOf(err))
	}
}

func TestUpdateSettings(t *testing.T) {
	w := newWorld(t)
	c, _ := w.newCommunity(t, 2, "100")

	s := defaultSettings()
	s.MinContribution = money.MustParse("25")
	s.PositioningMode = models.PositioningRandom
	if err := w.eng.UpdateSettings(context.Background(), c.ID, s); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	c = w.reload(t, c.ID)
	if !c.Settings.MinContribution.Equal(money.MustParse("25")) {
		t.Errorf("min contribution = %s, want 25", c.Settings.MinContribution)
	}
	if c.Settings.PositioningMode != models.PositioningRandom {
		t.Errorf("positioning mode = %q, want random", c.Settings.PositioningMode)
	}
}

func TestUpdateSettings_RejectsInvalid(t *testing.T) {
	w := newWorld(t)
	c, _ := w.newCommunity(t, 2, "100")

	s := defaultSettings()
	s.BackupFundPercentage = money.MustParse("1.5")
	err := w.eng.UpdateSettings(context.Background(), c.ID, s)
	if !faults.HasCode(err, faults.CodeValidation) {
		t.Errorf("error code = %q, want validation", faults.CodeOf(err))
	}

	// The community keeps its original settings.
	c = w.reload(t, c.ID)
	if !c.Settings.BackupFundPercentage.Equal(money.MustParse("0.1")) {
		t.Errorf("backup percentage = %s, want untouched 0.1", c.Settings.BackupFundPercentage)
	}
}
