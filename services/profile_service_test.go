package services

import (
	"context"
	"errors"
	"testing"

	"endotrack/models"
)

func TestEnsureProfileCreatesOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	profiles := NewProfileService(env.data)

	created, err := profiles.EnsureProfile(ctx, "u1", "u1@example.com")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if created.Character.Avatar != models.DefaultAvatar || created.Character.Endolots != 0 {
		t.Errorf("new profile = %+v", created)
	}

	if err := env.data.CreditEndolots(ctx, "u1", 3, "test-credit"); err != nil {
		t.Fatalf("CreditEndolots: %v", err)
	}
	again, err := profiles.EnsureProfile(ctx, "u1", "other@example.com")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if again.Email != "u1@example.com" || again.Character.Endolots != 3 {
		t.Errorf("existing profile overwritten: %+v", again)
	}
}

func TestProfileUpdateKeepsBalance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	profiles := NewProfileService(env.data)

	if _, err := profiles.EnsureProfile(ctx, "u1", "u1@example.com"); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if err := env.data.CreditEndolots(ctx, "u1", 5, "test-credit"); err != nil {
		t.Fatalf("CreditEndolots: %v", err)
	}

	name, first := "Lumi", "Ana"
	updated, err := profiles.Update(ctx, "u1", ProfileUpdate{
		FirstName:     &first,
		CharacterName: &name,
		Avatar:        &models.Avatar{Hair: models.HairCurly},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.FirstName != "Ana" || updated.Character.Name != "Lumi" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Character.Avatar.Hair != models.HairCurly || updated.Character.Avatar.Skin != models.DefaultAvatar.Skin {
		t.Errorf("avatar = %+v, want curly hair over the default avatar", updated.Character.Avatar)
	}

	balance, err := profiles.Balance(ctx, "u1")
	if err != nil || balance != 5 {
		t.Errorf("Balance() = %d, %v; want 5", balance, err)
	}
}

func TestProfileUpdateRejectsUnknownAvatar(t *testing.T) {
	env := newTestEnv(t)
	profiles := NewProfileService(env.data)

	_, err := profiles.Update(context.Background(), "u1", ProfileUpdate{Avatar: &models.Avatar{Eyes: "laser"}})
	if !errors.Is(err, models.ErrInvalidAvatar) {
		t.Fatalf("err = %v, want ErrInvalidAvatar", err)
	}
}

func TestBalanceWithoutProfile(t *testing.T) {
	env := newTestEnv(t)
	balance, err := NewProfileService(env.data).Balance(context.Background(), "nobody")
	if err != nil || balance != 0 {
		t.Errorf("Balance() = %d, %v; want 0", balance, err)
	}
}

func TestEnsureProfileQueuedCreateKeepsCredits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	profiles := NewProfileService(env.data)

	env.remote.setWritesDown(true)
	if _, err := profiles.EnsureProfile(ctx, "u1", "u1@example.com"); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if n := env.pending(t); n != 1 {
		t.Fatalf("pending writes = %d, want the queued create", n)
	}

	env.remote.setWritesDown(false)
	if err := env.data.CreditEndolots(ctx, "u1", 1, "claim_u1_2024-07-10_2"); err != nil {
		t.Fatalf("CreditEndolots: %v", err)
	}
	env.drain(t)

	balance, err := profiles.Balance(ctx, "u1")
	if err != nil || balance != 1 {
		t.Errorf("balance after replay = %d, %v; want the granted credit kept", balance, err)
	}
	profile, err := env.data.LoadProfile(ctx, "u1")
	if err != nil || profile == nil || profile.Email != "u1@example.com" || profile.Character.Avatar != models.DefaultAvatar {
		t.Errorf("profile after replay = %+v, %v", profile, err)
	}
}
