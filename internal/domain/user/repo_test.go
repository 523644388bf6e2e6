package user_test

import (
	"context"
	"testing"

	"gatherly/backend/internal/docstore"
	"gatherly/backend/internal/domain/user"
)

func TestUpsertMinimalSeedsAndPreserves(t *testing.T) {
	m := docstore.NewMemory()
	repo := user.NewRepo(m)
	ctx := context.Background()

	if err := repo.UpsertMinimal(ctx, "u1", "ann@example.com", "Ann"); err != nil {
		t.Fatalf("UpsertMinimal failed: %v", err)
	}
	if err := repo.SetReminderPref(ctx, "u1", true); err != nil {
		t.Fatalf("SetReminderPref failed: %v", err)
	}

	// A later sign-in upsert must not wipe the stored preference.
	if err := repo.UpsertMinimal(ctx, "u1", "ann@example.com", "Ann"); err != nil {
		t.Fatalf("UpsertMinimal failed: %v", err)
	}

	p, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.DisplayName != "Ann" || p.Email != "ann@example.com" {
		t.Errorf("profile = %+v", p)
	}
	if !p.AllowVoteReminders {
		t.Error("upsert clobbered the reminder preference")
	}
}

func TestAllowsRemindersDefaults(t *testing.T) {
	m := docstore.NewMemory()
	repo := user.NewRepo(m)
	ctx := context.Background()

	// Missing user counts as opted out.
	if repo.AllowsReminders(ctx, "nobody") {
		t.Error("missing user should be opted out")
	}

	// Existing user without the field counts as opted out too.
	_ = repo.UpsertMinimal(ctx, "u1", "", "")
	if repo.AllowsReminders(ctx, "u1") {
		t.Error("missing field should be opted out")
	}

	_ = repo.SetReminderPref(ctx, "u1", true)
	if !repo.AllowsReminders(ctx, "u1") {
		t.Error("opted-in user reported as opted out")
	}

	_ = repo.SetReminderPref(ctx, "u1", false)
	if repo.AllowsReminders(ctx, "u1") {
		t.Error("opt-out not honored")
	}
}
