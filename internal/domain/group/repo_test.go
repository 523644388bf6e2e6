package group_test

import (
	"context"
	"testing"

	"gatherly/backend/internal/docstore"
	"gatherly/backend/internal/domain/group"
)

func TestCreate(t *testing.T) {
	m := docstore.NewMemory()
	repo := group.NewRepo(m)
	ctx := context.Background()

	g, err := repo.Create(ctx, "u1", group.CreateInput{Name: "  Weekend  Crew "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.Name != "Weekend  Crew" {
		t.Errorf("name = %q", g.Name)
	}
	if g.NameLower != "weekend crew" {
		t.Errorf("nameLower = %q", g.NameLower)
	}
	if g.Slug != "weekend-crew" {
		t.Errorf("slug = %q", g.Slug)
	}
	if len(g.MemberIDs) != 1 || g.MemberIDs[0] != "u1" {
		t.Errorf("owner should be the first member, got %v", g.MemberIDs)
	}
	if g.OwnerUID != "u1" {
		t.Errorf("ownerUid = %q", g.OwnerUID)
	}
}

func TestCreateValidation(t *testing.T) {
	repo := group.NewRepo(docstore.NewMemory())
	ctx := context.Background()

	if _, err := repo.Create(ctx, "u1", group.CreateInput{Name: "   "}); !group.IsErrBadRequest(err) {
		t.Errorf("blank name: expected bad request, got %v", err)
	}

	long := make([]byte, 121)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := repo.Create(ctx, "u1", group.CreateInput{Name: string(long)}); !group.IsErrBadRequest(err) {
		t.Errorf("overlong name: expected bad request, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	repo := group.NewRepo(docstore.NewMemory())
	if _, err := repo.Get(context.Background(), "nope"); !group.IsErrNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListForMember(t *testing.T) {
	m := docstore.NewMemory()
	repo := group.NewRepo(m)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "u1", group.CreateInput{Name: "Crew A"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := repo.Create(ctx, "u2", group.CreateInput{Name: "Crew B"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	out, err := repo.ListForMember(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForMember failed: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Crew A" {
		t.Errorf("ListForMember = %+v", out)
	}
}

func TestAddMember(t *testing.T) {
	m := docstore.NewMemory()
	repo := group.NewRepo(m)
	ctx := context.Background()

	g, err := repo.Create(ctx, "u1", group.CreateInput{Name: "Crew A"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.AddMember(ctx, g.ID, "u2"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	// Joining twice stays a single membership.
	if err := repo.AddMember(ctx, g.ID, "u2"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	got, err := repo.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.MemberIDs) != 2 {
		t.Errorf("memberIds = %v", got.MemberIDs)
	}

	if err := repo.AddMember(ctx, "nope", "u2"); !group.IsErrNotFound(err) {
		t.Errorf("expected not found for missing group, got %v", err)
	}
}

func TestSearchByNamePrefix(t *testing.T) {
	m := docstore.NewMemory()
	repo := group.NewRepo(m)
	ctx := context.Background()

	for _, name := range []string{"Weekend Crew", "Weekday Runners", "Book Club"} {
		if _, err := repo.Create(ctx, "u1", group.CreateInput{Name: name}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	out, err := repo.SearchByNamePrefix(ctx, "Week")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("prefix week matched %d groups, want 2", len(out))
	}

	out, err = repo.SearchByNamePrefix(ctx, "  ")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("blank query should match nothing, got %+v", out)
	}
}
