package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	employees []*Employee
}

func (m *mockRepo) ListByBranch(_ context.Context, branch string) ([]*Employee, error) {
	var out []*Employee
	for _, e := range m.employees {
		if e.Branch == branch {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestNames(t *testing.T) {
	svc := NewService(&mockRepo{employees: []*Employee{
		{ID: uuid.New(), Name: "Anita", Branch: "KAT"},
		{ID: uuid.New(), Name: "Biju", Branch: "KAT"},
		{ID: uuid.New(), Name: "Chitra", Branch: "TVR"},
	}})

	names, err := svc.Names(context.Background(), "KAT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %d", len(names))
	}
	if names[0] != "Anita" || names[1] != "Biju" {
		t.Errorf("unexpected names: %v", names)
	}

	if _, err := svc.Names(context.Background(), " "); err == nil {
		t.Error("expected error for blank branch")
	}
}
