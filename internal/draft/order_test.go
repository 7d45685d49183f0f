package draft

import (
	"testing"

	"github.com/google/uuid"
)

func TestGeneratePickOrderSnake(t *testing.T) {
	p1 := uuid.New()
	p2 := uuid.New()
	p3 := uuid.New()

	order, err := GeneratePickOrder([]uuid.UUID{p1, p2, p3}, 2)
	if err != nil {
		t.Fatalf("GeneratePickOrder: %v", err)
	}
	if len(order) != 6 {
		t.Fatalf("got %d entries, want 6", len(order))
	}

	want := []uuid.UUID{p1, p2, p3, p3, p2, p1}
	for i, entry := range order {
		if entry.Participant != want[i] {
			t.Errorf("slot %d: got participant %s, want %s", i, entry.Participant, want[i])
		}
	}

	wantRounds := []int{1, 1, 1, 2, 2, 2}
	for i, entry := range order {
		if entry.Round != wantRounds[i] {
			t.Errorf("slot %d: got round %d, want %d", i, entry.Round, wantRounds[i])
		}
	}
}

func TestGeneratePickOrderOddRounds(t *testing.T) {
	p1 := uuid.New()
	p2 := uuid.New()

	order, err := GeneratePickOrder([]uuid.UUID{p1, p2}, 3)
	if err != nil {
		t.Fatalf("GeneratePickOrder: %v", err)
	}
	want := []uuid.UUID{p1, p2, p2, p1, p1, p2}
	for i, entry := range order {
		if entry.Participant != want[i] {
			t.Errorf("slot %d: got participant %s, want %s", i, entry.Participant, want[i])
		}
	}
}

func TestGeneratePickOrderErrors(t *testing.T) {
	if _, err := GeneratePickOrder(nil, 4); err == nil {
		t.Error("expected error for empty participants")
	}
	if _, err := GeneratePickOrder([]uuid.UUID{uuid.New()}, 0); err == nil {
		t.Error("expected error for zero rounds")
	}
}
