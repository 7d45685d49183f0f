package draft

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/golfdraft/golfdraft/internal/models"
)

// GeneratePickOrder expands a participant list into the full snake draft
// order. Round 1 follows the given participant order; each subsequent round
// reverses the order of the previous one.
func GeneratePickOrder(participants []uuid.UUID, rounds int) ([]models.PickOrderEntry, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("generate pick order: no participants")
	}
	if rounds < 1 {
		return nil, fmt.Errorf("generate pick order: rounds must be >= 1, got %d", rounds)
	}

	order := make([]models.PickOrderEntry, 0, len(participants)*rounds)
	for round := 1; round <= rounds; round++ {
		if round%2 == 1 {
			for _, p := range participants {
				order = append(order, models.PickOrderEntry{Participant: p, Round: round})
			}
		} else {
			for i := len(participants) - 1; i >= 0; i-- {
				order = append(order, models.PickOrderEntry{Participant: participants[i], Round: round})
			}
		}
	}
	return order, nil
}
