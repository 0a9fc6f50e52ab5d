package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/models"
)

// RoutineRepository persists generated routines keyed by idempotency key.
type RoutineRepository struct {
	root string
}

// NewRoutineRepository creates a new routine repository.
func NewRoutineRepository(root string) *RoutineRepository {
	return &RoutineRepository{root: root}
}

// SaveRoutine writes the routine under its idempotency key.
func (rr *RoutineRepository) SaveRoutine(ctx context.Context, routine *models.Routine) error {
	if err := validateKey(routine.IdempotencyKey); err != nil {
		return fmt.Errorf("invalid routine key: %w", err)
	}

	routinesDir := filepath.Join(rr.root, "routines")

	err := os.MkdirAll(routinesDir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create routines directory: %w", err)
	}

	data, err := json.Marshal(routine)
	if err != nil {
		return fmt.Errorf("failed to marshal routine %s: %w", routine.ID, err)
	}

	filePath := filepath.Join(routinesDir, routine.IdempotencyKey+".json")

	err = os.WriteFile(filePath, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write routine %s: %w", routine.ID, err)
	}

	return nil
}

// RoutineByIdempotencyKey retrieves a routine by its idempotency key.
func (rr *RoutineRepository) RoutineByIdempotencyKey(ctx context.Context, key string) (*models.Routine, error) {
	if err := validateKey(key); err != nil {
		return nil, fmt.Errorf("invalid routine key: %w", err)
	}

	filePath := filepath.Join(rr.root, "routines", key+".json")

	data, err := os.ReadFile(filePath) // #nosec G304 -- key is validated and the path constructed safely
	if err != nil {
		if os.IsNotExist(err) {
			return nil, journal.ErrRoutineNotFound
		}

		return nil, fmt.Errorf("failed to read routine %s: %w", key, err)
	}

	var routine models.Routine

	err = json.Unmarshal(data, &routine)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal routine %s: %w", key, err)
	}

	return &routine, nil
}
