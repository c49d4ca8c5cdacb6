package record

import (
	"context"
	"errors"

	"github.com/starford/adr/internal/apperr"
)

// NextID returns one more than the highest id among the record filenames,
// or 1 for an empty or missing directory. Gaps left by removed records are
// never refilled, but if the highest record is removed its id is allocated
// again.
func (s *Store) NextID(ctx context.Context) (int, error) {
	entries, err := s.scan(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrUninitializedStore) {
			return 1, nil
		}
		return 0, err
	}
	highest := 0
	for _, e := range entries {
		if e.id > highest {
			highest = e.id
		}
	}
	return highest + 1, nil
}
