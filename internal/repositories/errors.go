package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInconsistentState means a row changed or vanished between read and write
	ErrInconsistentState = errors.New("inconsistent state")
	// ErrActiveSessionExists is returned when another ACTIVE session already holds the pair
	ErrActiveSessionExists = errors.New("active session already exists")
)

// notFound maps gorm's record-not-found onto ErrNotFound, naming the entity
func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return err
}
