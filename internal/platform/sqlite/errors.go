package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/taskhub-api/internal/store"
	"gorm.io/gorm"
)

// mapError maps a gorm error to a store error. The driver's error is kept
// in the chain for logging.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	return err
}

func corruptRow(entity string, err error) error {
	return fmt.Errorf("%w: corrupt %s row: %v", store.ErrInvalidEntity, entity, err)
}
