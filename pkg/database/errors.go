package database

import (
	"errors"
	"fmt"

	"anoa.com/pencraft/pkg/apperror"
	"gorm.io/gorm"
)

// TranslateError maps gorm errors onto the apperror sentinels so callers
// never depend on the driver in use.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", apperror.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", apperror.ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", apperror.ErrNotFound, err)
	}
	return err
}
