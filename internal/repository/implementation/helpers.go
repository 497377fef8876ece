package implementation

import (
	"errors"

	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/internal/repository/specification"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return contract.ErrDuplicate
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return contract.ErrDuplicate
	}
	return err
}
