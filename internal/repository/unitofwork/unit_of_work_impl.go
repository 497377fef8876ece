package unitofwork

import (
	"context"
	"errors"

	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/internal/repository/implementation"

	"gorm.io/gorm"
)

var ErrTransactionActive = errors.New("unitofwork: transaction already started")

// gormUnitOfWork hands out repositories bound either to the base connection
// or to the open transaction.
type gormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *gormUnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return ErrTransactionActive
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *gormUnitOfWork) Commit() error {
	if u.tx == nil {
		return errors.New("unitofwork: commit without transaction")
	}
	tx := u.tx
	u.tx = nil
	return tx.Commit().Error
}

// Rollback is a no-op once the transaction was committed, so callers can
// defer it unconditionally.
func (u *gormUnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	tx := u.tx
	u.tx = nil
	return tx.Rollback().Error
}

func (u *gormUnitOfWork) SessionRepository() contract.SessionRepository {
	return implementation.NewSessionRepository(u.conn())
}

func (u *gormUnitOfWork) DocumentRepository() contract.DocumentRepository {
	return implementation.NewDocumentRepository(u.conn())
}

func (u *gormUnitOfWork) DocumentChunkRepository() contract.DocumentChunkRepository {
	return implementation.NewDocumentChunkRepository(u.conn())
}

func (u *gormUnitOfWork) CriteriaRepository() contract.CriteriaRepository {
	return implementation.NewCriteriaRepository(u.conn())
}

func (u *gormUnitOfWork) EvaluationRepository() contract.EvaluationRepository {
	return implementation.NewEvaluationRepository(u.conn())
}
