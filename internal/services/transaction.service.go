package services

import (
	"context"
	"feedloader/internal/database"
	"fmt"

	contextutil "feedloader/internal/context"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

// TransactionService runs a unit of work in one database transaction. The transaction is
// bound to the context handed to fn so repositories pick it up through getDB.
type TransactionService struct {
	db  database.DB
	log logger.Logger
}

func NewTransactionService(db database.DB) *TransactionService {
	return &TransactionService{
		db:  db,
		log: logger.New("TransactionService"),
	}
}

// Execute commits when fn returns nil and rolls back otherwise. A panic in fn is rolled back
// and returned as an error; a failed rollback after a panic re-panics.
func (ts *TransactionService) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) (err error) {
	log := ts.log.Function("Execute")

	tx := ts.db.SQLWithContext(ctx).Begin()
	if tx.Error != nil {
		return log.Err("failed to begin transaction", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			panicErr := log.ErrMsg(fmt.Sprintf("panic during transaction: %v", r))

			if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
				log.Er("failed to rollback after panic", rollbackErr, "panic", r)
				panic(fmt.Sprintf("transaction rollback failed: %v (original panic: %v)", rollbackErr, r))
			}

			err = panicErr
		}
	}()

	if err = fn(contextutil.WithTransaction(ctx, tx), tx); err != nil {
		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			log.Er("failed to rollback after error", rollbackErr, "originalError", err)
			return fmt.Errorf("%w (rollback failed: %v)", err, rollbackErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return log.Err("failed to commit transaction", err)
	}

	return nil
}
