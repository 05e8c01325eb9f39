package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"club-platform/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTxAttempts = 5

// errRetryTx asks runInTx to start the transaction over.
var errRetryTx = errors.New("retry transaction")

// runInTx runs fn in a transaction, retrying serialization failures and
// deadlocks. Errors returned by fn pass through untouched.
func runInTx(ctx context.Context, db *gorm.DB, op string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !isRetryable(err) {
			break
		}
		log.Printf("🔁 [TX] %s attempt %d/%d retrying: %v", op, attempt, maxTxAttempts, err)
		select {
		case <-ctx.Done():
			return storeError(op, ctx.Err())
		case <-time.After(time.Duration(attempt*attempt) * 10 * time.Millisecond):
		}
	}
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	return storeError(op, err)
}

// forUpdate row-locks whatever the query selects until the transaction ends.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// addXP raises a user's stored XP relative to the current column value.
func addXP(tx *gorm.DB, userID string, amount int64) *gorm.DB {
	return tx.Model(&models.User{}).Where("id = ?", userID).
		Update("xp", gorm.Expr("xp + ?", amount))
}

func isRetryable(err error) bool {
	if errors.Is(err, errRetryTx) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isConstraintOn reports whether a unique violation names the given index or columns.
func isConstraintOn(err error, names ...string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, n := range names {
			if pgErr.ConstraintName == n {
				return true
			}
		}
		return false
	}
	msg := err.Error()
	for _, n := range names {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
}
