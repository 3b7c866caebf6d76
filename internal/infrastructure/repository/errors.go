package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainRepo "github.com/sangkips/receipts-api/internal/domain/repository"
)

const pgUniqueViolation = "23505"

// sqlitePrimaryKey matches sqlite's report of a collision on an id column
var sqlitePrimaryKey = regexp.MustCompile(`UNIQUE constraint failed: \w+\.id\b`)

// translateWriteError maps unique constraint violations reported by postgres
// or sqlite onto the domain sentinels
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return err
		}
		if strings.Contains(pgErr.ConstraintName, "receipt_number") {
			return fmt.Errorf("%w: %s", domainRepo.ErrDuplicateReceiptNumber, pgErr.Detail)
		}
		if strings.HasSuffix(pgErr.ConstraintName, "_pkey") {
			return fmt.Errorf("%w: %s", domainRepo.ErrDuplicateID, pgErr.ConstraintName)
		}
		return fmt.Errorf("%w: %s", domainRepo.ErrDuplicateKey, pgErr.ConstraintName)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", domainRepo.ErrDuplicateKey, err)
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		if strings.Contains(msg, "receipt_number") {
			return fmt.Errorf("%w: %s", domainRepo.ErrDuplicateReceiptNumber, msg)
		}
		if sqlitePrimaryKey.MatchString(msg) {
			return fmt.Errorf("%w: %s", domainRepo.ErrDuplicateID, msg)
		}
		return fmt.Errorf("%w: %s", domainRepo.ErrDuplicateKey, msg)
	}
	return err
}
