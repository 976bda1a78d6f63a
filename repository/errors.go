package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")

	// ErrUnprocessedKeys reports batch reads DynamoDB kept throttling after retries.
	ErrUnprocessedKeys = errors.New("dynamodb left keys unprocessed")
)

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "duplicate key"),
		strings.Contains(err.Error(), "SQLSTATE 23505"):
		return ErrDuplicate
	}
	return err
}
