package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	codeConflict := &pgconn.PgError{Code: "23505", ConstraintName: "gift_cards_code_key"}
	otherConflict := &pgconn.PgError{Code: "23505", ConstraintName: "gift_cards_pkey"}
	fkViolation := &pgconn.PgError{Code: "23503", ConstraintName: "gift_card_transactions_gift_card_id_fkey"}

	tests := []struct {
		name       string
		err        error
		constraint string
		expected   bool
	}{
		{"matching constraint", codeConflict, "gift_cards_code_key", true},
		{"any constraint", otherConflict, "", true},
		{"different constraint", otherConflict, "gift_cards_code_key", false},
		{"wrapped error", fmt.Errorf("insert card: %w", codeConflict), "gift_cards_code_key", true},
		{"foreign key violation", fkViolation, "", false},
		{"plain error", errors.New("boom"), "", false},
		{"nil error", nil, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsUniqueViolation(tc.err, tc.constraint))
		})
	}
}

func TestClose_NilPool(t *testing.T) {
	assert.NotPanics(t, func() { Close(nil) })
}
