// Package repository provides typed CRUD access to the local entity store.
// One repository per table, all over plain database/sql. Writes coming from
// the sync merge carry the winning side's audit timestamps; everything else
// gets stamped here.
package repository

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbook/finbook/internal/database"
)

// stampNew fills zero audit timestamps on a freshly created row.
func stampNew(createdAt, updatedAt *time.Time) {
	now := database.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = now
	}
}

// stampUpdate refreshes updated_at unless the caller pinned it.
func stampUpdate(updatedAt *time.Time) {
	if updatedAt.IsZero() {
		*updatedAt = database.Now()
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return d, nil
}
