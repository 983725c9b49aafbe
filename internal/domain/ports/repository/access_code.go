package repository

import (
	"context"
	"time"

	"immersive-english/internal/domain/model"
)

// AccessCodeRepository is the port for the shared code pool.
//
// Reserve and Activate are conditional single-row updates: they re-check the
// code's status in the WHERE clause at write time and report whether the write
// landed. That affected-row check is the pool's compare-and-swap primitive; no
// caller may read-modify-write a code without it.
type AccessCodeRepository interface {
	// Save inserts a new code row. Returns domain.ErrAlreadyExists when the
	// code is already present; existing rows are never overwritten here,
	// state changes go through the conditional transitions below.
	Save(ctx context.Context, tx Tx, code *model.AccessCode) error
	// FindByCode returns the code row regardless of status, or domain.ErrNotFound.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.AccessCode, error)
	// ListAllocatable returns up to limit codes that are unused and not past
	// their expiry, in no particular order.
	ListAllocatable(ctx context.Context, tx Tx, limit int) ([]*model.AccessCode, error)
	// Reserve transitions code from unused to reserved iff it is still unused
	// and not expired. Returns false when the conditional update hit zero rows.
	Reserve(ctx context.Context, tx Tx, code string) (bool, error)
	// Activate transitions code from unused or reserved to active, recording
	// the redeeming user. Returns false when the conditional update hit zero rows.
	Activate(ctx context.Context, tx Tx, code, userID string) (bool, error)
	// MarkExpired transitions code from unused or reserved to expired. Returns
	// false when the conditional update hit zero rows (absent or terminal).
	MarkExpired(ctx context.Context, tx Tx, code string) (bool, error)
	// ReleaseStale returns reserved codes older than cutoff back to unused.
	// Reports how many rows were released.
	ReleaseStale(ctx context.Context, tx Tx, cutoff time.Time) (int64, error)
	// ExpireOverdue marks unused/reserved codes past their expires_at as expired.
	ExpireOverdue(ctx context.Context, tx Tx, now time.Time) (int64, error)
	// List returns codes filtered by status ("" for all), newest first.
	List(ctx context.Context, tx Tx, status model.CodeStatus, offset, limit int) ([]*model.AccessCode, error)
}
