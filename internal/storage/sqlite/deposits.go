package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/storage"
)

// RecordDeposit appends a deposit record and populates its ID.
func (s *SQLiteStore) RecordDeposit(ctx context.Context, dep *models.Deposit) error {
	if dep.CreatedAt == 0 {
		dep.CreatedAt = time.Now().Unix()
	}
	dep.Active = true

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO deposits (pot_id, cycle_id, payer, amount, created_at, active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		dep.PotID, dep.CycleID, dep.Payer, dep.Amount, dep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert deposit: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read deposit id: %w", err)
	}
	dep.ID = id

	return nil
}

// DeactivateDeposit clears a deposit's active flag. The record is retained.
func (s *SQLiteStore) DeactivateDeposit(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE deposits SET active = 0 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate deposit: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: deposit %d", storage.ErrNotFound, id)
	}

	return nil
}

// ListDeposits returns all deposit records for a (pot, cycle) bucket, oldest first.
func (s *SQLiteStore) ListDeposits(ctx context.Context, pot, cycle uint64) ([]models.Deposit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pot_id, cycle_id, payer, amount, created_at, active
		 FROM deposits WHERE pot_id = ? AND cycle_id = ? ORDER BY id`,
		pot, cycle,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []models.Deposit
	for rows.Next() {
		var dep models.Deposit
		if err := rows.Scan(&dep.ID, &dep.PotID, &dep.CycleID, &dep.Payer,
			&dep.Amount, &dep.CreatedAt, &dep.Active); err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposits: %w", err)
	}

	return deposits, nil
}
