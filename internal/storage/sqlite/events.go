package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/esusuhq/esusu/internal/models"
)

// AppendEvent appends an event to the history log and populates its ID.
func (s *SQLiteStore) AppendEvent(ctx context.Context, ev *models.Event) error {
	if ev.CreatedAt == 0 {
		ev.CreatedAt = time.Now().Unix()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (type, pot_id, cycle_id, member, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(ev.Type), ev.PotID, ev.CycleID, ev.Member, ev.Amount, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event id: %w", err)
	}
	ev.ID = id

	return nil
}

// ListEvents returns up to limit events, oldest first. pot filters to a single
// pot when nonzero.
func (s *SQLiteStore) ListEvents(ctx context.Context, pot uint64, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, type, pot_id, cycle_id, member, amount, created_at
		 FROM events ORDER BY id LIMIT ?`
	args := []interface{}{limit}
	if pot != 0 {
		query = `SELECT id, type, pot_id, cycle_id, member, amount, created_at
			 FROM events WHERE pot_id = ? ORDER BY id LIMIT ?`
		args = []interface{}{pot, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var ev models.Event
		var typ string
		if err := rows.Scan(&ev.ID, &typ, &ev.PotID, &ev.CycleID,
			&ev.Member, &ev.Amount, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Type = models.EventType(typ)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}
