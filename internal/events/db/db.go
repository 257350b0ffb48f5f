package db

import (
	"context"
	"database/sql"
	"fmt"

	"invitide/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

// GetEventByID loads the event joined with its owner's profile.
func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Relation("Host").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents returns events ordered by date, scoped to ownerID when it is set.
func (d *DB) ListEvents(ctx context.Context, ownerID string) ([]models.Event, error) {
	var rows []models.Event
	q := d.Bun.NewSelect().
		Model(&rows).
		Relation("Host").
		OrderExpr("?TableAlias.date ASC, ?TableAlias.created_at ASC")
	if ownerID != "" {
		q = q.Where("?TableAlias.user_id = ?", ownerID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return validEvents(rows), nil
}

func (d *DB) ListEventsByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}

	var rows []models.Event
	err := d.Bun.NewSelect().
		Model(&rows).
		Relation("Host").
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		OrderExpr("?TableAlias.date ASC, ?TableAlias.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return validEvents(rows), nil
}

// AttendingEventIDs lists the events userID holds an attendance relation for.
func (d *DB) AttendingEventIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := d.Bun.NewSelect().
		Model((*models.Attendee)(nil)).
		Column("event_id").
		Where("user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *DB) CountAttendees(ctx context.Context, eventID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Attendee)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
}

func (d *DB) IsAttending(ctx context.Context, eventID, userID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Attendee)(nil)).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Exists(ctx)
}

// DeleteEventCascade removes the event's attendance relations and then the
// event itself in one transaction. A missing event returns sql.ErrNoRows and
// leaves everything untouched.
func (d *DB) DeleteEventCascade(ctx context.Context, eventID string) (int64, error) {
	var removed int64
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Attendee)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete attendees: %w", err)
		}
		removed, _ = res.RowsAffected()

		res, err = tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", eventID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func validEvents(rows []models.Event) []models.Event {
	events := make([]models.Event, 0, len(rows))
	for _, e := range rows {
		if e.Validate() != nil {
			continue
		}
		events = append(events, e)
	}
	return events
}
