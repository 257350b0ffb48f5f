package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"invitide/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetAttendance(ctx context.Context, eventID, userID string) (*models.Attendee, error) {
	var attendee models.Attendee
	err := d.Bun.NewSelect().
		Model(&attendee).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &attendee, nil
}

// CreateAttendance inserts the relation. A second insert for the same pair
// fails on the primary key.
func (d *DB) CreateAttendance(ctx context.Context, attendee models.Attendee) error {
	if err := attendee.Validate(); err != nil {
		return err
	}
	_, err := d.Bun.NewInsert().Model(&attendee).Exec(ctx)
	return err
}

func (d *DB) DeleteAttendance(ctx context.Context, eventID, userID string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Attendee)(nil)).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListAttendees returns the event's relations in RSVP order.
func (d *DB) ListAttendees(ctx context.Context, eventID string) ([]models.Attendee, error) {
	var rows []models.Attendee
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("event_id = ?", eventID).
		OrderExpr("created_at ASC, user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	attendees := make([]models.Attendee, 0, len(rows))
	for _, a := range rows {
		if a.Validate() != nil {
			continue
		}
		attendees = append(attendees, a)
	}
	return attendees, nil
}

// CheckIn marks userID as checked in to eventID, creating the relation when
// it does not exist. The second return value reports an earlier check-in, in
// which case nothing is written.
func (d *DB) CheckIn(ctx context.Context, eventID, userID string, at time.Time) (*models.Attendee, bool, error) {
	var result models.Attendee
	var already bool

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing models.Attendee
		err := tx.NewSelect().
			Model(&existing).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Limit(1).
			Scan(ctx)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			result = models.Attendee{
				EventID:     eventID,
				UserID:      userID,
				CreatedAt:   at,
				CheckedIn:   true,
				CheckedInAt: at,
			}
			_, err = tx.NewInsert().Model(&result).Exec(ctx)
			return err
		case err != nil:
			return err
		case existing.CheckedIn:
			result = existing
			already = true
			return nil
		}

		_, err = tx.NewUpdate().
			Model((*models.Attendee)(nil)).
			Set("checked_in = ?", true).
			Set("checked_in_at = ?", at).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Exec(ctx)
		if err != nil {
			return err
		}
		existing.CheckedIn = true
		existing.CheckedInAt = at
		result = existing
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, already, nil
}

func (d *DB) DeleteAttendeesByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Attendee)(nil)).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOrphanedAttendees removes relations whose event no longer exists.
func (d *DB) DeleteOrphanedAttendees(ctx context.Context) (int64, error) {
	eventIDs := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Column("id")

	res, err := d.Bun.NewDelete().
		Model((*models.Attendee)(nil)).
		Where("event_id NOT IN (?)", eventIDs).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
