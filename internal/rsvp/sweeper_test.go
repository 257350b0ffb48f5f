package rsvp_test

import (
	"context"
	"testing"
	"time"

	"invitide/internal/models"

	"github.com/stretchr/testify/require"
)

func TestSweeperRemovesOrphansUntilCancelled(t *testing.T) {
	w := newWorld(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := w.bun.NewInsert().Model(&models.Attendee{
		EventID:   "gone",
		UserID:    bob.ID,
		CreatedAt: time.Now().UTC(),
	}).Exec(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		w.rsvp.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return w.relationCount(t, "gone") == 0 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
