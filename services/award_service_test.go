package services

import (
	"context"
	"testing"

	"club-platform/models"
	"club-platform/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAwardTargetsOneWinner(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	event := testutil.NewEvent(t, db, "hack", 3)
	alice := testutil.NewUser(t, db, "alice", 0)
	outsider := testutil.NewUser(t, db, "outsider", 0)

	res, err := NewRegistrationService(db, 8).Register(ctx, alice.ID, event.ID, CreateTeam{TeamName: "Rockets"})
	require.NoError(t, err)

	svc := NewAwardService(db)

	_, err = svc.CreateAward(ctx, event.ID, AwardInput{Title: "Winner", Rank: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateAward(ctx, event.ID, AwardInput{TeamID: res.TeamID, UserID: &alice.ID, Title: "Winner", Rank: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateAward(ctx, event.ID, AwardInput{TeamID: res.TeamID, Title: "Winner", Rank: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateAward(ctx, "00000000-0000-0000-0000-000000000000", AwardInput{TeamID: res.TeamID, Title: "Winner", Rank: 1})
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = svc.CreateAward(ctx, event.ID, AwardInput{UserID: &outsider.ID, Title: "MVP", Rank: 1})
	assert.ErrorIs(t, err, ErrNotRegistered)

	winner, err := svc.CreateAward(ctx, event.ID, AwardInput{TeamID: res.TeamID, Title: "Winner", Rank: 1})
	require.NoError(t, err)
	_, err = svc.CreateAward(ctx, event.ID, AwardInput{UserID: &alice.ID, Title: " Best Pitch ", Rank: 2})
	require.NoError(t, err)

	list, err := svc.ListAwards(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, winner.ID, list[0].ID)
	require.NotNil(t, list[0].Team)
	assert.Equal(t, "Rockets", list[0].Team.Name)
	assert.Equal(t, "Best Pitch", list[1].Title)
	require.NotNil(t, list[1].User)
	assert.Equal(t, "alice", list[1].User.DisplayName)

	// Awards go with their event.
	require.NoError(t, NewEventService(db, 4).DeleteEvent(ctx, event.ID))
	assert.Equal(t, int64(0), countRows(t, db, &models.Award{}, "event_id = ?", event.ID))
}
