package services

import (
	"context"
	"testing"
	"time"

	"club-platform/models"
	"club-platform/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventSlugsAreUnique(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewEventService(db, 4)
	ctx := context.Background()

	first, err := svc.CreateEvent(ctx, EventInput{Title: "Winter of Code 2025", Type: models.EventTypeHackathon})
	require.NoError(t, err)
	second, err := svc.CreateEvent(ctx, EventInput{Title: "Winter of Code 2025", Type: models.EventTypeHackathon})
	require.NoError(t, err)
	third, err := svc.CreateEvent(ctx, EventInput{Title: "winter of code 2025!", Type: models.EventTypeHackathon})
	require.NoError(t, err)

	assert.Equal(t, "winter-of-code-2025", first.Slug)
	assert.Equal(t, "winter-of-code-2025-2", second.Slug)
	assert.Equal(t, "winter-of-code-2025-3", third.Slug)
	assert.Equal(t, models.EventStatusUpcoming, first.Status)
	assert.Equal(t, 4, first.MaxTeamSize)

	bySlug, err := svc.GetEvent(ctx, "winter-of-code-2025-2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, bySlug.ID)
	byID, err := svc.GetEvent(ctx, third.ID)
	require.NoError(t, err)
	assert.Equal(t, third.Slug, byID.Slug)

	_, err = svc.GetEvent(ctx, "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCreateEventDefaultsAndValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewEventService(db, 4)
	ctx := context.Background()

	cp, err := svc.CreateEvent(ctx, EventInput{Title: "CP Round 1", Type: models.EventTypeCPSolo})
	require.NoError(t, err)
	assert.Equal(t, 1, cp.MaxTeamSize)

	m, err := svc.CreateEvent(ctx, EventInput{
		Title:   "Mentorship",
		Type:    models.EventTypeMentorship,
		Domains: []string{" Web Dev ", "AI/ML"},
		RegistrationFields: []models.RegistrationField{
			{Name: "github", Required: true},
		},
	})
	require.NoError(t, err)
	domains, err := m.DomainList()
	require.NoError(t, err)
	assert.Equal(t, []string{"Web Dev", "AI/ML"}, domains)
	fields, err := m.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.True(t, fields[0].Required)

	_, err = svc.CreateEvent(ctx, EventInput{Title: "Bad", Type: "party"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err = svc.CreateEvent(ctx, EventInput{Title: "Backwards", Type: models.EventTypeHackathon, StartsAt: &start, EndsAt: &end})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateEvent(ctx, EventInput{Title: "Dup domains", Type: models.EventTypeMentorship, Domains: []string{"A", "A"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdvanceStatusIsForwardOnly(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewEventService(db, 4)
	ctx := context.Background()
	e, err := svc.CreateEvent(ctx, EventInput{Title: "Hack Night", Type: models.EventTypeTeamEvent})
	require.NoError(t, err)

	live, err := svc.AdvanceStatus(ctx, e.ID, models.EventStatusLive)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusLive, live.Status)

	_, err = svc.AdvanceStatus(ctx, e.ID, models.EventStatusUpcoming)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.AdvanceStatus(ctx, e.ID, models.EventStatusLive)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	past, err := svc.AdvanceStatus(ctx, e.ID, models.EventStatusPast)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPast, past.Status)
}

func TestPromoteByWindow(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewEventService(db, 4)
	svc.Now = func() time.Time { return now }
	ctx := context.Background()

	started := now.Add(-time.Hour)
	later := now.Add(time.Hour)
	ended := now.Add(-time.Minute)
	longAgo := now.Add(-48 * time.Hour)

	opening, err := svc.CreateEvent(ctx, EventInput{Title: "Opening", Type: models.EventTypeHackathon, StartsAt: &started, EndsAt: &later})
	require.NoError(t, err)
	closing, err := svc.CreateEvent(ctx, EventInput{Title: "Closing", Type: models.EventTypeHackathon, StartsAt: &longAgo, EndsAt: &ended})
	require.NoError(t, err)
	future, err := svc.CreateEvent(ctx, EventInput{Title: "Future", Type: models.EventTypeHackathon, StartsAt: &later})
	require.NoError(t, err)

	moved, err := svc.PromoteByWindow(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	get := func(id string) models.EventStatus {
		e, err := svc.GetEvent(ctx, id)
		require.NoError(t, err)
		return e.Status
	}
	assert.Equal(t, models.EventStatusLive, get(opening.ID))
	assert.Equal(t, models.EventStatusPast, get(closing.ID))
	assert.Equal(t, models.EventStatusUpcoming, get(future.ID))

	moved, err = svc.PromoteByWindow(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), moved)
}

func TestListTeamsAndDeleteEventCascades(t *testing.T) {
	db := testutil.NewDB(t)
	events := NewEventService(db, 4)
	regs := NewRegistrationService(db, 8)
	ctx := context.Background()
	event := testutil.NewEvent(t, db, "woc", 4)
	a := testutil.NewUser(t, db, "a", 0)
	b := testutil.NewUser(t, db, "b", 0)
	c := testutil.NewUser(t, db, "c", 0)

	ta, err := regs.Register(ctx, a.ID, event.ID, CreateTeam{TeamName: "A"})
	require.NoError(t, err)
	_, err = regs.Register(ctx, b.ID, event.ID, JoinTeam{JoinCode: ta.JoinCode})
	require.NoError(t, err)
	_, err = regs.Register(ctx, c.ID, event.ID, CreateTeam{TeamName: "C"})
	require.NoError(t, err)
	_, err = NewCheckpointService(db, 0).SubmitCheckpoint(ctx, ta.RegistrationID, 1, "link")
	require.NoError(t, err)

	teams, err := events.ListTeams(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	counts := map[string]int64{}
	for _, tm := range teams {
		counts[tm.Name] = tm.MemberCount
	}
	assert.Equal(t, map[string]int64{"A": 2, "C": 1}, counts)

	require.NoError(t, events.DeleteEvent(ctx, event.ID))
	assert.Equal(t, int64(0), countRows(t, db, &models.Team{}, "event_id = ?", event.ID))
	assert.Equal(t, int64(0), countRows(t, db, &models.Registration{}, "event_id = ?", event.ID))
	assert.Equal(t, int64(0), countRows(t, db, &models.Checkpoint{}, "registration_id = ?", ta.RegistrationID))
	assert.ErrorIs(t, events.DeleteEvent(ctx, event.ID), ErrEventNotFound)
}

func TestListEventsFiltersByStatus(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewEventService(db, 4)
	ctx := context.Background()
	testutil.NewEvent(t, db, "live-one", 4)
	_, err := svc.CreateEvent(ctx, EventInput{Title: "Soon", Type: models.EventTypeHackathon})
	require.NoError(t, err)

	all, err := svc.ListEvents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	live, err := svc.ListEvents(ctx, models.EventStatusLive)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "live-one", live[0].Slug)

	_, err = svc.ListEvents(ctx, "archived")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
