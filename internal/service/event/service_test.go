package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/auth"
	"github.com/oggyb/pahilobhet/internal/config"
	"github.com/oggyb/pahilobhet/internal/db"
	"github.com/oggyb/pahilobhet/internal/db/dbtest"
	"github.com/oggyb/pahilobhet/internal/logger"
	"github.com/oggyb/pahilobhet/internal/repository"
	"github.com/oggyb/pahilobhet/internal/service/event"
)

func setup(t *testing.T, names ...string) (*event.Service, *gorm.DB, []db.User) {
	t.Helper()
	gdb := dbtest.Open(t)
	users := dbtest.CreateUsers(t, gdb, names...)
	appCtx := app.New(&config.Config{}, gdb, nil, auth.NewTokenIssuer("s", "i", time.Hour), logger.Discard())
	return event.NewEventService(appCtx), gdb, users
}

func TestCreate_Validation(t *testing.T) {
	svc, _, users := setup(t, "Maya")
	ctx := context.Background()

	cases := map[string]event.CreateRequest{
		"no title":   {StartsAt: time.Now().Add(time.Hour)},
		"past start": {Title: "Dashain meetup", StartsAt: time.Now().Add(-time.Hour)},
		"no start":   {Title: "Dashain meetup"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, users[0].ID, req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestCreateAndUpcoming(t *testing.T) {
	svc, gdb, users := setup(t, "Maya")
	ctx := context.Background()

	npt := time.FixedZone("NPT", 5*3600+45*60)
	later, err := svc.Create(ctx, users[0].ID, event.CreateRequest{
		Title:    " Tihar lights walk ",
		StartsAt: time.Now().In(npt).Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tihar lights walk", later.Title)
	assert.Equal(t, time.UTC, later.StartsAt.Location())

	sooner, err := svc.Create(ctx, users[0].ID, event.CreateRequest{
		Title:    "Momo night",
		StartsAt: time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)

	past := db.Event{Title: "Holi", StartsAt: time.Now().UTC().Add(-24 * time.Hour), CreatedBy: users[0].ID}
	require.NoError(t, gdb.Create(&past).Error)

	list, err := svc.Upcoming(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, sooner.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)
}

func TestRSVPFlow(t *testing.T) {
	svc, gdb, users := setup(t, "Maya", "Nabin", "Om")
	ctx := context.Background()

	e, err := svc.Create(ctx, users[0].ID, event.CreateRequest{Title: "Teej", StartsAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	require.NoError(t, svc.RSVP(ctx, users[0].ID, e.ID, db.RSVPGoing))
	require.NoError(t, svc.RSVP(ctx, users[1].ID, e.ID, db.RSVPInterested))
	require.NoError(t, svc.RSVP(ctx, users[2].ID, e.ID, db.RSVPGoing))
	// answering again replaces the previous answer
	require.NoError(t, svc.RSVP(ctx, users[1].ID, e.ID, db.RSVPGoing))

	detail, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), detail.Going)
	assert.Zero(t, detail.Counts[db.RSVPInterested])

	require.NoError(t, repository.NewUserRepository(gdb).SetActive(ctx, users[2].ID, false))
	attendees, err := svc.Attendees(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, attendees, 2, "inactive users are hidden")

	mine, err := svc.MyRSVPs(ctx, users[1].ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, db.RSVPGoing, mine[0].Status)
	assert.Equal(t, "Teej", mine[0].Event.Title)
}

func TestRSVP_Errors(t *testing.T) {
	svc, _, users := setup(t, "Maya")
	ctx := context.Background()

	e, err := svc.Create(ctx, users[0].ID, event.CreateRequest{Title: "Teej", StartsAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	err = svc.RSVP(ctx, users[0].ID, e.ID, "maybe")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = svc.RSVP(ctx, users[0].ID, 9999, db.RSVPGoing)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = svc.Get(ctx, 9999)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = svc.Attendees(ctx, 9999)
	assert.Equal(t, codes.NotFound, status.Code(err))
}
