package profile_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/auth"
	"github.com/oggyb/pahilobhet/internal/config"
	"github.com/oggyb/pahilobhet/internal/db/dbtest"
	"github.com/oggyb/pahilobhet/internal/logger"
	"github.com/oggyb/pahilobhet/internal/repository"
	"github.com/oggyb/pahilobhet/internal/service/profile"
)

func ptr[T any](v T) *T { return &v }

func TestProfile_MeAndGet(t *testing.T) {
	gdb := dbtest.Open(t)
	users := dbtest.CreateUsers(t, gdb, "Hari", "Gita")
	svc := profile.NewProfileService(app.New(&config.Config{}, gdb, nil,
		auth.NewTokenIssuer("s", "i", time.Hour), logger.Discard()))
	ctx := context.Background()

	me, err := svc.Me(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "hari@test.com", me.Email)

	other, err := svc.Get(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Gita", other.Name)

	require.NoError(t, repository.NewUserRepository(gdb).SetActive(ctx, users[1].ID, false))
	_, err = svc.Get(ctx, users[1].ID)
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = svc.Me(ctx, users[1].ID)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestProfile_UpdateMe(t *testing.T) {
	gdb := dbtest.Open(t)
	users := dbtest.CreateUsers(t, gdb, "Hari")
	svc := profile.NewProfileService(app.New(&config.Config{}, gdb, nil,
		auth.NewTokenIssuer("s", "i", time.Hour), logger.Discard()))
	ctx := context.Background()

	me, err := svc.UpdateMe(ctx, users[0].ID, profile.Update{
		Bio:      ptr("trekking and momo"),
		Location: ptr(" Pokhara "),
		Age:      ptr(30),
	})
	require.NoError(t, err)
	assert.Equal(t, "trekking and momo", me.Bio)
	assert.Equal(t, "Pokhara", me.Location)
	assert.Equal(t, 30, me.Age)
	assert.Equal(t, "Hari", me.Name, "nil fields stay untouched")

	// empty edit is a no-op, not an error
	_, err = svc.UpdateMe(ctx, users[0].ID, profile.Update{})
	require.NoError(t, err)

	bad := []profile.Update{
		{Name: ptr("   ")},
		{Age: ptr(17)},
		{Bio: ptr(strings.Repeat("x", 1001))},
	}
	for _, u := range bad {
		_, err := svc.UpdateMe(ctx, users[0].ID, u)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	}
}

func TestValidateAge(t *testing.T) {
	assert.NoError(t, profile.ValidateAge(0))
	assert.NoError(t, profile.ValidateAge(18))
	assert.NoError(t, profile.ValidateAge(120))
	assert.Error(t, profile.ValidateAge(121))
	assert.Error(t, profile.ValidateAge(5))
}
