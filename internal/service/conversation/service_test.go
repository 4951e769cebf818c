package conversation_test

import (
	"context"
	"strings"
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
	"github.com/oggyb/pahilobhet/internal/service/conversation"
)

// setup returns a service with three users of which the first two are matched.
func setup(t *testing.T) (*conversation.Service, *gorm.DB, []db.User, *db.Match) {
	t.Helper()
	gdb := dbtest.Open(t)
	users := dbtest.CreateUsers(t, gdb, "Asha", "Bikash", "Chandra")

	m, err := repository.NewMatchRepository(gdb).Materialize(context.Background(), users[0].ID, users[1].ID)
	require.NoError(t, err)

	appCtx := app.New(&config.Config{}, gdb, nil, auth.NewTokenIssuer("s", "i", time.Hour), logger.Discard())
	return conversation.NewConversationService(appCtx), gdb, users, m
}

func TestSendAndHistory(t *testing.T) {
	svc, _, users, m := setup(t)
	ctx := context.Background()

	empty, err := svc.History(ctx, users[0].ID, m.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, empty, "no conversation before the first message")

	for _, body := range []string{"namaste", "kasto cha?", "  thik cha  "} {
		_, err := svc.Send(ctx, users[0].ID, m.ID, body)
		require.NoError(t, err)
	}
	reply, err := svc.Send(ctx, users[1].ID, m.ID, "ramro")
	require.NoError(t, err)
	assert.Equal(t, users[1].ID, reply.SenderID)

	msgs, err := svc.History(ctx, users[1].ID, m.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "ramro", msgs[0].Body, "newest first")
	assert.Equal(t, "thik cha", msgs[1].Body, "body is trimmed")

	older, err := svc.History(ctx, users[0].ID, m.ID, msgs[1].ID, 1)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "kasto cha?", older[0].Body)
}

func TestSend_Rules(t *testing.T) {
	svc, _, users, m := setup(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, users[0].ID, m.ID, "   ")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.Send(ctx, users[0].ID, m.ID, strings.Repeat("a", conversation.MaxBodyLen+1))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.Send(ctx, users[2].ID, m.ID, "hello")
	assert.Equal(t, codes.NotFound, status.Code(err), "outsiders cannot write")

	_, err = svc.History(ctx, users[2].ID, m.ID, 0, 0)
	assert.Equal(t, codes.NotFound, status.Code(err), "outsiders cannot read")

	_, err = svc.Send(ctx, users[0].ID, 9999, "hello")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestInactiveMatchIsClosed(t *testing.T) {
	svc, gdb, users, m := setup(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, users[0].ID, m.ID, "hi")
	require.NoError(t, err)

	convs, err := svc.List(ctx, users[0].ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, users[1].ID, convs[0].User.ID)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "hi", convs[0].LastMessage.Body)

	_, err = repository.NewMatchRepository(gdb).Deactivate(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, users[1].ID, m.ID, "still there?")
	assert.Equal(t, codes.NotFound, status.Code(err))

	convs, err = svc.List(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Empty(t, convs)
}
