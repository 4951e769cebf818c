package conversation

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/db"
	svcErr "github.com/oggyb/pahilobhet/internal/errors"
	"github.com/oggyb/pahilobhet/internal/repository"
	"github.com/oggyb/pahilobhet/internal/service/profile"
)

const (
	MaxBodyLen      = 2000
	defaultPageSize = 50
	maxPageSize     = 100
)

// Summary is one entry of the caller's conversation list.
type Summary struct {
	ConversationID uint64         `json:"conversation_id"`
	MatchID        uint64         `json:"match_id"`
	User           profile.Public `json:"user"`
	LastMessage    *MessageView   `json:"last_message,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type MessageView struct {
	ID        uint64    `json:"id"`
	SenderID  uint64    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toView(m db.Message) MessageView {
	return MessageView{ID: m.ID, SenderID: m.SenderID, Body: m.Body, CreatedAt: m.CreatedAt}
}

// Service implements messaging between the two members of an active match.
type Service struct {
	appCtx        *app.AppContext
	users         *repository.UserRepository
	matches       *repository.MatchRepository
	conversations *repository.ConversationRepository
}

func NewConversationService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:        appCtx,
		users:         repository.NewUserRepository(appCtx.DB),
		matches:       repository.NewMatchRepository(appCtx.DB),
		conversations: repository.NewConversationRepository(appCtx.DB),
	}
}

// List returns the caller's conversations over active matches, most recent first.
// Matches without any message yet have no conversation and are not listed.
func (s *Service) List(ctx context.Context, userID uint64) ([]Summary, error) {
	rows, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("ListForUser failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, other(row, userID))
	}
	users, err := s.users.GetManyActive(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	out := make([]Summary, 0, len(rows))
	for _, row := range rows {
		u, ok := users[other(row, userID)]
		if !ok {
			continue
		}
		sum := Summary{
			ConversationID: row.ConversationID,
			MatchID:        row.MatchID,
			User:           profile.ToPublic(u),
			UpdatedAt:      row.UpdatedAt,
		}
		last, err := s.conversations.ListMessages(ctx, row.ConversationID, 0, 1)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		if len(last) == 1 {
			v := toView(last[0])
			sum.LastMessage = &v
		}
		out = append(out, sum)
	}
	return out, nil
}

// History returns up to limit messages of the match older than beforeID,
// newest first. A match nobody has written in yet returns an empty list.
func (s *Service) History(ctx context.Context, userID, matchID, beforeID uint64, limit int) ([]MessageView, error) {
	if _, err := s.member(ctx, userID, matchID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	conv, err := s.conversations.GetByMatch(ctx, matchID)
	if svcErr.IsNotFound(err) {
		return []MessageView{}, nil
	} else if err != nil {
		return nil, svcErr.Map(err)
	}

	msgs, err := s.conversations.ListMessages(ctx, conv.ID, beforeID, limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toView(m))
	}
	return out, nil
}

// Send appends a message from userID to the match's conversation,
// creating the conversation on first use.
func (s *Service) Send(ctx context.Context, userID, matchID uint64, body string) (*MessageView, error) {
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > MaxBodyLen {
		return nil, svcErr.InvalidArgument("message must be 1-2000 characters")
	}
	if _, err := s.member(ctx, userID, matchID); err != nil {
		return nil, err
	}

	conv, err := s.conversations.GetOrCreate(ctx, matchID)
	if err != nil {
		s.appCtx.Logger.Error("conversation GetOrCreate failed", "match", matchID, "err", err)
		return nil, svcErr.Map(err)
	}

	m := db.Message{ConversationID: conv.ID, SenderID: userID, Body: body}
	if err := s.conversations.AddMessage(ctx, &m); err != nil {
		s.appCtx.Logger.Error("AddMessage failed", "conversation", conv.ID, "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Debug("message sent", "conversation", conv.ID, "sender", userID)
	v := toView(m)
	return &v, nil
}

// member loads the active match and checks userID belongs to it. Outsiders
// get the same NotFound as a missing match.
func (s *Service) member(ctx context.Context, userID, matchID uint64) (*db.Match, error) {
	m, err := s.matches.GetActive(ctx, matchID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !m.Has(userID) {
		return nil, svcErr.Map(svcErr.ErrNotMember)
	}
	return m, nil
}

func other(row repository.ConversationSummary, userID uint64) uint64 {
	if row.UserLowID == userID {
		return row.UserHighID
	}
	return row.UserLowID
}
