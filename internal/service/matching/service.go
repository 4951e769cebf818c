package matching

import (
	"context"
	"errors"
	"time"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/db"
	svcErr "github.com/oggyb/pahilobhet/internal/errors"
	"github.com/oggyb/pahilobhet/internal/repository"
	"github.com/oggyb/pahilobhet/internal/service/profile"
	"github.com/oggyb/pahilobhet/internal/utils/pagination"
)

const (
	// MaxCandidates caps a single discovery page regardless of the requested limit.
	MaxCandidates = 50
	likesPageSize = 20
)

// SwipeResult is returned by RecordSwipe. Accepted is always true on
// success: a repeated swipe on the same pair overwrites the earlier action.
type SwipeResult struct {
	Accepted bool
	IsMatch  bool
	MatchID  uint64
}

// MatchResult is the outcome of EvaluateMatch.
type MatchResult struct {
	IsMatch bool
	MatchID uint64
}

// Liker is one entry of the "liked you" inbox.
type Liker struct {
	Profile   profile.Public `json:"profile"`
	Action    db.SwipeAction `json:"action"`
	LikedAtMS int64          `json:"liked_at"`
}

// MatchView is a match as seen by one of its members.
type MatchView struct {
	MatchID   uint64         `json:"match_id"`
	User      profile.Public `json:"user"`
	MatchedAt time.Time      `json:"matched_at"`
}

// Service implements discovery, the swipe ledger and match detection on
// top of the repository and cache layers.
type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	swipes  *repository.SwipeRepository
	matches *repository.MatchRepository
}

// NewMatchingService creates the service with dependencies from AppContext.
func NewMatchingService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		swipes:  repository.NewSwipeRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
	}
}

// GetCandidates returns up to limit profiles the actor has not swiped on.
//
// Behavior:
//   - The actor must be an existing, active user (else ErrNotAuthenticated).
//   - Excludes the actor, inactive users and every user the actor swiped
//     on with any action.
//   - limit <= 0 uses the configured default; values above MaxCandidates are capped.
//   - Read only.
func (s *Service) GetCandidates(ctx context.Context, actorID uint64, limit int) ([]profile.Public, error) {
	if err := s.requireActor(ctx, actorID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.appCtx.Config.Matching.DiscoveryLimit
	}
	limit = min(limit, MaxCandidates)

	users, err := s.users.ListCandidates(ctx, actorID, limit)
	if err != nil {
		s.appCtx.Logger.Error("ListCandidates failed", "actor", actorID, "err", err)
		return nil, svcErr.Map(err)
	}

	out := make([]profile.Public, 0, len(users))
	for _, u := range users {
		out = append(out, profile.ToPublic(u))
	}
	s.appCtx.Logger.Debug("GetCandidates result", "actor", actorID, "count", len(out))
	return out, nil
}

// RecordSwipe stores actor's decision about target and evaluates the match.
//
// Behavior:
//   - Validates the action, rejects self-swipes, requires an active target.
//   - Upserts the swipe: at most one row per ordered pair, last action wins.
//   - Drops the cached like counts of both users.
//   - Runs EvaluateMatch synchronously after the swipe is committed.
func (s *Service) RecordSwipe(ctx context.Context, actorID, targetID uint64, action db.SwipeAction) (*SwipeResult, error) {
	s.appCtx.Logger.Debug("RecordSwipe called", "actor", actorID, "target", targetID, "action", action)

	if !action.Valid() {
		return nil, svcErr.Map(svcErr.ErrInvalidAction)
	}
	if actorID == targetID {
		return nil, svcErr.InvalidArgument("cannot swipe on yourself")
	}
	if err := s.requireActor(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetActiveByID(ctx, targetID); err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.Map(svcErr.ErrUnknownTarget)
		}
		return nil, svcErr.Map(err)
	}

	if err := s.swipes.Upsert(ctx, actorID, targetID, action); err != nil {
		s.appCtx.Logger.Error("swipe upsert failed", "actor", actorID, "target", targetID, "err", err)
		return nil, svcErr.Map(err)
	}
	s.invalidateLikeCounts(ctx, actorID, targetID)

	res, err := s.EvaluateMatch(ctx, actorID, targetID, action)
	if err != nil {
		return nil, err
	}
	return &SwipeResult{Accepted: true, IsMatch: res.IsMatch, MatchID: res.MatchID}, nil
}

// EvaluateMatch decides whether the pair is now a mutual match.
//
// Behavior:
//   - pass: never matches and never reads the reverse swipe. An existing
//     match for the pair is deactivated, since one side is no longer positive.
//   - like / super_like: if target's swipe on actor is also positive, the
//     canonical pair's match row is upserted to matched and its id returned.
//   - After materializing, the reverse swipe is read again; if it turned into
//     a pass meanwhile, the match is deactivated and IsMatch is false.
func (s *Service) EvaluateMatch(ctx context.Context, actorID, targetID uint64, action db.SwipeAction) (*MatchResult, error) {
	if !action.Positive() {
		changed, err := s.matches.Deactivate(ctx, actorID, targetID)
		if err != nil {
			s.appCtx.Logger.Error("match deactivate failed", "actor", actorID, "target", targetID, "err", err)
			return nil, svcErr.Map(err)
		}
		if changed {
			s.appCtx.Logger.Info("match deactivated", "actor", actorID, "target", targetID)
		}
		return &MatchResult{IsMatch: false}, nil
	}

	mutual, err := s.swipes.HasLikedPositively(ctx, targetID, actorID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !mutual {
		return &MatchResult{IsMatch: false}, nil
	}

	m, err := s.matches.Materialize(ctx, actorID, targetID)
	if err != nil {
		s.appCtx.Logger.Error("match materialize failed", "actor", actorID, "target", targetID, "err", err)
		return nil, svcErr.Map(err)
	}

	// the reverse side may have passed between the read and the upsert
	still, err := s.swipes.HasLikedPositively(ctx, targetID, actorID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !still {
		if _, err := s.matches.Deactivate(ctx, actorID, targetID); err != nil {
			return nil, svcErr.Map(err)
		}
		return &MatchResult{IsMatch: false}, nil
	}

	s.appCtx.Logger.Info("mutual match", "match", m.ID, "low", m.UserLowID, "high", m.UserHighID)
	return &MatchResult{IsMatch: true, MatchID: m.ID}, nil
}

// ListLikedYou returns users who liked userID, excluding ones userID passed.
// Newest first, paginated with an opaque token.
func (s *Service) ListLikedYou(ctx context.Context, userID uint64, pageToken *string) ([]Liker, *string, error) {
	swipes, next, err := s.swipes.GetLikers(ctx, userID, pageToken, likesPageSize)
	if err != nil {
		return nil, nil, s.mapPageErr(err)
	}
	likers, err := s.withProfiles(ctx, swipes)
	return likers, next, err
}

// ListNewLikedYou is ListLikedYou without the people userID already liked back.
func (s *Service) ListNewLikedYou(ctx context.Context, userID uint64, pageToken *string) ([]Liker, *string, error) {
	swipes, next, err := s.swipes.GetNewLikers(ctx, userID, pageToken, likesPageSize)
	if err != nil {
		return nil, nil, s.mapPageErr(err)
	}
	likers, err := s.withProfiles(ctx, swipes)
	return likers, next, err
}

// CountLikedYou returns how many users liked userID.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID), refreshing its TTL.
//  2. On a miss or a Redis error, falls back to the DB.
//  3. On DB fetch, stores the count in Redis with a 1h TTL unless a swipe
//     invalidated it while the DB was being read.
func (s *Service) CountLikedYou(ctx context.Context, userID uint64) (int64, error) {
	if n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, userID); err == nil && ok {
		return n, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("like count cache read failed", "user", userID, "err", err)
	}

	version, verErr := s.appCtx.RedisCache.LikeCountVersion(ctx, userID)

	count, err := s.swipes.CountLikers(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}

	if verErr != nil {
		return count, nil
	}
	if err := s.appCtx.RedisCache.SetLikeCount(ctx, userID, count, version); err != nil {
		s.appCtx.Logger.Warn("like count cache write failed", "user", userID, "err", err)
	}
	return count, nil
}

// ListMatches returns the user's active matches with the other member's profile.
func (s *Service) ListMatches(ctx context.Context, userID uint64) ([]MatchView, error) {
	matches, err := s.matches.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ids := make([]uint64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Other(userID))
	}
	users, err := s.users.GetManyActive(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	out := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		u, ok := users[m.Other(userID)]
		if !ok {
			continue // other side deactivated their account
		}
		out = append(out, MatchView{MatchID: m.ID, User: profile.ToPublic(u), MatchedAt: m.UpdatedAt})
	}
	return out, nil
}

// Unmatch ends an active match. It is recorded as a pass on the other
// member, so the match cannot be revived unless the caller likes again.
func (s *Service) Unmatch(ctx context.Context, userID, matchID uint64) error {
	m, err := s.matches.GetActive(ctx, matchID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !m.Has(userID) {
		return svcErr.Map(svcErr.ErrNotMember)
	}

	other := m.Other(userID)
	if err := s.swipes.Upsert(ctx, userID, other, db.ActionPass); err != nil {
		return svcErr.Map(err)
	}
	s.invalidateLikeCounts(ctx, userID, other)

	_, err = s.EvaluateMatch(ctx, userID, other, db.ActionPass)
	return err
}

func (s *Service) requireActor(ctx context.Context, actorID uint64) error {
	if _, err := s.users.GetActiveByID(ctx, actorID); err != nil {
		if svcErr.IsNotFound(err) {
			return svcErr.Map(svcErr.ErrNotAuthenticated)
		}
		return svcErr.Map(err)
	}
	return nil
}

// invalidateLikeCounts drops both counts: the target's changes with the
// actor's positivity, the actor's with the actor's passes.
func (s *Service) invalidateLikeCounts(ctx context.Context, ids ...uint64) {
	for _, id := range ids {
		if err := s.appCtx.RedisCache.InvalidateLikeCount(ctx, id); err != nil {
			s.appCtx.Logger.Warn("like count invalidation failed", "user", id, "err", err)
		}
	}
}

func (s *Service) withProfiles(ctx context.Context, swipes []db.Swipe) ([]Liker, error) {
	ids := make([]uint64, 0, len(swipes))
	for _, sw := range swipes {
		ids = append(ids, sw.ActorID)
	}
	users, err := s.users.GetManyActive(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	out := make([]Liker, 0, len(swipes))
	for _, sw := range swipes {
		u, ok := users[sw.ActorID]
		if !ok {
			continue
		}
		out = append(out, Liker{Profile: profile.ToPublic(u), Action: sw.Action, LikedAtMS: sw.UpdatedAt.UnixMilli()})
	}
	return out, nil
}

func (s *Service) mapPageErr(err error) error {
	if errors.Is(err, pagination.ErrInvalidToken) {
		return svcErr.InvalidArgument(err.Error())
	}
	s.appCtx.Logger.Error("likes query failed", "err", err)
	return svcErr.Map(err)
}
