package event

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

const upcomingLimit = 50

// CreateRequest is the payload for a new event. StartsAt must lie in the future.
type CreateRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
}

type View struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	CreatedBy   uint64    `json:"created_by"`
}

// Detail is a View with RSVP counts per status.
type Detail struct {
	View
	Counts map[db.RSVPStatus]int64 `json:"rsvp_counts"`
	Going  int64                   `json:"attendee_count"`
}

// MyRSVP pairs an event with the caller's answer.
type MyRSVP struct {
	Event  View          `json:"event"`
	Status db.RSVPStatus `json:"status"`
}

func toView(e db.Event) View {
	return View{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		CreatedBy:   e.CreatedBy,
	}
}

// Service manages community events and RSVPs.
type Service struct {
	appCtx *app.AppContext
	events *repository.EventRepository
	now    func() time.Time
}

func NewEventService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		events: repository.NewEventRepository(appCtx.DB),
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, userID uint64, req CreateRequest) (*View, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || utf8.RuneCountInString(title) > 200 {
		return nil, svcErr.InvalidArgument("title must be 1-200 characters")
	}
	if utf8.RuneCountInString(req.Description) > 2000 {
		return nil, svcErr.InvalidArgument("description must be at most 2000 characters")
	}
	if req.StartsAt.IsZero() || !req.StartsAt.After(s.now()) {
		return nil, svcErr.InvalidArgument("starts_at must be in the future")
	}

	e := db.Event{
		Title:       title,
		Description: req.Description,
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt.UTC(),
		CreatedBy:   userID,
	}
	if err := s.events.Create(ctx, &e); err != nil {
		s.appCtx.Logger.Error("create event failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("event created", "event", e.ID, "by", userID)
	v := toView(e)
	return &v, nil
}

// Upcoming lists events that have not started yet, soonest first.
func (s *Service) Upcoming(ctx context.Context) ([]View, error) {
	events, err := s.events.ListUpcoming(ctx, s.now().UTC(), upcomingLimit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := make([]View, 0, len(events))
	for _, e := range events {
		out = append(out, toView(e))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, eventID uint64) (*Detail, error) {
	e, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	counts, err := s.events.CountByStatus(ctx, eventID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &Detail{View: toView(*e), Counts: counts, Going: counts[db.RSVPGoing]}, nil
}

// RSVP records or replaces the caller's answer for an event.
func (s *Service) RSVP(ctx context.Context, userID, eventID uint64, status db.RSVPStatus) error {
	if !status.Valid() {
		return svcErr.InvalidArgument("status must be one of going, interested, not_going")
	}
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return svcErr.Map(err)
	}
	if err := s.events.UpsertRSVP(ctx, eventID, userID, status); err != nil {
		s.appCtx.Logger.Error("UpsertRSVP failed", "event", eventID, "user", userID, "err", err)
		return svcErr.Map(err)
	}
	return nil
}

// Attendees returns the public profiles of active users going to the event.
func (s *Service) Attendees(ctx context.Context, eventID uint64) ([]profile.Public, error) {
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return nil, svcErr.Map(err)
	}
	users, err := s.events.Attendees(ctx, eventID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := make([]profile.Public, 0, len(users))
	for _, u := range users {
		out = append(out, profile.ToPublic(u))
	}
	return out, nil
}

// MyRSVPs returns the caller's answers together with their events.
func (s *Service) MyRSVPs(ctx context.Context, userID uint64) ([]MyRSVP, error) {
	rsvps, err := s.events.RSVPsForUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	ids := make([]uint64, 0, len(rsvps))
	for _, r := range rsvps {
		ids = append(ids, r.EventID)
	}
	events, err := s.events.GetMany(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	out := make([]MyRSVP, 0, len(rsvps))
	for _, r := range rsvps {
		e, ok := events[r.EventID]
		if !ok {
			continue
		}
		out = append(out, MyRSVP{Event: toView(e), Status: r.Status})
	}
	return out, nil
}
