package matching

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/auth"
	"github.com/oggyb/pahilobhet/internal/db"
	svcErr "github.com/oggyb/pahilobhet/internal/errors"
	"github.com/oggyb/pahilobhet/internal/httpx"
)

// Registrar ties the matching routes into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the matching service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the matching routes behind token auth.
func (r *Registrar) Register(router chi.Router) {
	h := &handler{svc: NewMatchingService(r.appCtx)}

	router.Route("/matching", func(mr chi.Router) {
		mr.Use(auth.Require(r.appCtx.Tokens))
		mr.Get("/profiles", h.profiles)
		mr.Post("/like", h.like)
		mr.Get("/likes", h.likedYou)
		mr.Get("/likes/new", h.newLikedYou)
		mr.Get("/likes/count", h.countLikedYou)
		mr.Get("/matches", h.listMatches)
		mr.Delete("/matches/{id}", h.unmatch)
	})
}

type handler struct {
	svc *Service
}

type likerLister func(ctx context.Context, userID uint64, pageToken *string) ([]Liker, *string, error)

type likeRequest struct {
	TargetUserID uint64 `json:"targetUserId"`
	Action       string `json:"action"`
}

func (h *handler) profiles(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	limit, err := httpx.QueryInt(r, "limit", 0)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	profiles, err := h.svc.GetCandidates(r.Context(), userID, limit)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"profiles": profiles})
}

func (h *handler) like(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var req likeRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if req.TargetUserID == 0 || req.Action == "" {
		httpx.Error(w, r, svcErr.InvalidArgument("Target user ID and action are required"))
		return
	}

	action := db.SwipeAction(req.Action)
	res, err := h.svc.RecordSwipe(r.Context(), userID, req.TargetUserID, action)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	body := httpx.M{
		"message":  swipeMessage(action),
		"accepted": res.Accepted,
		"isMatch":  res.IsMatch,
	}
	if res.IsMatch {
		body["matchId"] = res.MatchID
	}
	httpx.OK(w, r, body)
}

func (h *handler) likedYou(w http.ResponseWriter, r *http.Request) {
	h.likers(w, r, h.svc.ListLikedYou)
}

func (h *handler) newLikedYou(w http.ResponseWriter, r *http.Request) {
	h.likers(w, r, h.svc.ListNewLikedYou)
}

func (h *handler) likers(w http.ResponseWriter, r *http.Request, list likerLister) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	likers, next, err := list(r.Context(), userID, httpx.QueryString(r, "pageToken"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	body := httpx.M{"likers": likers}
	if next != nil {
		body["nextPageToken"] = *next
	}
	httpx.OK(w, r, body)
}

func (h *handler) countLikedYou(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	n, err := h.svc.CountLikedYou(r.Context(), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"count": n})
}

func (h *handler) listMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	matches, err := h.svc.ListMatches(r.Context(), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"matches": matches})
}

func (h *handler) unmatch(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	matchID, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.svc.Unmatch(r.Context(), userID, matchID); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"message": "Unmatched"})
}

func swipeMessage(a db.SwipeAction) string {
	switch a {
	case db.ActionPass:
		return "Passed successfully"
	case db.ActionSuperLike:
		return "Super liked successfully"
	default:
		return "Liked successfully"
	}
}
