package conversation

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/auth"
	svcErr "github.com/oggyb/pahilobhet/internal/errors"
	"github.com/oggyb/pahilobhet/internal/httpx"
)

// Registrar mounts /conversations and /matches/{id}/messages.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router chi.Router) {
	h := &handler{svc: NewConversationService(r.appCtx)}

	router.Group(func(cr chi.Router) {
		cr.Use(auth.Require(r.appCtx.Tokens))
		cr.Get("/conversations", h.list)
		cr.Get("/matches/{id}/messages", h.history)
		cr.Post("/matches/{id}/messages", h.send)
	})
}

type handler struct {
	svc *Service
}

type sendRequest struct {
	Body string `json:"body"`
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	convs, err := h.svc.List(r.Context(), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"conversations": convs})
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
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
	limit, err := httpx.QueryInt(r, "limit", 0)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var before uint64
	if v := httpx.QueryString(r, "before"); v != nil {
		if before, err = strconv.ParseUint(*v, 10, 64); err != nil {
			httpx.Error(w, r, svcErr.InvalidArgument("before must be a message id"))
			return
		}
	}

	msgs, err := h.svc.History(r.Context(), userID, matchID, before, limit)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"messages": msgs})
}

func (h *handler) send(w http.ResponseWriter, r *http.Request) {
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
	var req sendRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	msg, err := h.svc.Send(r.Context(), userID, matchID, req.Body)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, httpx.M{"message": msg})
}
