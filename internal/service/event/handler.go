package event

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/auth"
	"github.com/oggyb/pahilobhet/internal/db"
	"github.com/oggyb/pahilobhet/internal/httpx"
)

type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router chi.Router) {
	h := &handler{svc: NewEventService(r.appCtx)}

	router.Route("/events", func(er chi.Router) {
		er.Use(auth.Require(r.appCtx.Tokens))
		er.Get("/", h.list)
		er.Post("/", h.create)
		er.Get("/my-rsvps", h.myRSVPs)
		er.Get("/{id}", h.get)
		er.Post("/{id}/rsvp", h.rsvp)
		er.Get("/{id}/attendees", h.attendees)
	})
}

type handler struct {
	svc *Service
}

type rsvpRequest struct {
	Status db.RSVPStatus `json:"status"`
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Upcoming(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"events": events})
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req CreateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	e, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, httpx.M{"event": e})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"event": e})
}

func (h *handler) rsvp(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req rsvpRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.svc.RSVP(r.Context(), userID, id, req.Status); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"message": "RSVP saved", "status": req.Status})
}

func (h *handler) attendees(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	users, err := h.svc.Attendees(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"attendees": users})
}

func (h *handler) myRSVPs(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	rsvps, err := h.svc.MyRSVPs(r.Context(), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"rsvps": rsvps})
}
