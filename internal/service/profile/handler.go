package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/auth"
	"github.com/oggyb/pahilobhet/internal/httpx"
)

// Registrar mounts the profile routes.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router chi.Router) {
	h := &handler{svc: NewProfileService(r.appCtx)}

	router.Route("/profiles", func(pr chi.Router) {
		pr.Use(auth.Require(r.appCtx.Tokens))
		pr.Get("/me", h.me)
		pr.Put("/me", h.updateMe)
		pr.Get("/{id}", h.get)
	})
}

type handler struct {
	svc *Service
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"profile": p})
}

func (h *handler) updateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in Update
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := h.svc.UpdateMe(r.Context(), userID, in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"message": "Profile updated", "profile": p})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"profile": p})
}
