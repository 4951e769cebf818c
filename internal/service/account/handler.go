package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/auth"
	"github.com/oggyb/pahilobhet/internal/httpx"
	"github.com/oggyb/pahilobhet/internal/server/middleware"
)

// Registrar mounts signup/login (rate limited per client IP) and token validation.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(router chi.Router) {
	h := &handler{svc: NewAccountService(r.appCtx)}

	router.Route("/auth", func(ar chi.Router) {
		ar.Group(func(pub chi.Router) {
			pub.Use(middleware.RateLimit(r.appCtx.RedisCache, "auth", r.appCtx.Config.Auth.RateLimit))
			pub.Post("/signup", h.signup)
			pub.Post("/login", h.login)
		})

		ar.With(auth.Require(r.appCtx.Tokens)).Get("/validate", h.validate)
	})
}

type handler struct {
	svc *Service
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	sess, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, httpx.M{
		"message": "User created successfully",
		"token":   sess.Token,
		"expires": sess.ExpiresAt,
		"user":    sess.User,
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	sess, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{
		"message": "Login successful",
		"token":   sess.Token,
		"expires": sess.ExpiresAt,
		"user":    sess.User,
	})
}

func (h *handler) validate(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.MustUserID(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	u, err := h.svc.Current(r.Context(), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, r, httpx.M{"user": u})
}
