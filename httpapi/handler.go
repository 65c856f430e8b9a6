package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
	"github.com/MrEthical07/authcore/store"
)

// Options tunes the HTTP boundary.
type Options struct {
	Logger *slog.Logger
	// TrustProxy takes the client IP from the first X-Forwarded-For entry.
	// Enable only behind a proxy that overwrites the header.
	TrustProxy bool
}

// Handler serves the /auth and /admin routes.
type Handler struct {
	engine     *authcore.Engine
	logger     *slog.Logger
	trustProxy bool
}

func NewHandler(engine *authcore.Engine, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{engine: engine, logger: logger, trustProxy: opts.TrustProxy}
}

// Routes returns the mux wrapped in panic recovery and request logging.
func (h *Handler) Routes() http.Handler {
	guard := middleware.Guard(h.engine, WriteError)
	admin := func(next http.HandlerFunc) http.Handler {
		return guard(middleware.RequireRole(WriteError, store.RoleAdmin)(next))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/refresh", h.Refresh)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.Handle("POST /auth/logout-all", guard(http.HandlerFunc(h.LogoutAll)))
	mux.Handle("GET /auth/me", guard(http.HandlerFunc(h.Me)))
	mux.Handle("POST /auth/change-password", guard(http.HandlerFunc(h.ChangePassword)))
	mux.HandleFunc("POST /auth/forgot-password", h.ForgotPassword)
	mux.HandleFunc("POST /auth/reset-password", h.ResetPassword)
	mux.HandleFunc("POST /auth/verify-email", h.VerifyEmail)
	mux.HandleFunc("POST /auth/resend-verification", h.ResendVerification)
	mux.HandleFunc("POST /auth/google", h.Google)
	mux.HandleFunc("POST /auth/github", h.GitHub)
	mux.Handle("PATCH /admin/users/{id}/status", admin(h.SetStatus))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return Recover(h.logger, RequestLogging(h.logger, h.withClient(mux)))
}

// withClient records the caller's IP and user agent for the engine.
func (h *Handler) withClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := authcore.WithClientIP(r.Context(), clientIP(r, h.trustProxy))
		ctx = authcore.WithDevice(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.engine.Register(r.Context(), authcore.RegisterInput{
		Email:    trimmed(body.Email),
		Password: body.Password,
		Name:     trimmed(body.Name),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toAuthResponse(res))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.engine.Login(r.Context(), trimmed(body.Email), body.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAuthResponse(res))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.engine.Refresh(r.Context(), trimmed(body.RefreshToken))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toAuthResponse(res))
}

// Logout accepts an optional bearer token and an optional refresh token in
// the body; whichever is present is revoked.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if err := decodeOptional(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	access, _ := middleware.BearerToken(r.Header.Get("Authorization"))

	if err := h.engine.Logout(r.Context(), access, trimmed(body.RefreshToken)); err != nil {
		WriteError(w, r, err)
		return
	}
	writeMessage(w, "logged out")
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	access, _ := middleware.BearerToken(r.Header.Get("Authorization"))

	if err := h.engine.LogoutAll(r.Context(), claims.UserID, access); err != nil {
		WriteError(w, r, err)
		return
	}
	writeMessage(w, "logged out from all devices")
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	user, err := h.engine.GetUser(r.Context(), claims.UserID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body changePasswordRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())

	if err := h.engine.ChangePassword(r.Context(), claims.UserID, body.CurrentPassword, body.NewPassword); err != nil {
		WriteError(w, r, err)
		return
	}
	writeMessage(w, "password changed")
}

// ForgotPassword always answers with the same message for a well-formed
// request, registered or not.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body emailRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.engine.RequestPasswordReset(r.Context(), body.Email); err != nil {
		WriteError(w, r, err)
		return
	}
	writeMessage(w, "if the email is registered, a reset link has been sent")
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetPasswordRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.engine.ResetPassword(r.Context(), trimmed(body.Token), body.NewPassword); err != nil {
		WriteError(w, r, err)
		return
	}
	writeMessage(w, "password has been reset")
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.engine.VerifyEmail(r.Context(), trimmed(body.Token))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var body emailRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.engine.RequestEmailVerification(r.Context(), body.Email); err != nil {
		WriteError(w, r, err)
		return
	}
	writeMessage(w, "if the email is registered, a verification link has been sent")
}

func (h *Handler) Google(w http.ResponseWriter, r *http.Request) {
	var body googleRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	h.federated(w, r, func(ctx context.Context) (*authcore.SignInResult, error) {
		return h.engine.ResolveGoogleSignIn(ctx, trimmed(body.IDToken))
	})
}

func (h *Handler) GitHub(w http.ResponseWriter, r *http.Request) {
	var body githubRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	h.federated(w, r, func(ctx context.Context) (*authcore.SignInResult, error) {
		return h.engine.ResolveGithubSignIn(ctx, trimmed(body.Code))
	})
}

func (h *Handler) federated(w http.ResponseWriter, r *http.Request, resolve func(context.Context) (*authcore.SignInResult, error)) {
	res, err := resolve(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeData(w, status, toAuthResponse(res))
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := decode(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	if body.IsActive == nil {
		WriteError(w, r, authcore.ErrValidation)
		return
	}

	user, err := h.engine.SetAccountActive(r.Context(), r.PathValue("id"), *body.IsActive)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toUserResponse(user))
}
