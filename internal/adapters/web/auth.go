package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"retail-erp/internal/core"
	"retail-erp/internal/logger"
	"retail-erp/internal/session"

	"go.uber.org/zap"
)

const sessionCookie = "erp_session"

type sessionKey struct{}

// sessionFromContext returns the session loaded by LoadSession, or nil.
func sessionFromContext(ctx context.Context) *session.Session {
	v, _ := ctx.Value(sessionKey{}).(*session.Session)
	return v
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// LoadSession resolves the erp_session cookie into a session and injects it into
// the request context. Unknown or expired ids get a fresh anonymous session.
func (h *Handler) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}
		s, err := h.svc.LoadSession(r.Context(), id)
		if err != nil {
			logger.FromContext(r.Context()).Error("failed to load session", zap.Error(err))
			writeError(w, r, "session store unavailable", "INTERNAL_ERROR", http.StatusInternalServerError)
			return
		}
		if s.ID != id {
			h.setSessionCookie(w, s.ID)
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSignIn is middleware for JSON routes. It returns 401 when the session is
// not signed in.
func (h *Handler) RequireSignIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFromContext(r.Context()).SignedIn() {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignInBrowser is middleware for HTML page routes. Unlike RequireSignIn (which
// returns 401 JSON), it redirects signed-out requests to /login with a 303.
func (h *Handler) RequireSignInBrowser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFromContext(r.Context()).SignedIn() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ── Login page ────────────────────────────────────────────────────────────────

type loginForm struct {
	Email string
}

// loginPage handles GET /login. Redirects to / if already signed in.
func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if sessionFromContext(r.Context()).SignedIn() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, pageLogin, h.layout(r, "Sign in", ""), loginForm{})
}

// loginSubmit handles POST /login. action=signin (default) or action=signup.
func (h *Handler) loginSubmit(w http.ResponseWriter, r *http.Request) {
	d := h.layout(r, "Sign in", "")
	if err := r.ParseForm(); err != nil {
		d.Flash("Invalid form submission.", flashError)
		h.render(w, r, http.StatusBadRequest, pageLogin, d, loginForm{})
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	form := loginForm{Email: strings.TrimSpace(email)}

	if !h.limiter.allow(clientIP(r)) {
		d.Flash("Too many sign-in attempts. Please wait a minute.", flashError)
		h.render(w, r, http.StatusTooManyRequests, pageLogin, d, form)
		return
	}

	s := sessionFromContext(r.Context())
	signUp := r.PostFormValue("action") == "signup"
	op := h.svc.SignIn
	if signUp {
		op = h.svc.SignUp
	}
	res, err := op(r.Context(), s, email, password)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, core.ErrValidation) {
			status = http.StatusBadRequest
		}
		d.Flash(err.Error(), flashError)
		h.render(w, r, status, pageLogin, d, form)
		return
	}
	if !res.SignedIn {
		d.Flash(res.Message, flashSuccess)
		h.render(w, r, http.StatusOK, pageLogin, d, form)
		return
	}

	h.setSessionCookie(w, s.ID)
	target := "/inventory"
	if res.Warning != "" {
		target = "/dashboard?warn=lists"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// logoutSubmit handles POST /logout: ends the session and redirects to /login.
func (h *Handler) logoutSubmit(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context(), sessionFromContext(r.Context())); err != nil {
		logger.FromContext(r.Context()).Warn("sign-out failed", zap.Error(err))
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
