package preferences

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pocketly/internal/i18n"
	dErrors "pocketly/pkg/domain-errors"
	"pocketly/pkg/platform/httputil"
)

const (
	cookieMaxAge = 365 * 24 * time.Hour
	maxBodyBytes = 1 << 10
)

// UpdateRequest changes one or both stored preferences. Absent fields keep
// their current value.
type UpdateRequest struct {
	Language *string `json:"language"`
	Theme    *string `json:"theme"`
}

// Handler serves the preferences API.
type Handler struct {
	secureCookies bool
}

// NewHandler builds the handler. secureCookies marks cookies Secure and should
// be set outside local development.
func NewHandler(secureCookies bool) *Handler {
	return &Handler{secureCookies: secureCookies}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/preferences", h.HandleGet)
	r.Put("/api/preferences", h.HandleUpdate)
}

// HandleGet returns the preferences resolved for this request.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, FromContext(r.Context()))
}

// HandleUpdate validates the requested values, stores them as cookies and
// returns the effective preferences.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	current := FromContext(r.Context())

	var req UpdateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, i18n.T(current.Language, i18n.InvalidRequestFormat)))
		return
	}

	next, err := apply(current, req)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, i18n.T(current.Language, i18n.InvalidPreferences)))
		return
	}

	if req.Language != nil {
		http.SetCookie(w, h.cookie(LanguageCookie, string(next.Language)))
	}
	if req.Theme != nil {
		http.SetCookie(w, h.cookie(ThemeCookie, string(next.Theme)))
	}
	httputil.WriteJSON(w, http.StatusOK, next)
}

var errUnsupported = dErrors.New(dErrors.CodeValidation, "unsupported preference")

func apply(p Preferences, req UpdateRequest) (Preferences, error) {
	if req.Language != nil {
		lang, ok := i18n.ParseLang(*req.Language)
		if !ok {
			return p, errUnsupported
		}
		p.Language, p.LanguageSource = lang, SourceStored
	}
	if req.Theme != nil {
		theme, ok := ParseTheme(*req.Theme)
		if !ok {
			return p, errUnsupported
		}
		p.Theme, p.ThemeSource = theme, SourceStored
	}
	return p, nil
}

func (h *Handler) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	}
}
