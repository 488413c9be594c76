package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
)

// CookieConfig controls the credential cookies.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c CookieConfig) setAuth(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   c.Secure,
		MaxAge:   int(c.AccessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    refresh,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		MaxAge:   int(c.RefreshTTL.Seconds()),
	})
}

func (c CookieConfig) clearAuth(w http.ResponseWriter) {
	for _, name := range []string{common.AccessTokenCookieName, common.RefreshTokenCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   c.Secure,
			MaxAge:   -1,
		})
	}
}
