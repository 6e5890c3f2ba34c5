package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/theme"
)

// visitorCookie holds the id scoping server-side preferences.
const visitorCookie = "folio_visitor"

// visitorKey is the gin context key of the visitor id.
const visitorKey = "visitor"

// cookieStorage keeps the preference in a response cookie, the server-side
// counterpart of browser local storage.
type cookieStorage struct {
	c      *gin.Context
	name   string
	maxAge time.Duration
}

func (s *cookieStorage) Get(key string) (string, bool, error) {
	v, err := s.c.Cookie(s.cookieName(key))
	if errors.Is(err, http.ErrNoCookie) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *cookieStorage) Set(key, value string) error {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.cookieName(key), value, int(s.maxAge.Seconds()), "/", "", false, true)
	return nil
}

// cookieName maps the storage key onto the configured cookie. Keys other
// than the theme key get their own cookie.
func (s *cookieStorage) cookieName(key string) string {
	if key == theme.DefaultKey || key == "" {
		return s.name
	}
	return s.name + "_" + key
}

// storageFor returns the preference storage for this request: the shared
// backend scoped to the visitor when one is known, else a cookie.
func (s *Server) storageFor(c *gin.Context) theme.Storage {
	if s.prefs != nil {
		if id := c.GetString(visitorKey); id != "" {
			return store.WithPrefix(s.prefs, "visitor:"+id)
		}
	}
	return &cookieStorage{c: c, name: s.cfg.Theme.CookieName, maxAge: s.cfg.Theme.MaxAge()}
}

// visitorMiddleware assigns each browser an opaque id so a server-side
// backend can keep one preference per visitor. Static assets are skipped
// and visitors sending Do Not Track keep their preference in a cookie.
func (s *Server) visitorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.prefs == nil || isAssetPath(c.Request.URL.Path) || c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		id, err := c.Cookie(visitorCookie)
		if err != nil || !validVisitorID(id) {
			id = ulid.Make().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(visitorCookie, id, int(s.cfg.Theme.MaxAge().Seconds()), "/", "", false, true)
		}
		c.Set(visitorKey, id)
		c.Next()
	}
}

func validVisitorID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
