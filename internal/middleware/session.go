package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collab-service/internal/session"
)

const (
	SessionKey = "session"
	UserIDKey  = "userID"
)

// SessionResolver attaches the session referenced by the sid cookie, if any,
// and renews it. It never rejects a request.
func SessionResolver(store session.Store, cookies *session.CookieCodec, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := cookies.Read(c.Request)
		if err != nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		sess, err := store.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				logger.WithError(err).Warn("session lookup failed")
			}
			c.Next()
			return
		}

		if err := store.Touch(ctx, sess.ID); err != nil {
			logger.WithError(err).WithField("user_id", sess.UserID).Warn("session renewal failed")
		} else if err := cookies.Write(c.Writer, sess.ID); err != nil {
			logger.WithError(err).Warn("session cookie reissue failed")
		}

		c.Set(SessionKey, sess)
		c.Next()
	}
}

// SessionFromContext returns the resolved session.
func SessionFromContext(c *gin.Context) (session.Session, bool) {
	val, ok := c.Get(SessionKey)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := val.(session.Session)
	return sess, ok
}
