package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collab-service/internal/apperrors"
)

// UserExistenceChecker reports whether a user id still resolves to an account.
type UserExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// AccessGuard admits requests whose session user still exists. The existence
// check runs on every request; the result is never cached.
func AccessGuard(users UserExistenceChecker, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFromContext(c)
		if !ok || sess.UserID == "" {
			apperrors.Respond(c, apperrors.Unauthorized("not authenticated"))
			return
		}

		exists, err := users.Exists(c.Request.Context(), sess.UserID)
		if err != nil {
			logger.WithError(err).WithField("user_id", sess.UserID).Error("access guard lookup failed")
			apperrors.Respond(c, apperrors.Internal("failed to verify session", err))
			return
		}
		if !exists {
			apperrors.Respond(c, apperrors.Unauthorized("not authenticated"))
			return
		}

		c.Set(UserIDKey, sess.UserID)
		c.Next()
	}
}
