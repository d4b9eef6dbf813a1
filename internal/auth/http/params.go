package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/tiago-cos/prosa-sub000/internal/auth/domain"
	"github.com/tiago-cos/prosa-sub000/internal/httputil"
)

// parseIDParam parses a UUID path parameter. A malformed id names nothing that
// could exist, so it is reported with the same not-found message as a hidden one.
func parseIDParam(c *gin.Context, name string, kind authDomain.ResourceKind, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.HandleErrorGin(c, kind.NotFoundError(), logger)
		return uuid.Nil, false
	}
	return id, true
}
