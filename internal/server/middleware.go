package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gajilabs/payrun/internal/auditctx"
	"github.com/gajilabs/payrun/internal/orgcontext"
	"github.com/gin-gonic/gin"
)

const (
	HeaderOrg   = "X-Org-ID"
	HeaderActor = "X-Actor-ID"
)

// OrgContext resolves the acting organization from the request and injects it
// into the request context along with the acting identity. Authentication is
// handled upstream; the engine trusts the forwarded headers.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := s.resolveOrgID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		if actorID := strings.TrimSpace(c.GetHeader(HeaderActor)); actorID != "" {
			ctx = auditctx.WithActor(ctx, "user", actorID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func (s *Server) resolveOrgID(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.GetHeader(HeaderOrg))
	if raw == "" {
		if s.cfg.DefaultOrgID != 0 {
			return snowflake.ID(s.cfg.DefaultOrgID), nil
		}
		return 0, ErrUnauthorized
	}

	orgID, err := snowflake.ParseString(raw)
	if err != nil || orgID == 0 {
		return 0, newValidationError("org_id", "invalid_org_id", "invalid org id")
	}
	return orgID, nil
}
