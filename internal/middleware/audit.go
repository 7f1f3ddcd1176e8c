package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushq/records-api/internal/models"
)

// AuditRecorder persists audit entries. Record must never fail the request.
type AuditRecorder interface {
	Record(ctx context.Context, log *models.AuditLog)
}

// actionForSubPath maps trailing route segments to specific audit actions.
// Anything not listed falls back to the HTTP verb mapping.
var actionForSubPath = map[string]string{
	"upload":      models.AuditActionUpload,
	"documents":   models.AuditActionUpload,
	"materials":   models.AuditActionUpload,
	"attachments": models.AuditActionUpload,
	"approve":     models.AuditActionApprove,
	"reject":      models.AuditActionReject,
	"status":      models.AuditActionStatusChange,
	"submit":      models.AuditActionStatusChange,
	"cancel":      models.AuditActionStatusChange,
	"waive":       models.AuditActionStatusChange,
	"overdue":     models.AuditActionStatusChange,
	"assign":      models.AuditActionUpdate,
	"enroll":      models.AuditActionEnroll,
	"payments":    models.AuditActionPayment,
	"late-fee":    models.AuditActionPayment,
}

// Audit intercepts requests on a resource group and appends an audit entry
// after the handler runs. The action is inferred from the HTTP verb and the
// trailing route segment; nothing is recorded for non-2xx responses and
// write failures are swallowed by the recorder.
func Audit(recorder AuditRecorder, logger *zap.Logger, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}

		var userID *string
		if claims, ok := c.Get(ContextUserKey); ok {
			user := claims.(*models.JWTClaims)
			userID = &user.UserID
		}

		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"path":   c.FullPath(),
			"method": c.Request.Method,
			"status": status,
		})

		recorder.Record(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     inferAction(c.Request.Method, c.FullPath()),
			Resource:   resource,
			ResourceID: resourceID,
			Details:    details,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		})
	}
}

func inferAction(method, fullPath string) string {
	segments := strings.Split(strings.Trim(fullPath, "/"), "/")
	if len(segments) > 0 {
		last := segments[len(segments)-1]
		if action, ok := actionForSubPath[last]; ok {
			return action
		}
	}

	switch method {
	case http.MethodPost:
		return models.AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return models.AuditActionUpdate
	case http.MethodDelete:
		return models.AuditActionDelete
	default:
		return models.AuditActionRead
	}
}
