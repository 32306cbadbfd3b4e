package submit

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/certinal/booth-backend/internal/store"
	"github.com/certinal/booth-backend/pkg/response"
)

// Handler exposes the public registration endpoint.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a submission handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Register handles POST /register. Validation failures are 400 with the
// offending field; store failures map to distinct statuses but carry only
// the generic user-facing wording, with detail in the logs.
func (h *Handler) Register(c *gin.Context) {
	var sub Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	rec, err := h.service.Submit(c.Request.Context(), sub)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			response.BadRequest(c, "missing or invalid field: "+ve.Field)
			return
		}
		h.logger.Error("registration failed", zap.Error(err))
		switch {
		case store.IsConfig(err):
			response.ServiceUnavailable(c, msgConfig)
		case store.MissingTable(err):
			response.ServiceUnavailable(c, msgMissingTable)
		default:
			response.Internal(c, msgRetry)
		}
		return
	}

	response.Created(c, gin.H{
		"id":         rec.ID,
		"created_at": rec.CreatedAt,
	})
}
