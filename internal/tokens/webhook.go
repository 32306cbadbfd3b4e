package tokens

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/certinal/booth-backend/internal/models"
)

// WebhookHandler receives the store's row-creation trigger.
type WebhookHandler struct {
	assigner *Assigner
	logger   *zap.Logger
}

// NewWebhookHandler creates the trigger webhook handler.
func NewWebhookHandler(assigner *Assigner, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{assigner: assigner, logger: logger}
}

type webhookPayload struct {
	Record models.Registration `json:"record"`
}

// RegistrationCreated handles POST /webhooks/registration-created.
// The response shape is the trigger contract:
// {success, tokenNumber, emailId} on 200, {error} otherwise.
func (h *WebhookHandler) RegistrationCreated(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Record.ID == "" || payload.Record.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record id and email required"})
		return
	}

	res, err := h.assigner.Assign(c.Request.Context(), payload.Record)
	if err != nil {
		h.logger.Error("token assignment failed",
			zap.String("registration_id", payload.Record.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"tokenNumber": res.Token,
		"emailId":     res.EmailID,
	})
}
