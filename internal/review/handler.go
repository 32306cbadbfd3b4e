package review

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/certinal/booth-backend/internal/store"
	"github.com/certinal/booth-backend/pkg/response"
)

// Archiver stores a copy of an export. Optional; nil disables archival.
type Archiver interface {
	UploadExport(ctx context.Context, name string, data []byte) (string, error)
}

// Handler exposes the dashboard API. The server hosts one session: the
// dashboard is a single-operator internal tool sitting behind external
// access control.
type Handler struct {
	session  *Session
	archiver Archiver
	logger   *zap.Logger
}

// NewHandler creates a review handler.
func NewHandler(session *Session, archiver Archiver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{session: session, archiver: archiver, logger: logger}
}

// List handles GET /admin/registrations. Loads the cache on first use;
// a fetch failure still answers 200 with an empty list.
func (h *Handler) List(c *gin.Context) {
	if h.session.LastRefresh().IsZero() {
		_ = h.session.Refresh(c.Request.Context())
	}
	response.OK(c, gin.H{
		"registrations": h.session.Rows(),
		"last_refresh":  h.session.LastRefresh(),
	})
}

// Refresh handles POST /admin/registrations/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	_ = h.session.Refresh(c.Request.Context())
	response.OK(c, gin.H{
		"registrations": h.session.Rows(),
		"last_refresh":  h.session.LastRefresh(),
	})
}

// BeginEdit handles POST /admin/registrations/:id/edit.
func (h *Handler) BeginEdit(c *gin.Context) {
	id := c.Param("id")
	if err := h.session.BeginEdit(id); err != nil {
		if errors.Is(err, ErrEditInProgress) {
			response.Conflict(c, "another row is being edited")
			return
		}
		response.NotFound(c, "registration not found")
		return
	}
	response.OK(c, gin.H{"editing": id})
}

// CancelEdit handles DELETE /admin/registrations/edit.
func (h *Handler) CancelEdit(c *gin.Context) {
	h.session.CancelEdit()
	response.NoContent(c)
}

// EditRequest is the body for PATCH /admin/registrations/:id. Pointer
// fields so absent keys are left untouched; book_collected can be set
// either way (reverting it is a business call the API does not police).
type EditRequest struct {
	Title          *string `json:"title"`
	Company        *string `json:"company"`
	CorrectEmailID *string `json:"correct_email_id"`
	BookCollected  *bool   `json:"book_collected"`
}

// CommitEdit handles PATCH /admin/registrations/:id.
func (h *Handler) CommitEdit(c *gin.Context) {
	id := c.Param("id")
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	patch := map[string]any{}
	if req.Title != nil {
		patch["title"] = *req.Title
	}
	if req.Company != nil {
		patch["company"] = *req.Company
	}
	if req.CorrectEmailID != nil {
		patch["correct_email_id"] = *req.CorrectEmailID
	}
	if req.BookCollected != nil {
		patch["book_collected"] = *req.BookCollected
	}
	if len(patch) == 0 {
		response.BadRequest(c, "empty patch")
		return
	}

	updated, err := h.session.CommitEdit(c.Request.Context(), id, patch)
	if err != nil {
		if store.IsNotFound(err) {
			response.NotFound(c, "registration not found")
			return
		}
		h.logger.Error("commit edit failed", zap.String("id", id), zap.Error(err))
		response.Internal(c, "update failed")
		return
	}
	response.OK(c, updated)
}

// Export handles GET /admin/registrations/export: the cached rows as a
// CSV download, with an archive copy uploaded when a bucket is
// configured.
func (h *Handler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.session.ExportCSV(&buf); err != nil {
		h.logger.Error("csv export failed", zap.Error(err))
		response.Internal(c, "export failed")
		return
	}
	name := ExportFilename(time.Now())

	if h.archiver != nil {
		if loc, err := h.archiver.UploadExport(c.Request.Context(), name, buf.Bytes()); err != nil {
			h.logger.Warn("export archival failed", zap.Error(err))
		} else {
			h.logger.Info("export archived", zap.String("location", loc))
		}
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// Stats handles GET /admin/registrations/stats.
func (h *Handler) Stats(c *gin.Context) {
	if h.session.LastRefresh().IsZero() {
		_ = h.session.Refresh(c.Request.Context())
	}
	response.OK(c, h.session.Stats())
}
