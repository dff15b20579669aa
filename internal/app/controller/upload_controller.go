package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/anufa/anufa-backend/internal/errors"
	"github.com/anufa/anufa-backend/internal/middleware"
	"github.com/anufa/anufa-backend/internal/storage"
)

// ImagePresigner is satisfied by *storage.S3Storage.
type ImagePresigner interface {
	PresignProductImage(ctx context.Context, productID uint, filename, contentType string) (*storage.PresignedUpload, error)
}

type UploadController struct {
	storage ImagePresigner
}

func NewUploadController(storage ImagePresigner) *UploadController {
	return &UploadController{
		storage: storage,
	}
}

type PresignImageRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	ProductID   uint   `json:"product_id"` // optional: 0 before the product exists
}

// PresignImage issues a presigned PUT URL for a product image (admin)
// POST /api/v1/upload/image
func (ctrl *UploadController) PresignImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PresignImageRequest
	if !bindJSON(c, &req) {
		return
	}

	upload, err := ctrl.storage.PresignProductImage(c.Request.Context(), req.ProductID, req.Filename, req.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrContentTypeNotAllowed) {
			log.Warn("Rejected upload content type", map[string]interface{}{
				"content_type": req.ContentType,
			})
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only JPEG, PNG, GIF and WEBP images are allowed")
			return
		}
		log.Error("Failed to presign upload", err, map[string]interface{}{
			"filename":   req.Filename,
			"product_id": req.ProductID,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to prepare upload")
		return
	}

	log.Info("Presigned upload issued", map[string]interface{}{
		"key":        upload.Key,
		"product_id": req.ProductID,
	})

	c.JSON(http.StatusOK, upload)
}
