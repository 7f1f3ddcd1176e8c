package handler

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/records-api/internal/middleware"
	"github.com/campushq/records-api/internal/models"
	"github.com/campushq/records-api/internal/service"
	"github.com/campushq/records-api/pkg/config"
	appErrors "github.com/campushq/records-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func viewerFromContext(c *gin.Context) (service.Viewer, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return service.Viewer{}, false
	}
	return service.Viewer{UserID: claims.UserID, Role: claims.Role}, true
}

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, pageSize
}

// formUploads extracts and validates the "files" multipart field against the
// storage limits. The returned closer must be called once the upload
// completes; opened files stay readable until then.
func formUploads(c *gin.Context, limits config.StorageConfig) ([]service.UploadFile, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "multipart form required")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "at least one file is required")
	}
	if limits.MaxFilesPerUpload > 0 && len(headers) > limits.MaxFilesPerUpload {
		return nil, nil, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest,
			"too many files: at most "+strconv.Itoa(limits.MaxFilesPerUpload)+" per upload")
	}

	allowed := make(map[string]struct{}, len(limits.AllowedMIMEs))
	for _, m := range limits.AllowedMIMEs {
		allowed[m] = struct{}{}
	}

	var opened []multipart.File
	closer := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	uploads := make([]service.UploadFile, 0, len(headers))
	for _, header := range headers {
		if limits.MaxFileSizeBytes > 0 && header.Size > limits.MaxFileSizeBytes {
			closer()
			return nil, nil, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest,
				"file "+header.Filename+" exceeds the upload size limit")
		}
		if len(allowed) > 0 {
			if _, ok := allowed[header.Header.Get("Content-Type")]; !ok {
				closer()
				return nil, nil, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest,
					"file type not allowed for "+header.Filename)
			}
		}
		src, err := header.Open()
		if err != nil {
			closer()
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open uploaded file")
		}
		opened = append(opened, src)
		uploads = append(uploads, service.UploadFile{Name: header.Filename, Reader: src})
	}

	return uploads, closer, nil
}
