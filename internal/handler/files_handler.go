package handler

import (
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/response"
	"github.com/campushq/records-api/pkg/storage"
)

// FilesHandler serves stored attachments through signed download tokens.
// Tokens are minted when attachment metadata is read; the handler itself
// requires no session.
type FilesHandler struct {
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
}

// NewFilesHandler constructs FilesHandler.
func NewFilesHandler(store *storage.LocalStorage, signer *storage.SignedURLSigner) *FilesHandler {
	return &FilesHandler{store: store, signer: signer}
}

// Download godoc
// @Summary Download an attachment via signed token
// @Tags Files
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FilesHandler) Download(c *gin.Context) {
	token := c.Param("token")
	key, _, err := h.signer.Parse(token)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.store.Open(key)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat file"))
		return
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", downloadName(key)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}

// downloadName strips the random prefix added at upload time so clients see
// the original file name.
func downloadName(key string) string {
	base := path.Base(key)
	if idx := strings.IndexByte(base, '-'); idx == 36 && len(base) > 37 {
		return base[37:]
	}
	return base
}
