package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"anoa.com/pencraft/internal/modules/attachment/dto"
	"anoa.com/pencraft/pkg/apperror"
	"anoa.com/pencraft/pkg/response"
	"anoa.com/pencraft/pkg/storage"
	"github.com/gin-gonic/gin"
)

const maxUploadSize = 5 << 20

var allowedFolders = map[string]bool{
	"posts":       true,
	"communities": true,
	"avatars":     true,
}

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type AttachmentHandler struct {
	images storage.ImageStorage
}

func NewAttachmentHandler(images storage.ImageStorage) *AttachmentHandler {
	return &AttachmentHandler{images: images}
}

// UploadImage accepts a multipart "file" field and an optional "folder"
// (posts, communities, avatars) and returns the hosted URL.
func (h *AttachmentHandler) UploadImage(c *gin.Context) {
	if _, err := response.GetUserID(c); err != nil {
		response.ResponseError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.ResponseError(c, apperror.Validation("file is required"))
		return
	}
	if file.Size > maxUploadSize {
		response.ResponseError(c, apperror.Validation("file must be at most 5MB"))
		return
	}
	if !allowedExt[strings.ToLower(filepath.Ext(file.Filename))] {
		response.ResponseError(c, apperror.Validation("only jpg, png, gif and webp images are allowed"))
		return
	}

	folder := c.DefaultPostForm("folder", "posts")
	if !allowedFolders[folder] {
		response.ResponseError(c, apperror.Validation("invalid folder"))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer src.Close()

	url, err := h.images.UploadImage(c.Request.Context(), src, folder, filepath.Base(file.Filename))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.UploadResponse{
		URL:      url,
		Folder:   folder,
		FileName: file.Filename,
		Size:     file.Size,
	})
}
