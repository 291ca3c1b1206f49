package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/netziya/shell-server/internal/store"
)

// FileHandlers provides HTTP handlers for room file attachments.
type FileHandlers struct {
	blobs store.BlobStore
	index store.FileIndex
	log   *zerolog.Logger
}

// NewFileHandlers creates a new file handlers instance.
func NewFileHandlers(blobs store.BlobStore, index store.FileIndex, logger *zerolog.Logger) *FileHandlers {
	return &FileHandlers{
		blobs: blobs,
		index: index,
		log:   logger,
	}
}

// StatusResponse confirms a successful upload or delete.
type StatusResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FileResponse represents one attachment in listing responses.
type FileResponse struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploaded_at"`
}

// Upload handles multipart file upload into a room. The file part is
// streamed straight into the blob store, so the size cap cuts the
// transfer off as the bytes arrive instead of after the whole body has
// been buffered.
// POST /upload/:room
func (h *FileHandlers) Upload(c *gin.Context) {
	roomID := c.Param("room")

	mr, err := c.Request.MultipartReader()
	if err != nil {
		h.log.Debug().Err(err).Msg("invalid upload request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "multipart form required"})
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.log.Debug().Err(err).Msg("invalid multipart body")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid multipart body"})
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			part.Close()
			continue
		}

		filename := part.FileName()
		size, err := h.blobs.Store(c.Request.Context(), roomID, filename, part)
		part.Close()
		if err != nil {
			switch {
			case errors.Is(err, store.ErrTooLarge):
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file too large"})
			case errors.Is(err, store.ErrBadName):
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file name"})
			default:
				h.log.Error().Err(err).Str("room", roomID).Str("filename", filename).Msg("failed to store file")
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
			return
		}

		if err := h.index.RecordUpload(c.Request.Context(), store.Upload{
			RoomID:   roomID,
			Filename: filename,
			Size:     size,
		}); err != nil {
			// Listing goes stale but the blob is stored; don't fail the upload.
			h.log.Warn().Err(err).Str("room", roomID).Str("filename", filename).Msg("failed to index upload")
		}

		h.log.Info().Str("room", roomID).Str("filename", filename).Int64("size", size).Msg("file uploaded")
		c.JSON(http.StatusOK, StatusResponse{Status: "ok", Filename: filename})
		return
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
}

// Download streams a stored file back to the caller.
// GET /download/:room/:filename
func (h *FileHandlers) Download(c *gin.Context) {
	roomID := c.Param("room")
	filename := c.Param("filename")

	blob, err := h.blobs.Retrieve(c.Request.Context(), roomID, filename)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		case errors.Is(err, store.ErrBadName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file name"})
		default:
			h.log.Error().Err(err).Str("room", roomID).Str("filename", filename).Msg("failed to retrieve file")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}
	defer blob.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, blob); err != nil {
		h.log.Warn().Err(err).Str("room", roomID).Str("filename", filename).Msg("download interrupted")
	}
}

// Delete removes a stored file.
// DELETE /delete/:room/:filename
func (h *FileHandlers) Delete(c *gin.Context) {
	roomID := c.Param("room")
	filename := c.Param("filename")

	if err := h.blobs.Delete(c.Request.Context(), roomID, filename); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		case errors.Is(err, store.ErrBadName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file name"})
		default:
			h.log.Error().Err(err).Str("room", roomID).Str("filename", filename).Msg("failed to delete file")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	if err := h.index.RemoveUpload(c.Request.Context(), roomID, filename); err != nil {
		h.log.Warn().Err(err).Str("room", roomID).Str("filename", filename).Msg("failed to unindex upload")
	}

	h.log.Info().Str("room", roomID).Str("filename", filename).Msg("file deleted")
	c.JSON(http.StatusOK, StatusResponse{Status: "ok", Filename: filename})
}

// List returns the room's attachments.
// GET /files/:room
func (h *FileHandlers) List(c *gin.Context) {
	roomID := c.Param("room")

	uploads, err := h.index.ListUploads(c.Request.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to list files")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]FileResponse, 0, len(uploads))
	for _, up := range uploads {
		response = append(response, FileResponse{
			Filename:   up.Filename,
			Size:       up.Size,
			UploadedAt: up.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, response)
}
