package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sangamam/matrimony/internal/domain/media"
	"github.com/sangamam/matrimony/internal/services/media/service"
	"github.com/sangamam/matrimony/pkg/logger"
)

type MediaHandlers struct {
	service *service.Service
	logger  logger.Logger
}

func NewMediaHandlers(svc *service.Service, logger logger.Logger) *MediaHandlers {
	return &MediaHandlers{
		service: svc,
		logger:  logger,
	}
}

// statusFor maps taxonomy codes to HTTP statuses.
func statusFor(code media.Code) int {
	switch code {
	case media.CodeNotFound:
		return http.StatusNotFound
	case media.CodeSizeExceeded:
		return http.StatusRequestEntityTooLarge
	case media.CodeInvalidFileType:
		return http.StatusUnsupportedMediaType
	case media.CodeVirusFound:
		return http.StatusUnprocessableEntity
	case media.CodeDuplicateDetected, media.CodeNoFreeSlot, media.CodeSlotOccupied:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, merr *media.Error) {
	c.JSON(statusFor(merr.Code), gin.H{
		"status":  "error",
		"code":    merr.Code,
		"message": merr.Message,
	})
}

// readUpload pulls the multipart "file" part into memory.
func (h *MediaHandlers) readUpload(c *gin.Context) (*service.Upload, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"code":    "BAD_REQUEST",
			"message": "multipart field 'file' is required",
		})
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"code":    "BAD_REQUEST",
			"message": "could not open uploaded file",
		})
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"code":    "BAD_REQUEST",
			"message": "could not read uploaded file",
		})
		return nil, false
	}

	return &service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

func profileID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"code":    "BAD_REQUEST",
			"message": "profile id must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

func (h *MediaHandlers) respondUpload(c *gin.Context, res *service.Result) {
	body := gin.H{
		"status":     "success",
		"file_id":    res.FileID,
		"profile_id": res.ProfileID,
		"duplicate":  res.Duplicate,
	}
	if res.Thumbnail {
		body["preview_url"] = "/api/v1/files/" + res.FileID + "/thumbnail"
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, body)
}

func (h *MediaHandlers) UploadPhoto(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	up, ok := h.readUpload(c)
	if !ok {
		return
	}
	res, merr := h.service.UploadPhoto(c.Request.Context(), id, *up)
	if merr != nil {
		respondError(c, merr)
		return
	}
	h.respondUpload(c, res)
}

func (h *MediaHandlers) UploadCertificate(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	up, ok := h.readUpload(c)
	if !ok {
		return
	}
	res, merr := h.service.UploadCertificate(c.Request.Context(), id, *up)
	if merr != nil {
		respondError(c, merr)
		return
	}
	h.respondUpload(c, res)
}

func (h *MediaHandlers) UploadHoroscope(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}
	up, ok := h.readUpload(c)
	if !ok {
		return
	}
	res, merr := h.service.UploadHoroscope(c.Request.Context(), id, *up)
	if merr != nil {
		respondError(c, merr)
		return
	}
	h.respondUpload(c, res)
}

func (h *MediaHandlers) GetFile(c *gin.Context) {
	f, merr := h.service.GetFile(c.Request.Context(), c.Param("id"))
	if merr != nil {
		respondError(c, merr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "file": f})
}

func (h *MediaHandlers) DownloadFile(c *gin.Context) {
	dl, merr := h.service.DownloadFile(c.Request.Context(), c.Param("id"))
	if merr != nil {
		respondError(c, merr)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+dl.File.OriginalName+`"`)
	c.Data(http.StatusOK, dl.File.MimeType, dl.Data)
}

func (h *MediaHandlers) DownloadThumbnail(c *gin.Context) {
	dl, merr := h.service.DownloadThumbnail(c.Request.Context(), c.Param("id"))
	if merr != nil {
		respondError(c, merr)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", dl.Data)
}

func (h *MediaHandlers) DeleteFile(c *gin.Context) {
	if merr := h.service.DeleteFile(c.Request.Context(), c.Param("id")); merr != nil {
		respondError(c, merr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MediaHandlers) RejectFile(c *gin.Context) {
	if merr := h.service.RejectFile(c.Request.Context(), c.Param("id")); merr != nil {
		respondError(c, merr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *MediaHandlers) ApproveFile(c *gin.Context) {
	if merr := h.service.ApproveFile(c.Request.Context(), c.Param("id")); merr != nil {
		respondError(c, merr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *MediaHandlers) ListFiles(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	if status := c.Query("file_status"); status != "" {
		files, merr := h.service.ListFilesByStatus(c.Request.Context(), media.ProcessingStatus(status), offset, limit)
		if merr != nil {
			respondError(c, merr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "files": files})
		return
	}

	kind := media.FileKind(c.DefaultQuery("kind", string(media.FileKindImage)))
	files, merr := h.service.ListFiles(c.Request.Context(), kind, offset, limit)
	if merr != nil {
		respondError(c, merr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "files": files})
}

func (h *MediaHandlers) Statistics(c *gin.Context) {
	stats, merr := h.service.Statistics(c.Request.Context())
	if merr != nil {
		respondError(c, merr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "statistics": stats})
}
