package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragchat/internal/app"
	"ragchat/internal/pkg/docparse"
	"ragchat/internal/transport/http/response"
)

type IngestHandler struct {
	ingestService *app.IngestService
	maxFileBytes  int64
}

type cmsRequest struct {
	Items []app.ContentItem `json:"items" binding:"dive"`
}

func NewIngestHandler(ingestService *app.IngestService, maxFileBytes int64) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
		maxFileBytes:  maxFileBytes,
	}
}

// Upload indexes every multipart part named "files". Parts are read into
// memory and never touch the disk.
func (h *IngestHandler) Upload(c *gin.Context) {
	var headers []*multipart.FileHeader
	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) && !errors.Is(err, http.ErrMissingBoundary) {
		badRequest(c, "invalid multipart form: "+err.Error())
		return
	}
	if form != nil {
		headers = form.File["files"]
	}

	files := make([]docparse.File, 0, len(headers))
	for _, fh := range headers {
		if h.maxFileBytes > 0 && fh.Size > h.maxFileBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge,
				fmt.Sprintf("file %s exceeds the %d byte limit", fh.Filename, h.maxFileBytes))
			return
		}
		data, err := readPart(fh)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		files = append(files, docparse.File{Name: fh.Filename, Data: data})
	}

	result, err := h.ingestService.IngestFiles(c.Request.Context(), files)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func (h *IngestHandler) IngestCMS(c *gin.Context) {
	var req cmsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.ingestService.IngestItems(c.Request.Context(), req.Items)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s failed: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s failed: %w", fh.Filename, err)
	}
	return data, nil
}
