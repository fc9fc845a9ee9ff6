package handlers

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/phototag/internal/catalogstore"
	"github.com/your-org/phototag/internal/embedding"
	"github.com/your-org/phototag/internal/inference"
	"github.com/your-org/phototag/internal/models"
	"github.com/your-org/phototag/pkg/dto"
)

// PhotoHandler serves the catalog query/mutation/export commands and
// rerun_auto, find_duplicates and find_similar.
type PhotoHandler struct {
	store  *catalogstore.Store
	engine *inference.Engine
	th     func() inference.Thresholds
}

func NewPhotoHandler(store *catalogstore.Store, engine *inference.Engine, th func() inference.Thresholds) *PhotoHandler {
	return &PhotoHandler{store: store, engine: engine, th: th}
}

func (h *PhotoHandler) QueryPhotos(c *gin.Context) {
	var req dto.QueryPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	photos, err := h.store.QueryPhotos(req.ToFilter())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, photos)
}

func (h *PhotoHandler) AddManualTag(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	var req dto.ManualTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.store.AddManualTag(id, req.Tag); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PhotoHandler) RemoveManualTag(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	var req dto.ManualTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.store.RemoveManualTag(id, req.Tag); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// RerunAuto re-tags and re-embeds a single already-cataloged photo from
// its stored preview, without re-walking the filesystem. Manual tags
// survive because ReplaceAutoTags only touches source=auto rows.
func (h *PhotoHandler) RerunAuto(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	photo, err := h.store.GetPhoto(id)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return
	}

	previewPath := photo.PreviewPath
	if previewPath == "" {
		previewPath = photo.ThumbnailPath
	}
	tags := map[string]float32{}
	var vec []float32
	var norm float64
	haveEmbedding := false

	if previewPath != "" {
		if raw, readErr := os.ReadFile(previewPath); readErr == nil {
			if img, _, decodeErr := decodeImage(raw); decodeErr == nil {
				tags = h.engine.Classify(img, photo.Path, exifFromPhoto(photo), h.th())
				vec = embedding.Compute(img)
				norm = embedding.Normalize(vec)
				haveEmbedding = true
			}
		}
	}

	floatTags := make(map[string]float64, len(tags))
	for k, v := range tags {
		floatTags[k] = float64(v)
	}
	if err := h.store.ReplaceAutoTags(id, floatTags); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if haveEmbedding {
		if err := h.store.WriteEmbedding(id, vec, norm); err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
			return
		}
	}

	c.Status(http.StatusNoContent)
}

func (h *PhotoHandler) SetRating(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	var req dto.SetRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.store.SetRating(id, req.Rating); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PhotoHandler) TogglePicked(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	var req dto.TogglePickedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.store.TogglePicked(id, req.Picked); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PhotoHandler) ToggleRejected(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	var req dto.ToggleRejectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.store.ToggleRejected(id, req.Rejected); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PhotoHandler) BatchUpdateCull(c *gin.Context) {
	var req dto.BatchUpdateCullRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	rating := req.Rating
	if req.ClearRating {
		rating = nil
	}
	updated, err := h.store.BatchUpdateCull(req.IDs, rating, req.ClearRating, req.Picked, req.Rejected)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.BatchUpdateCullResponse{Updated: updated})
}

func (h *PhotoHandler) GetSmartViewsCounts(c *gin.Context) {
	counts, err := h.store.SmartViewCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *PhotoHandler) ExportCSV(c *gin.Context) {
	var req dto.QueryPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	rows, err := h.store.ExportCSVRows(req.ToFilter())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *PhotoHandler) FindDuplicates(c *gin.Context) {
	threshold := 8
	if v := c.Query("threshold"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			threshold = n
		}
	}
	groups, err := h.store.FindDuplicates(threshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *PhotoHandler) FindSimilar(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "id is required"})
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}
	results, err := h.store.FindSimilar(id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func decodeImage(raw []byte) (image.Image, string, error) {
	return image.Decode(bytes.NewReader(raw))
}

func exifFromPhoto(p *models.Photo) models.ExifMetadata {
	return models.ExifMetadata{
		Make:                 p.Make,
		Model:                p.Model,
		Lens:                 p.Lens,
		DateTaken:            p.DateTaken,
		ISO:                  p.ISO,
		FNumber:              p.FNumber,
		FocalLength:          p.FocalLength,
		ExposureTime:         p.ExposureTime,
		ExposureCompensation: p.ExposureCompensation,
		GPSLat:               p.GPSLat,
		GPSLng:               p.GPSLng,
		Width:                p.Width,
		Height:               p.Height,
	}
}
