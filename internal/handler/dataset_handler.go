package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akademika/timetable-engine/internal/dto"
	"github.com/akademika/timetable-engine/internal/models"
	appErrors "github.com/akademika/timetable-engine/pkg/errors"
	"github.com/akademika/timetable-engine/pkg/response"
)

type datasetManager interface {
	Create(ctx context.Context, req dto.CreateDatasetRequest) (*dto.DatasetResponse, error)
	CreateFromCSV(ctx context.Context, institutionName string, files map[string]io.Reader) (*dto.DatasetResponse, error)
	Get(ctx context.Context, id string) (*dto.DatasetResponse, error)
	List(ctx context.Context, query dto.DatasetListQuery) ([]dto.DatasetResponse, int, error)
	Delete(ctx context.Context, id string) error
}

// DatasetHandler wires HTTP endpoints to the dataset service.
type DatasetHandler struct {
	service datasetManager
}

// NewDatasetHandler creates a new handler.
func NewDatasetHandler(svc datasetManager) *DatasetHandler {
	return &DatasetHandler{service: svc}
}

// Create godoc
// @Summary Upload dataset
// @Description Store a reference dataset snapshot as JSON
// @Tags Datasets
// @Accept json
// @Produce json
// @Param payload body dto.CreateDatasetRequest true "Dataset payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /datasets [post]
func (h *DatasetHandler) Create(c *gin.Context) {
	var req dto.CreateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid dataset payload"))
		return
	}

	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// CreateFromCSV godoc
// @Summary Upload dataset as CSV
// @Description Store a dataset assembled from per-entity CSV files
// @Tags Datasets
// @Accept multipart/form-data
// @Produce json
// @Param courses formData file true "courses.csv"
// @Param faculty formData file true "faculty.csv"
// @Param rooms formData file true "rooms.csv"
// @Param time_slots formData file true "time_slots.csv"
// @Param batches formData file true "batches.csv"
// @Param constraints formData file false "constraints.csv"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /datasets/csv [post]
func (h *DatasetHandler) CreateFromCSV(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
		return
	}

	files := make(map[string]io.Reader)
	opened := make([]io.Closer, 0, len(form.File))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for name, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		file, err := headers[0].Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read uploaded file"))
			return
		}
		opened = append(opened, file)
		files[name] = file
	}

	res, err := h.service.CreateFromCSV(c.Request.Context(), c.PostForm("institution_name"), files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Get godoc
// @Summary Get dataset summary
// @Tags Datasets
// @Produce json
// @Param id path string true "Dataset ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /datasets/{id} [get]
func (h *DatasetHandler) Get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// List godoc
// @Summary List datasets
// @Tags Datasets
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /datasets [get]
func (h *DatasetHandler) List(c *gin.Context) {
	var query dto.DatasetListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query params"))
		return
	}

	items, total, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	response.JSON(c, http.StatusOK, items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total})
}

// Delete godoc
// @Summary Delete dataset
// @Tags Datasets
// @Param id path string true "Dataset ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /datasets/{id} [delete]
func (h *DatasetHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
