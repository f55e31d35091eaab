package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akademika/timetable-engine/internal/dto"
	"github.com/akademika/timetable-engine/internal/models"
	"github.com/akademika/timetable-engine/internal/service"
	appErrors "github.com/akademika/timetable-engine/pkg/errors"
	"github.com/akademika/timetable-engine/pkg/response"
)

type pipelineRunner interface {
	Execute(ctx context.Context, req dto.RunRequest) (*dto.RunResponse, error)
	GetRun(ctx context.Context, id string) (*dto.RunResponse, error)
	ListRuns(ctx context.Context, query dto.RunListQuery) ([]dto.RunResponse, int, error)
}

type runExporter interface {
	Generate(ctx context.Context, runID string, format models.ExportFormat) (*service.ExportResult, error)
	ParseToken(token string, allowExpired bool) (string, string, time.Time, error)
	Open(relPath string) (*os.File, error)
}

// PipelineHandler wires HTTP endpoints to the pipeline and export services.
type PipelineHandler struct {
	pipeline pipelineRunner
	exports  runExporter
}

// NewPipelineHandler creates a new handler.
func NewPipelineHandler(pipeline pipelineRunner, exports runExporter) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline, exports: exports}
}

// CreateRun godoc
// @Summary Trigger pipeline run
// @Description Profile, select, solve, validate and gate a stored dataset
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param payload body dto.RunRequest true "Run payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pipeline/runs [post]
func (h *PipelineHandler) CreateRun(c *gin.Context) {
	var req dto.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
		return
	}

	res, err := h.pipeline.Execute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if req.Async {
		status = http.StatusAccepted
	}
	response.JSON(c, status, res, nil)
}

// GetRun godoc
// @Summary Get pipeline run
// @Tags Pipeline
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pipeline/runs/{id} [get]
func (h *PipelineHandler) GetRun(c *gin.Context) {
	res, err := h.pipeline.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ListRuns godoc
// @Summary List pipeline runs
// @Tags Pipeline
// @Produce json
// @Param datasetId query string false "Dataset ID"
// @Param status query string false "Run status"
// @Param accepted query bool false "Gate verdict"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /pipeline/runs [get]
func (h *PipelineHandler) ListRuns(c *gin.Context) {
	var query dto.RunListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query params"))
		return
	}

	items, total, err := h.pipeline.ListRuns(c.Request.Context(), query)
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

// ExportRun godoc
// @Summary Export pipeline run
// @Description Render a completed run as csv, json, pdf or text
// @Tags Pipeline
// @Produce json
// @Param id path string true "Run ID"
// @Param format query string true "Export format" Enums(csv, json, pdf, text)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pipeline/runs/{id}/export [get]
func (h *PipelineHandler) ExportRun(c *gin.Context) {
	format, ok := models.ParseExportFormat(c.DefaultQuery("format", "json"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, json, pdf, text"))
		return
	}

	result, err := h.exports.Generate(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        result.URL,
		"format":     result.Format,
		"expires_at": result.ExpiresAt,
	}, nil)
}

// Download godoc
// @Summary Download exported file
// @Tags Pipeline
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /export/{token} [get]
func (h *PipelineHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.exports.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, http.StatusUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.exports.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file not found"))
		return
	}
	defer file.Close()

	c.FileAttachment(file.Name(), filepath.Base(file.Name()))
}
