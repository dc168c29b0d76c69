package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irwan019/GrkApp/internal/application"
	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/domain/ports"
	"github.com/irwan019/GrkApp/internal/logger"
)

type DashboardService interface {
	SetView(ctx context.Context, state entities.ViewState) (*entities.Snapshot, error)
	Refresh(ctx context.Context) (*entities.Snapshot, error)
	Snapshot() *entities.Snapshot
	State() entities.ViewState
}

type ExportEncoder interface {
	Encode(snapshot *entities.Snapshot, format string) (*application.Export, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type APIHandler struct {
	dashboard DashboardService
	exports   ExportEncoder
	chart     ports.ChartRenderer
	catalog   *entities.Catalog
	zone      *time.Location
	maxDays   int
	health    map[string]HealthChecker
	logger    logger.Logger
	now       func() time.Time
}

func NewAPIHandler(
	dashboard DashboardService,
	exports ExportEncoder,
	chart ports.ChartRenderer,
	catalog *entities.Catalog,
	zone *time.Location,
	periodMaxDays int,
	health map[string]HealthChecker,
	log logger.Logger,
) *APIHandler {
	if zone == nil {
		zone = time.UTC
	}
	if periodMaxDays <= 0 {
		periodMaxDays = entities.DefaultPeriodMaxDays
	}
	return &APIHandler{
		dashboard: dashboard,
		exports:   exports,
		chart:     chart,
		catalog:   catalog,
		zone:      zone,
		maxDays:   periodMaxDays,
		health:    health,
		logger:    logger.Component(log, "api_handler"),
		now:       time.Now,
	}
}

// ViewRequest selects what the dashboard shows. Dates are YYYY-MM-DD in the
// display zone and only read for the period view; a missing date means today.
type ViewRequest struct {
	View      string `json:"view" form:"view"`
	Location  string `json:"location" form:"location"`
	StartDate string `json:"start_date" form:"start_date"`
	EndDate   string `json:"end_date" form:"end_date"`
}

func (r ViewRequest) state(now time.Time, zone *time.Location) (entities.ViewState, error) {
	view, err := entities.ParseView(strings.TrimSpace(r.View))
	if err != nil {
		return entities.ViewState{}, entities.ValidationError{Field: "view", Reason: err.Error()}
	}

	state := entities.ViewState{View: view, Location: strings.TrimSpace(r.Location)}
	if view != entities.ViewPeriod {
		return state, nil
	}

	now = now.In(zone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, zone)
	state.Start, state.End = today, today

	if r.StartDate != "" {
		if state.Start, err = entities.ParseDate(r.StartDate, zone); err != nil {
			return entities.ViewState{}, err
		}
	}
	if r.EndDate != "" {
		if state.End, err = entities.ParseDate(r.EndDate, zone); err != nil {
			return entities.ViewState{}, err
		}
	}
	return state, nil
}

func (h *APIHandler) GetLocations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"locations": h.catalog.All()})
}

// GetView returns the snapshot currently displayed.
func (h *APIHandler) GetView(c *gin.Context) {
	snapshot := h.dashboard.Snapshot()
	if snapshot == nil {
		h.respondError(c, http.StatusServiceUnavailable, "dashboard has not rendered yet")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// SetView switches the dashboard and returns the fresh snapshot. The
// current view is kept when the request is invalid.
func (h *APIHandler) SetView(c *gin.Context) {
	var req ViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	state, err := req.state(h.now(), h.zone)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	snapshot, err := h.dashboard.SetView(c.Request.Context(), state)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *APIHandler) RefreshView(c *gin.Context) {
	snapshot, err := h.dashboard.Refresh(c.Request.Context())
	if err != nil {
		h.respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *APIHandler) GetChart(c *gin.Context) {
	snapshot := h.dashboard.Snapshot()
	if !snapshot.HasData() {
		h.respondError(c, http.StatusNotFound, entities.NoDataMessage)
		return
	}

	var buf bytes.Buffer
	if err := h.chart.Render(&buf, snapshot); err != nil {
		h.respondDomainError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// ExportView downloads the rows of the current snapshot as an attachment.
func (h *APIHandler) ExportView(c *gin.Context) {
	snapshot := h.dashboard.Snapshot()
	if !snapshot.HasData() {
		h.respondError(c, http.StatusNotFound, entities.NoDataMessage)
		return
	}

	export, err := h.exports.Encode(snapshot, c.Query("format"))
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.FileName))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

func (h *APIHandler) GetAbout(c *gin.Context) {
	c.JSON(http.StatusOK, application.About(h.catalog))
}

func (h *APIHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	healthStatus := HealthResponse{
		Status:   "healthy",
		Version:  application.AppVersion,
		Time:     time.Now(),
		Services: map[string]string{"api": "healthy"},
	}

	for name, checker := range h.health {
		if err := checker.HealthCheck(ctx); err != nil {
			healthStatus.Status = "degraded"
			healthStatus.Services[name] = fmt.Sprintf("unhealthy: %v", err)
			continue
		}
		healthStatus.Services[name] = "healthy"
	}

	c.JSON(http.StatusOK, healthStatus)
}

func (h *APIHandler) respondDomainError(c *gin.Context, err error) {
	switch {
	case entities.IsValidationError(err), errors.Is(err, entities.ErrUnknownFormat):
		h.respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrNoData):
		h.respondError(c, http.StatusNotFound, entities.NoDataMessage)
	case errors.Is(err, application.ErrStaleCycle):
		h.respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, application.ErrNotStarted):
		h.respondError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled):
		h.respondError(c, http.StatusConflict, "request cancelled by a newer view")
	default:
		h.respondError(c, http.StatusInternalServerError, err.Error())
	}
}

func (h *APIHandler) respondError(c *gin.Context, status int, message string) {
	if status >= http.StatusInternalServerError {
		h.logger.Errorf("HTTP %d: %s", status, message)
	} else {
		h.logger.Debugf("HTTP %d: %s", status, message)
	}
	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Time:    time.Now(),
	})
}

type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Time     time.Time         `json:"time"`
	Services map[string]string `json:"services"`
}
