package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/erp/catalogsync/internal/infrastructure/persistence"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DatabaseProbe reports database liveness and pool usage
type DatabaseProbe interface {
	Ping() error
	Stats() (persistence.ConnectionStats, error)
}

var _ DatabaseProbe = (*persistence.Database)(nil)

// SystemHandler serves health and version endpoints
type SystemHandler struct {
	BaseHandler
	db        DatabaseProbe
	version   string
	startTime time.Time
	now       func() time.Time
}

// NewSystemHandler creates a new SystemHandler. db may be nil when no
// database is wired (the health check then reports only the process).
func NewSystemHandler(db DatabaseProbe, version string) *SystemHandler {
	if version == "" {
		version = "dev"
	}
	return &SystemHandler{
		db:        db,
		version:   version,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	GoVersion string          `json:"go_version"`
	Uptime    string          `json:"uptime"`
	Database  *DatabaseHealth `json:"database,omitempty"`
}

// DatabaseHealth reports the connection pool
type DatabaseHealth struct {
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
}

// Health reports process and database health. An unreachable database
// answers 503.
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    h.now().Sub(h.startTime).Round(time.Second).String(),
	}

	status := http.StatusOK
	if h.db != nil {
		dbHealth := &DatabaseHealth{Status: "up"}
		if err := h.db.Ping(); err != nil {
			dbHealth.Status = "down"
			dbHealth.Error = "database unreachable"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		} else if stats, err := h.db.Stats(); err == nil {
			dbHealth.OpenConnections = stats.OpenConnections
			dbHealth.InUse = stats.InUse
			dbHealth.Idle = stats.Idle
		}
		resp.Database = dbHealth
	}

	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping answers without touching any dependency
// GET /ping
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
