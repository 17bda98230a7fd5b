package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pinball/internal/bumper"
	"github.com/playmatatu/pinball/internal/models"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/plunger"
	"github.com/playmatatu/pinball/internal/sim"
	"github.com/playmatatu/pinball/internal/store"
	"github.com/playmatatu/pinball/internal/table"
)

// Store is the persistence the handlers read and write.
type Store interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	GetTable(ctx context.Context, name string) (*models.Table, error)
	UpsertTable(ctx context.Context, def *table.Definition, createdBy string) (*models.Table, error)
	GetRun(ctx context.Context, sessionID string) (*models.SimulationRun, error)
	ListRuns(ctx context.Context, tableName string, limit, offset int) ([]models.SimulationRun, error)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, table.ErrTableNotFound),
		errors.Is(err, sim.ErrSessionNotFound),
		errors.Is(err, sim.ErrPlungerNotFound),
		errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, sim.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, sim.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, sim.ErrInvalidDuration),
		errors.Is(err, table.ErrInvalidTable),
		errors.Is(err, table.ErrUnknownSurface),
		errors.Is(err, plunger.ErrInvalidGeometry),
		errors.Is(err, bumper.ErrInvalidGeometry),
		errors.Is(err, physics.ErrDegenerateSegment):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}

// pagination reads limit/offset query params, capping limit at 200.
func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 25
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
