package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/sim"
	"github.com/playmatatu/pinball/internal/table"
)

type createSessionRequest struct {
	Table    string  `json:"table" binding:"required"`
	Seed     *uint64 `json:"seed"`
	Realtime bool    `json:"realtime"`
}

type plungerRequest struct {
	Plunger string `json:"plunger"`
}

type advanceRequest struct {
	Ms int64 `json:"ms" binding:"required"`
}

type ballRequest struct {
	Position physics.Vec2 `json:"position"`
	Velocity physics.Vec2 `json:"velocity"`
	Surface  string       `json:"surface"`
	Radius   float64      `json:"radius"`
	Mass     float64      `json:"mass"`
}

// CreateSession starts a simulation on a stored table
func CreateSession(mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "table is required"})
			return
		}

		s, err := mgr.Create(c.Request.Context(), sim.CreateRequest{
			Table:    req.Table,
			Seed:     req.Seed,
			Realtime: req.Realtime,
		})
		if err != nil {
			writeError(c, err)
			return
		}

		c.Header("X-Session-ID", s.ID)
		c.JSON(http.StatusCreated, gin.H{
			"session_id": s.ID,
			"seed":       s.Seed,
			"ws_url":     "/api/v1/sessions/" + s.ID + "/ws",
			"frame":      s.Frame(),
		})
	}
}

// ListSessions returns the live sessions on this server
func ListSessions(mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		type sessionRow struct {
			ID        string     `json:"id"`
			Table     string     `json:"table"`
			Seed      uint64     `json:"seed"`
			TimeMsec  int64      `json:"time_msec"`
			Totals    sim.Totals `json:"totals"`
			CreatedAt string     `json:"created_at"`
		}

		sessions := mgr.List()
		rows := make([]sessionRow, 0, len(sessions))
		for _, s := range sessions {
			rows = append(rows, sessionRow{
				ID:        s.ID,
				Table:     s.TableName,
				Seed:      s.Seed,
				TimeMsec:  s.TimeMsec(),
				Totals:    s.Totals(),
				CreatedAt: s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}
		c.Header("X-Session-Count", strconv.Itoa(len(rows)))
		c.JSON(http.StatusOK, gin.H{"sessions": rows})
	}
}

// GetSessionFrame returns the current frame, or the last cached frame of
// a closed session
func GetSessionFrame(mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		frame, err := mgr.Frame(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"frame": frame})
	}
}

// PullPlunger starts pulling a plunger back
func PullPlunger(mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req plungerRequest
		c.ShouldBindJSON(&req) // empty body selects the first plunger
		if err := mgr.PullBack(c.Request.Context(), c.Param("id"), req.Plunger); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// FirePlunger releases a plunger
func FirePlunger(mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req plungerRequest
		c.ShouldBindJSON(&req)
		if err := mgr.Fire(c.Request.Context(), c.Param("id"), req.Plunger); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// AdvanceSession steps a session synchronously
func AdvanceSession(mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req advanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ms is required"})
			return
		}
		frame, err := mgr.Advance(c.Request.Context(), c.Param("id"), req.Ms)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"frame": frame})
	}
}

// AddBall drops a ball onto a running table
func AddBall(mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ballRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		id, err := mgr.AddBall(c.Request.Context(), c.Param("id"), table.Ball{
			Position: req.Position,
			Velocity: req.Velocity,
			Surface:  req.Surface,
			Radius:   req.Radius,
			Mass:     req.Mass,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ball_id": id})
	}
}

// CloseSession stops a session and records its run
func CloseSession(mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.Close(c.Request.Context(), c.Param("id"), "closed"); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
