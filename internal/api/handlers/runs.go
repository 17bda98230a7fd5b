package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSessionRun returns the persisted run of a session
func GetSessionRun(st Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := st.GetRun(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"run": run})
	}
}

// ListRuns returns runs, newest first, optionally for one table
func ListRuns(st Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c)
		tableName := c.Query("table")
		runs, err := st.ListRuns(c.Request.Context(), tableName, limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs, "limit": limit, "offset": offset})
	}
}
