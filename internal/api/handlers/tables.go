package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/admin"
	"github.com/playmatatu/pinball/internal/table"
)

const maxTableSize = 1 << 20

// ListTables returns the stored tables without their sources
func ListTables(st Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tables, err := st.ListTables(c.Request.Context())
		if err != nil {
			log.Printf("[TABLE] Failed to list tables: %v", err)
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tables": tables, "total": len(tables)})
	}
}

// GetTable returns one table. ?format=yaml returns the stored source.
func GetTable(st Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := st.GetTable(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, err)
			return
		}
		if c.Query("format") == "yaml" {
			c.Data(http.StatusOK, "application/yaml", []byte(t.Source))
			return
		}

		def, err := table.Parse([]byte(t.Source))
		if err != nil {
			log.Printf("[TABLE] Stored table %s no longer parses: %v", t.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stored table is invalid"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"table": t, "definition": def})
	}
}

// PutTable stores a YAML table posted by an admin. The name in the body
// must match the path.
func PutTable(st Store, db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")
		route := c.FullPath()

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTableSize)
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		def, err := table.Parse(body)
		if err != nil {
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, "put_table", map[string]interface{}{"error": err.Error()}, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if name := c.Param("name"); name != "" && name != def.Name {
			c.JSON(http.StatusBadRequest, gin.H{"error": "table name does not match the path"})
			return
		}
		if _, err := def.Build(table.BuildOptions{}); err != nil {
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, "put_table", map[string]interface{}{"table": def.Name, "error": err.Error()}, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		t, err := st.UpsertTable(c.Request.Context(), def, adminUsername)
		if err != nil {
			log.Printf("[TABLE] Failed to store table %s: %v", def.Name, err)
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, "put_table", map[string]interface{}{"table": def.Name}, false)
			writeError(c, err)
			return
		}

		log.Printf("[TABLE] %s stored table %s", adminUsername, def.Name)
		admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, "put_table", map[string]interface{}{"table": def.Name}, true)
		c.JSON(http.StatusOK, gin.H{"table": t})
	}
}
