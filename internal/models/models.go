package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Table is a stored table definition. Source holds the YAML document.
type Table struct {
	ID          int            `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	Source      string         `db:"source" json:"source,omitempty"`
	CreatedBy   sql.NullString `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// SimulationRun is the persisted record of one session.
type SimulationRun struct {
	ID          int            `db:"id" json:"id"`
	SessionID   string         `db:"session_id" json:"session_id"`
	TableName   string         `db:"table_name" json:"table_name"`
	Seed        int64          `db:"seed" json:"seed"`
	Status      string         `db:"status" json:"status"`
	SimTimeMsec int64          `db:"sim_time_msec" json:"sim_time_msec"`
	Ticks       int64          `db:"ticks" json:"ticks"`
	Collisions  int64          `db:"collisions" json:"collisions"`
	BumperHits  int64          `db:"bumper_hits" json:"bumper_hits"`
	EndReason   sql.NullString `db:"end_reason" json:"end_reason,omitempty"`
	StartedAt   time.Time      `db:"started_at" json:"started_at"`
	EndedAt     sql.NullTime   `db:"ended_at" json:"ended_at,omitempty"`
}

// Run statuses
const (
	RunStatusRunning  = "RUNNING"
	RunStatusFinished = "FINISHED"
)

// AdminAccount represents an admin user
type AdminAccount struct {
	Username    string         `db:"username" json:"username"`
	DisplayName sql.NullString `db:"display_name" json:"display_name,omitempty"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit represents an admin action audit log entry
type AdminAudit struct {
	ID            int             `db:"id" json:"id"`
	AdminUsername string          `db:"admin_username" json:"admin_username"`
	IP            string          `db:"ip" json:"ip"`
	Route         string          `db:"route" json:"route"`
	Action        string          `db:"action" json:"action"`
	Details       json.RawMessage `db:"details" json:"details"`
	Success       bool            `db:"success" json:"success"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
