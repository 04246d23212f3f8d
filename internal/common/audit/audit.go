package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tikohealth/campaign-backend/internal/accounts/models"
)

// Recorder writes audit entries for mutating actions. Failures are logged
// and never block the action itself.
type Recorder struct {
	DB *sql.DB
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{DB: db}
}

// Record stores one audit entry. changes is marshalled to JSON when
// non-nil.
func (r *Recorder) Record(userID int, username, action, entity, entityID string, changes map[string]interface{}) {
	var changesJSON sql.NullString
	if changes != nil {
		b, err := json.Marshal(changes)
		if err != nil {
			log.Printf("audit: failed to marshal changes for %s %s: %v", action, entity, err)
		} else {
			changesJSON = sql.NullString{String: string(b), Valid: true}
		}
	}

	query := `
		INSERT INTO audit_log (id, user_id, username, action, entity, entity_id, changes, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.DB.Exec(query, uuid.NewString(), userID, username, action, entity, entityID, changesJSON, time.Now())
	if err != nil {
		log.Printf("audit: failed to record %s %s %s: %v", action, entity, entityID, err)
	}
}

// List returns audit entries, newest first, optionally filtered by user,
// entity and action.
func (r *Recorder) List(username, entity, action string, limit, offset int) ([]models.AuditLog, error) {
	baseQuery := `
		SELECT id, user_id, username, action, entity, entity_id, changes, timestamp
		FROM audit_log
	`
	conditions := []string{}
	params := []interface{}{}

	if username != "" {
		conditions = append(conditions, "username = ?")
		params = append(params, username)
	}
	if entity != "" {
		conditions = append(conditions, "entity = ?")
		params = append(params, entity)
	}
	if action != "" {
		conditions = append(conditions, "action = ?")
		params = append(params, action)
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	if limit <= 0 {
		limit = 50
	}
	params = append(params, limit, offset)

	rows, err := r.DB.Query(baseQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		var entityID, changes sql.NullString
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Username, &entry.Action,
			&entry.Entity, &entityID, &changes, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		entry.EntityID = entityID.String
		entry.Changes = changes.String
		list = append(list, entry)
	}
	return list, rows.Err()
}
