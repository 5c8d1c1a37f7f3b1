package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"
)

// Event types recorded against the append-only event_log table. Marks are
// the only mutable data the engine reads, so every mutation leaves a row
// a headteacher can trace.
const (
	TypeMarkEntered   = "MarkEntered"
	TypeScaleChanged  = "ScaleChanged"
	TypeSubjectSaved  = "SubjectSaved"
	TypeRosterChanged = "RosterChanged"
)

type Event struct {
	Offset    int64
	SiteID    string
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

type Recorder struct {
	db     *sql.DB
	siteID string
}

func NewRecorder(db *sql.DB, siteID string) *Recorder {
	if siteID == "" {
		siteID = "local"
	}
	return &Recorder{db: db, siteID: siteID}
}

func (r *Recorder) Append(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		r.siteID, typ, key, string(buf), time.Now().Unix())
	return err
}

// Recent returns up to limit events, newest first, optionally filtered by type.
func (r *Recorder) Recent(ctx context.Context, typ string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT "offset", site_id, typ, key, data, created_at FROM event_log`
	args := []any{}
	if typ != "" {
		q += ` WHERE typ=$1`
		args = append(args, typ)
	}
	q += ` ORDER BY "offset" DESC LIMIT ` + strconv.Itoa(limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
