package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/darasahub/darasa/internal/academics"
	"github.com/darasahub/darasa/internal/audit"
	authmw "github.com/darasahub/darasa/internal/auth/middleware"
	"github.com/darasahub/darasa/internal/roster"
)

// POST /marks/bulk
// Accepts either a raw JSON array of mark entries or a multipart CSV
// (file=) with columns student_id,target_id,term,assessment,raw_score,
// max_raw_score. Scale violations are rejected for the whole batch so a
// marksheet upload is all-or-nothing.
func BulkUpsertMarksHandler(store roster.Store, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entries []roster.MarkEntry
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", 400)
				return
			}
			defer f.Close()
			rows, err := parseMarksCSV(f)
			if err != nil {
				http.Error(w, "bad csv: "+err.Error(), 400)
				return
			}
			entries = rows
		} else {
			if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
				http.Error(w, "expected JSON array or multipart file", 400)
				return
			}
		}
		if len(entries) == 0 {
			_ = json.NewEncoder(w).Encode(map[string]any{"saved": 0})
			return
		}

		enteredBy := authmw.SubjectFromContext(r.Context())
		for i := range entries {
			entries[i].EnteredBy = enteredBy
		}
		n, err := store.UpsertMarks(r.Context(), entries)
		if err != nil {
			if errors.Is(err, academics.ErrInvalidMarkScale) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		if rec != nil {
			_ = rec.Append(r.Context(), audit.TypeMarkEntered, enteredBy, map[string]any{
				"count":      n,
				"term":       entries[0].Term,
				"assessment": entries[0].Assessment,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"saved": n})
	}
}

func parseMarksCSV(r io.Reader) ([]roster.MarkEntry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"student_id", "target_id", "term", "assessment", "raw_score", "max_raw_score"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var rows []roster.MarkEntry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		raw, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["raw_score"]]), 64)
		if err != nil {
			return nil, errors.New("bad raw_score: " + rec[idx["raw_score"]])
		}
		max, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["max_raw_score"]]), 64)
		if err != nil {
			return nil, errors.New("bad max_raw_score: " + rec[idx["max_raw_score"]])
		}
		rows = append(rows, roster.MarkEntry{RawMark: academics.RawMark{
			StudentID:  rec[idx["student_id"]],
			TargetID:   rec[idx["target_id"]],
			Term:       rec[idx["term"]],
			Assessment: rec[idx["assessment"]],
			RawScore:   raw,
			MaxRaw:     max,
		}})
	}
	return rows, nil
}
