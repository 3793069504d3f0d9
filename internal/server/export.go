package server

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ovitag/porterbot/internal/chat"
)

// handleExportCSV answers a question through the full pipeline and streams
// the result as a CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "invalid JSON body", Kind: "invalid"})
		return
	}

	answer, err := s.bot.Ask(r.Context(), req.Question, chat.Options{Limit: req.Limit})
	if err != nil {
		s.fail(w, err, req.Question)
		return
	}

	filename := fmt.Sprintf("porter_analytics_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(answer.Result.Columns); err != nil {
		return
	}
	for _, row := range answer.Result.Rows {
		record := make([]string, len(answer.Result.Columns))
		for i, col := range answer.Result.Columns {
			record[i] = csvValue(row[col])
		}
		if err := cw.Write(record); err != nil {
			return
		}
	}
}

func csvValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
