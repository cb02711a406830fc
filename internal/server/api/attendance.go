package api

import (
	"net/http"
	"strings"

	"github.com/sdrao/facemark/internal/export"
	"github.com/sdrao/facemark/internal/store"
)

// AttendanceHandler handles HTTP requests for attendance records,
// per-day summaries, and report exports.
type AttendanceHandler struct {
	store *store.Store
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(s *store.Store) *AttendanceHandler {
	return &AttendanceHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *AttendanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Expected paths: /api/attendance, /api/attendance/summary, /api/attendance/dates
	path := strings.TrimPrefix(r.URL.Path, "/api/attendance")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		h.records(w, r)
	case "summary":
		h.summary(w, r)
	case "dates":
		h.dates(w, r)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

type recordResponse struct {
	RegNo      string  `json:"reg_no"`
	Name       string  `json:"name"`
	Course     string  `json:"course"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Confidence float64 `json:"confidence"`
}

type listRecordsResponse struct {
	Records []recordResponse `json:"records"`
}

type summaryResponse struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
}

type listSummaryResponse struct {
	Summary []summaryResponse `json:"summary"`
}

// records handles GET /api/attendance. It accepts ?date=, ?search= and
// ?course= filters; ?format=csv or ?format=xlsx turns the response into
// a report download.
func (h *AttendanceHandler) records(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.Filter{
		Date:   q.Get("date"),
		Search: q.Get("search"),
		Course: q.Get("course"),
	}

	records, err := h.store.Attendance().Records(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attendance")
		return
	}

	switch q.Get("format") {
	case "":
		response := listRecordsResponse{
			Records: make([]recordResponse, 0, len(records)),
		}
		for _, rec := range records {
			response.Records = append(response.Records, recordResponse{
				RegNo:      rec.RegNo,
				Name:       rec.Name,
				Course:     rec.Course,
				Date:       rec.Date,
				Time:       rec.Time,
				Confidence: rec.Confidence,
			})
		}
		writeJSON(w, http.StatusOK, response)

	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
		if err := export.RecordsCSV(w, records); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to export attendance")
		}

	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance.xlsx"`)
		if err := export.RecordsExcel(w, records); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to export attendance")
		}

	default:
		writeError(w, http.StatusBadRequest, "Unknown format")
	}
}

// summary handles GET /api/attendance/summary and returns per-day
// present counts, optionally as a CSV or xlsx download.
func (h *AttendanceHandler) summary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.Attendance().Summary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize attendance")
		return
	}

	switch r.URL.Query().Get("format") {
	case "":
		response := listSummaryResponse{
			Summary: make([]summaryResponse, 0, len(summaries)),
		}
		for _, s := range summaries {
			response.Summary = append(response.Summary, summaryResponse{Date: s.Date, Present: s.Present})
		}
		writeJSON(w, http.StatusOK, response)

	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="summary.csv"`)
		if err := export.SummaryCSV(w, summaries); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to export summary")
		}

	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="summary.xlsx"`)
		if err := export.SummaryExcel(w, summaries); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to export summary")
		}

	default:
		writeError(w, http.StatusBadRequest, "Unknown format")
	}
}

// dates handles GET /api/attendance/dates and returns the most recent
// dates that have attendance, newest first.
func (h *AttendanceHandler) dates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.store.Attendance().Dates(30)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list dates")
		return
	}
	if dates == nil {
		dates = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}
