package importer

import (
	"encoding/json"
	"net/http"

	"socialscraper/pkg/logger"
)

// FeedbackResponse is one line of the import response
type FeedbackResponse struct {
	Network string `json:"network,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Level   string `json:"level"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ImportResponse is the JSON body of /import
type ImportResponse struct {
	Success   bool               `json:"success"`
	Status    int                `json:"status"`
	Feedbacks []FeedbackResponse `json:"feedbacks"`
}

// NewImportResponse converts a report to its JSON shape
func NewImportResponse(report *Report) ImportResponse {
	resp := ImportResponse{
		Success:   report.Success(),
		Status:    report.Status(),
		Feedbacks: make([]FeedbackResponse, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		resp.Feedbacks = append(resp.Feedbacks, FeedbackResponse{
			Network: o.Network,
			Tag:     o.Tag,
			Level:   o.Level,
			Message: o.Message,
			Count:   o.Count,
		})
	}
	return resp
}

// Handler serves GET and POST /import. Options come from the query string
// or a form body.
type Handler struct {
	importer *Importer
	logger   logger.Logger
}

// NewHandler creates the import endpoint
func NewHandler(im *Importer, log logger.Logger) *Handler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Handler{importer: im, logger: log.WithField("component", "http")}
}

// Routes mounts the handler on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/import", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "scrapers": h.importer.Available()})
	})
	return mux
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, ImportResponse{
			Status:    http.StatusMethodNotAllowed,
			Feedbacks: []FeedbackResponse{{Level: LevelError, Message: "method not allowed"}},
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, ImportResponse{
			Status:    http.StatusBadRequest,
			Feedbacks: []FeedbackResponse{{Level: LevelError, Message: err.Error()}},
		})
		return
	}

	report := h.importer.Import(r.Context(), r.Form)
	resp := NewImportResponse(report)
	writeJSON(w, resp.Status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
