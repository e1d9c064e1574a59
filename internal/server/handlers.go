package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/google/uuid"

	"conversation-validator-go/internal/aggregator"
	"conversation-validator-go/internal/template"
	"conversation-validator-go/internal/types"
)

// maxBody caps request bodies; transcripts are text only.
const maxBody = 8 << 20

type AnalyzeRequest struct {
	Template types.Template           `json:"template"`
	Result   types.ConversationResult `json:"result"`
}

type BatchItem struct {
	Template      types.Template           `json:"template"`
	Result        types.ConversationResult `json:"result"`
	ExecutionTime *float64                 `json:"execution_time,omitempty"` // seconds
}

type BatchRequest struct {
	Items []BatchItem `json:"items"`
}

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

// Analyze scores one captured conversation. A failed capture is a normal
// outcome and comes back as an error record with status 200.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithRequest(r).WithField("handler", "analyze")

	var req AnalyzeRequest
	if err := decode(w, r, &req); err != nil {
		log.WithError(err).Warn("bad analyze request")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := template.Validate(&req.Template); err != nil {
		writeConfigError(w, err)
		return
	}

	start := time.Now()
	report, err := s.analyzer.Analyze(r.Context(), &req.Template, &req.Result)
	elapsed := time.Since(start).Seconds()

	out := types.DetailedResult{
		Template:      req.Template.ID(),
		ExecutionTime: &elapsed,
		Analysis:      report,
		Timestamp:     s.now().Format(aggregator.TimeFormat),
	}
	if err != nil {
		out.Error = err.Error()
		out.ErrorKind = types.KindOf(err)
	}
	log.WithField("template", out.Template).WithField("error_kind", out.ErrorKind).Info("analysis finished")
	writeJSON(w, http.StatusOK, out)
}

// Batch analyzes every item and aggregates them into one BatchReport.
// Items with invalid templates become configuration error records.
func (s *Server) Batch(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithRequest(r).WithField("handler", "batch")

	var req BatchRequest
	if err := decode(w, r, &req); err != nil {
		log.WithError(err).Warn("bad batch request")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	outcomes := make([]types.Outcome, len(req.Items))
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i := range req.Items {
		i := i
		g.Go(func() error {
			outcomes[i] = s.analyzeItem(r, &req.Items[i])
			return nil
		})
	}
	_ = g.Wait()

	batch := aggregator.Aggregate(outcomes, s.now())
	batch.Summary.RunID = uuid.NewString()
	log.WithField("run_id", batch.Summary.RunID).WithField("items", len(outcomes)).Info("batch analyzed")
	writeJSON(w, http.StatusOK, batch)
}

// Run executes the configured template directory. An optional limit query
// parameter caps how many templates are run.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithRequest(r).WithField("handler", "run")

	entries, err := template.LoadDir(s.templatesDir)
	if err != nil {
		log.WithError(err).Error("template directory load error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		if n < len(entries) {
			entries = entries[:n]
		}
	}
	log.WithField("templates", len(entries)).Info("run invoked")

	batch, _, err := s.runner.Batch(r.Context(), entries)
	if err != nil {
		log.WithError(err).Warn("run interrupted")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) analyzeItem(r *http.Request, it *BatchItem) types.Outcome {
	out := types.Outcome{TemplateID: it.Template.ID(), Timestamp: s.now()}
	if it.ExecutionTime != nil {
		d := time.Duration(*it.ExecutionTime * float64(time.Second))
		out.ExecutionTime = &d
	}
	if err := template.Validate(&it.Template); err != nil {
		out.Err = err
		return out
	}
	out.Conversation = &it.Result
	out.Report, out.Err = s.analyzer.Analyze(r.Context(), &it.Template, &it.Result)
	return out
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeConfigError(w http.ResponseWriter, err error) {
	var ce *types.ConfigurationError
	if errors.As(err, &ce) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid template", Problems: ce.Problems})
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
