package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/deusflow/veritas/internal/app"
	"github.com/deusflow/veritas/internal/factcheck"
	"github.com/deusflow/veritas/internal/news"
	"github.com/deusflow/veritas/internal/ratelimit"
	"github.com/deusflow/veritas/internal/scraper"
	"github.com/deusflow/veritas/internal/summary"
)

const missingURL = "URL Not Provided"

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json"))
}

// decodeBody reads a JSON object keeping numbers as json.Number.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return body, nil
}

func stringField(body map[string]any, key string) (string, bool) {
	v, ok := body[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

func boolField(body map[string]any, key string) bool {
	switch v := body[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Request must be JSON")
		return
	}

	target, ok := stringField(body, "url")
	if !ok {
		target = missingURL
	}
	content, _ := stringField(body, "content")

	req := app.CheckRequest{
		URL:          target,
		Content:      content,
		Image:        factcheck.CoerceImageFeatures(body["file_size_kb"], body["noise_factor"]),
		FetchContent: boolField(body, "fetch_content") && target != missingURL,
	}

	res, err := s.app.Check(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		writeError(w, http.StatusBadRequest, "Request must be JSON")
		return
	}
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Request must be JSON")
		return
	}
	target, _ := stringField(body, "url")
	if strings.TrimSpace(target) == "" {
		writeError(w, http.StatusBadRequest, "Missing URL in request.")
		return
	}

	res, err := s.app.Summaries.Summarize(r.Context(), target)
	if err != nil {
		writeError(w, summaryStatus(err), summaryMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// summaryStatus maps extraction failures to 400 and anything else to 500.
func summaryStatus(err error) int {
	var fe *scraper.FetchError
	var ue *url.Error
	switch {
	case errors.Is(err, summary.ErrEmptyURL),
		errors.Is(err, scraper.ErrNoContent),
		errors.As(err, &fe),
		errors.As(err, &ue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func summaryMessage(err error) string {
	if summaryStatus(err) == http.StatusBadRequest {
		return "Could not process article. Details: " + err.Error()
	}
	return "An unexpected error occurred: " + err.Error()
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": news.Catalogue})
}

func (s *Server) handleCategoryPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, err := s.app.News.Page(r.Context(), slug)
	if err != nil {
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// upstreamStatus maps headline failures: an exhausted budget is 429,
// NewsAPI rejections and unreachable sources are 502.
func upstreamStatus(err error) int {
	if errors.Is(err, ratelimit.ErrBudgetExceeded) {
		return http.StatusTooManyRequests
	}
	return http.StatusBadGateway
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, st, err := s.app.RecentChecks(r.Context(), limit)
	if errors.Is(err, app.ErrHistoryDisabled) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs, "stats": st})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.metrics.GetStats()

	status := "ok"
	code := http.StatusOK
	if !s.metrics.Healthy() {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats := s.metrics.GetStats()
	if s.app.Budget != nil {
		stats["budgets"] = s.app.Budget.Stats()
	}
	writeJSON(w, http.StatusOK, stats)
}
