// Package api serves the export operations over HTTP.
//
//	GET /api/exports/{format}?project=P[&download=1]   one document, iif or qbo
//	GET /api/exports                                   both documents, all projects
//	GET /api/summary?project=P[&format=xlsx]           summaries only
//
// Bodies are JSON Results unless a download is requested. A scope with no
// confirmed loads answers 404.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/loadexport/internal/export"
	"github.com/ginjaninja78/loadexport/internal/logger"
	"github.com/ginjaninja78/loadexport/internal/summary"
)

// Exporter is the subset of export.Service the API needs.
type Exporter interface {
	ExportIIF(ctx context.Context, scope string) export.Result
	ExportQBO(ctx context.Context, scope string) export.Result
	ExportAll(ctx context.Context) (iif, qbo export.Result)
	Preview(ctx context.Context, scope string) export.Result
	Rate() decimal.Decimal
}

// NewRouter builds the HTTP handler.
func NewRouter(svc Exporter, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/api/exports", ExportAllHandler(svc))
	r.Get("/api/exports/{format}", ExportHandler(svc))
	r.Get("/api/summary", SummaryHandler(svc))

	return r
}

// ExportHandler runs one format for the ?project= scope.
func ExportHandler(svc Exporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := export.ParseFormat(chi.URLParam(r, "format"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		scope := r.URL.Query().Get("project")
		var result export.Result
		if format == export.FormatQBO {
			result = svc.ExportQBO(r.Context(), scope)
		} else {
			result = svc.ExportIIF(r.Context(), scope)
		}

		if result.Success && r.URL.Query().Get("download") == "1" {
			w.Header().Set("Content-Type", format.ContentType())
			w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
			w.Header().Set("X-Export-Id", result.ExportID)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(result.Document))
			return
		}

		writeJSON(w, statusFor(result), result)
	}
}

// ExportAllHandler runs both formats for every project.
func ExportAllHandler(svc Exporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		iif, qbo := svc.ExportAll(r.Context())

		status := http.StatusOK
		if !iif.Success {
			status = statusFor(iif)
		} else if !qbo.Success {
			status = statusFor(qbo)
		}

		writeJSON(w, status, struct {
			IIF export.Result `json:"iif"`
			QBO export.Result `json:"qbo"`
		}{iif, qbo})
	}
}

// SummaryHandler previews the ?project= scope, as JSON or as an XLSX
// workbook with ?format=xlsx.
func SummaryHandler(svc Exporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := svc.Preview(r.Context(), r.URL.Query().Get("project"))

		if result.Success && r.URL.Query().Get("format") == "xlsx" {
			body, err := workbookBytes(result.Summaries, svc.Rate())
			if err != nil {
				logger.FromContext(r.Context()).Error().Err(err).Msg("failed to build workbook")
				writeError(w, http.StatusInternalServerError, "failed to build workbook")
				return
			}
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", `attachment; filename="summary.xlsx"`)
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}

		writeJSON(w, statusFor(result), result)
	}
}

// workbookBytes renders the whole workbook before anything is sent, so a
// failure can still be reported with a status code.
var workbookBytes = func(summaries []summary.ProjectSummary, rate decimal.Decimal) ([]byte, error) {
	var buf bytes.Buffer
	if err := summary.WriteWorkbook(&buf, summaries, rate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func statusFor(result export.Result) int {
	switch {
	case result.Success:
		return http.StatusOK
	case result.NoData():
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger puts a request-scoped logger in the context and logs each
// request when it completes.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

			reqLog.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
