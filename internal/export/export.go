// =============================================================================
// Load Export - Export Service
// =============================================================================
//
// This module exposes the caller-facing operations. Each one runs a full
// pipeline and folds the outcome, success or failure, into a Result:
//
//   resolve -> group -> normalize -> batch -> price -> render
//                    \-> summarize
//
// OPERATIONS:
//   ExportIIF  - Format A document for one scope
//   ExportQBO  - Format B document for one scope
//   ExportAll  - both formats for every project, run concurrently
//   Preview    - summaries only, no document
//   Ship       - hand a finished document to the configured Deliverer
//
// =============================================================================

package export

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/loadexport/internal/converter"
	"github.com/ginjaninja78/loadexport/internal/delivery"
	"github.com/ginjaninja78/loadexport/internal/iifwriter"
	"github.com/ginjaninja78/loadexport/internal/logger"
	"github.com/ginjaninja78/loadexport/internal/qbowriter"
	"github.com/ginjaninja78/loadexport/internal/source"
	"github.com/ginjaninja78/loadexport/internal/summary"
)

// =============================================================================
// FORMATS
// =============================================================================

// Format identifies an output of the service.
type Format string

const (
	FormatIIF     Format = "iif"
	FormatQBO     Format = "qbo"
	FormatPreview Format = "preview"
)

// ParseFormat accepts "iif" or "qbo" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatIIF:
		return FormatIIF, nil
	case FormatQBO:
		return FormatQBO, nil
	}
	return "", fmt.Errorf("unknown format %q (want iif or qbo)", s)
}

// Extension returns the file extension, including the dot.
func (f Format) Extension() string {
	if f == FormatQBO {
		return ".csv"
	}
	return ".iif"
}

// ContentType returns the MIME type of the document.
func (f Format) ContentType() string {
	if f == FormatQBO {
		return "text/csv; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of one operation. On failure only Success, Format,
// Scope, ExportID and Error are set.
type Result struct {
	Success      bool                     `json:"success"`
	ExportID     string                   `json:"exportId"`
	Format       Format                   `json:"format"`
	Scope        string                   `json:"scope"`
	Filename     string                   `json:"filename,omitempty"`
	Document     string                   `json:"document,omitempty"`
	Summaries    []summary.ProjectSummary `json:"summaries,omitempty"`
	LoadCount    int                      `json:"loadCount"`
	InvoiceCount int                      `json:"invoiceCount"`
	Source       string                   `json:"source,omitempty"`
	Error        string                   `json:"error,omitempty"`

	err error
}

// Err returns the failure behind an unsuccessful Result, for errors.Is.
func (r Result) Err() error { return r.err }

// NoData reports whether the Result failed because no confirmed loads exist.
func (r Result) NoData() bool { return errors.Is(r.err, source.ErrNoData) }

// =============================================================================
// SERVICE
// =============================================================================

// Resolver yields the confirmed raw records for a scope.
type Resolver interface {
	Resolve(ctx context.Context, scope string) (*source.Resolution, error)
}

// Service runs the export pipelines.
type Service struct {
	resolver  Resolver
	conv      *converter.Converter
	iif       iifwriter.Settings
	qbo       qbowriter.Settings
	deliverer delivery.Deliverer
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIIFSettings overrides iifwriter.DefaultSettings.
func WithIIFSettings(s iifwriter.Settings) Option {
	return func(svc *Service) { svc.iif = s }
}

// WithQBOSettings overrides qbowriter.DefaultSettings.
func WithQBOSettings(s qbowriter.Settings) Option {
	return func(svc *Service) { svc.qbo = s }
}

// WithDeliverer sets the destination used by Ship.
func WithDeliverer(d delivery.Deliverer) Option {
	return func(svc *Service) { svc.deliverer = d }
}

// WithClock sets the clock used for file names.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// New creates a Service.
func New(resolver Resolver, conv *converter.Converter, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		conv:     conv,
		iif:      iifwriter.DefaultSettings(),
		qbo:      qbowriter.DefaultSettings(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rate returns the per-ton price invoices are billed at.
func (s *Service) Rate() decimal.Decimal {
	return s.conv.Options().Rate
}

// ExportIIF builds the Format A document for scope. An empty scope exports
// every project.
func (s *Service) ExportIIF(ctx context.Context, scope string) Result {
	return s.export(ctx, FormatIIF, scope)
}

// ExportQBO builds the Format B document for scope.
func (s *Service) ExportQBO(ctx context.Context, scope string) Result {
	return s.export(ctx, FormatQBO, scope)
}

// ExportAll builds both documents for every project. The two pipelines run
// concurrently, each with its own resolution, and both finish before it
// returns.
func (s *Service) ExportAll(ctx context.Context) (iif, qbo Result) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		iif = s.ExportIIF(gctx, "")
		return nil
	})
	g.Go(func() error {
		qbo = s.ExportQBO(gctx, "")
		return nil
	})
	_ = g.Wait()
	return iif, qbo
}

// Preview computes the summaries for scope without rendering a document.
func (s *Service) Preview(ctx context.Context, scope string) Result {
	result := Result{ExportID: uuid.NewString(), Format: FormatPreview, Scope: scope}

	res, err := s.resolver.Resolve(ctx, scope)
	if err != nil {
		return fail(result, err)
	}

	opts := s.conv.Options()
	groups := converter.GroupByProject(res.Records, s.conv.Normalizer())
	result.Summaries = summary.Aggregate(groups, s.conv.Normalizer(), opts.Rate)
	for _, sum := range result.Summaries {
		result.LoadCount += sum.LoadCount
	}
	result.Source = res.Origin.String()
	result.Success = true
	return result
}

// Ship delivers a successful Result's document and returns its location.
func (s *Service) Ship(ctx context.Context, r Result) (string, error) {
	if !r.Success || r.Document == "" {
		return "", fmt.Errorf("export %s has no document to ship", r.ExportID)
	}
	if s.deliverer == nil {
		return "", fmt.Errorf("no delivery configured")
	}
	location, err := s.deliverer.Deliver(ctx, r.Filename, r.Format.ContentType(), r.Document)
	if err != nil {
		return "", err
	}
	logger.FromContext(ctx).Info().
		Str("export_id", r.ExportID).
		Str("location", location).
		Msg("export shipped")
	return location, nil
}

// export runs one full pipeline.
func (s *Service) export(ctx context.Context, format Format, scope string) Result {
	result := Result{ExportID: uuid.NewString(), Format: format, Scope: scope}
	log := logger.FromContext(ctx).With().
		Str("export_id", result.ExportID).
		Str("format", string(format)).
		Str("scope", scopeSlug(scope)).
		Logger()

	res, err := s.resolver.Resolve(ctx, scope)
	if err != nil {
		log.Warn().Err(err).Msg("export failed")
		return fail(result, err)
	}

	doc := s.conv.Run(res.Records)
	opts := s.conv.Options()

	switch format {
	case FormatQBO:
		result.Document = qbowriter.Render(doc.Invoices, s.qbo)
	default:
		result.Document = iifwriter.Render(doc.Invoices, s.iif)
	}

	result.Summaries = summary.Aggregate(doc.Groups, s.conv.Normalizer(), opts.Rate)
	result.Filename = Filename(scope, format, s.now().In(opts.Location))
	result.LoadCount = doc.LoadCount
	result.InvoiceCount = len(doc.Invoices)
	result.Source = res.Origin.String()
	result.Success = true

	log.Info().
		Int("loads", result.LoadCount).
		Int("invoices", result.InvoiceCount).
		Str("source", result.Source).
		Str("filename", result.Filename).
		Msg("export complete")
	return result
}

func fail(r Result, err error) Result {
	r.Success = false
	r.Error = err.Error()
	r.err = err
	return r
}

// =============================================================================
// FILE NAMING
// =============================================================================

var slugStrip = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename returns loads_<scope>_<YYYY-MM-DD><ext>, where scope is "all"
// when empty and otherwise reduced to letters, digits, underscores and
// hyphens.
func Filename(scope string, format Format, now time.Time) string {
	return fmt.Sprintf("loads_%s_%s%s", scopeSlug(scope), now.Format("2006-01-02"), format.Extension())
}

func scopeSlug(scope string) string {
	if scope == "" {
		return "all"
	}
	slug := strings.Trim(slugStrip.ReplaceAllString(scope, "_"), "_")
	if slug == "" {
		return "project"
	}
	return slug
}
