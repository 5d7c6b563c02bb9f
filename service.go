package packslip

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default service tuning.
const (
	// DefaultRenderLimit bounds concurrent slip renders per batch.
	DefaultRenderLimit = 5
)

// DefaultCompany is the printer identity shown on slips unless a
// customer's branding overrides it.
var DefaultCompany = CompanyInfo{
	Name:         "Wallace Graphics",
	AddressLine:  "2450 Meadowbrook Pkwy Duluth, GA 30096, Phone: 877-415-7323",
	JobReference: "205544",
}

// kitRenderer turns slip HTML into PDF bytes. PagePool is the
// production implementation.
type kitRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
	Close() error
}

// ProcessResult is the outcome of ProcessFile: the generated kits plus
// the validation report and skip list.
type ProcessResult struct {
	Kits       []Kit
	Validation *ValidationResult
	Meta       Metadata
	Skipped    []RowError
}

// KitFailure records one kit that failed to render during a batch.
type KitFailure struct {
	KitID string
	Err   error
}

// BatchResult is the merged artifact of a batch render. Failed kits are
// reported, not fatal: the artifact holds every slip that rendered.
type BatchResult struct {
	SessionID   string
	Artifact    []byte
	ContentType string
	Rendered    int
	Failed      []KitFailure
}

// Service wires the customer registry, the browser page pool, and the
// artifact merger into the upload-to-artifact pipeline.
type Service struct {
	registry *Registry
	renderer kitRenderer
	merger   Merger
	limit    int
	company  CompanyInfo
	log      *slog.Logger

	poolSize      int
	renderTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLimit sets the concurrent render limit per batch.
func WithLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithMerger replaces the artifact merger (PDF by default).
func WithMerger(m Merger) Option {
	return func(s *Service) {
		if m != nil {
			s.merger = m
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCompany overrides the printer identity on slips.
func WithCompany(company CompanyInfo) Option {
	return func(s *Service) { s.company = company }
}

// WithPoolSize sets the browser page pool size (defaults to a
// GOMAXPROCS-based value).
func WithPoolSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.poolSize = n
		}
	}
}

// WithRenderTimeout bounds a single slip render.
func WithRenderTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.renderTimeout = d
		}
	}
}

// WithRenderer replaces the kit renderer; mainly for tests.
func WithRenderer(r kitRenderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithStrategy registers an additional customer strategy.
func WithStrategy(strategy Strategy) Option {
	return func(s *Service) {
		if strategy != nil {
			s.registry.Register(strategy.Code(), strategy)
		}
	}
}

// NewService creates a Service with the built-in customer strategies
// registered and a lazily-launched browser page pool.
func NewService(opts ...Option) *Service {
	s := &Service{
		registry:      NewRegistry(),
		merger:        NewPDFMerger(),
		limit:         DefaultRenderLimit,
		company:       DefaultCompany,
		log:           slog.Default(),
		renderTimeout: DefaultRenderTimeout,
	}

	s.registry.Register("GEORGIA_BAPTIST", NewGeorgiaBaptist())
	s.registry.Register("HH_GLOBAL", NewHHGlobal())
	s.registry.Register("INQUIRE_ED", NewInquireEd())

	for _, opt := range opts {
		opt(s)
	}

	if s.renderer == nil {
		size := ResolvePoolSize(s.poolSize)
		s.renderer = NewPagePool(newRodEngine(s.renderTimeout), size, s.log)
	}

	return s
}

// Descriptors lists the registered customers and their upload
// instructions, sorted by code.
func (s *Service) Descriptors() []Descriptor {
	return s.registry.Descriptors()
}

// UploadInstructions returns the upload descriptor for one customer.
func (s *Service) UploadInstructions(customerCode string) (UploadInstructions, error) {
	strategy, err := s.registry.Resolve(customerCode)
	if err != nil {
		return UploadInstructions{}, err
	}
	return strategy.UploadInstructions(), nil
}

// ValidateFile parses and validates an upload without generating kits.
func (s *Service) ValidateFile(customerCode string, data []byte, filename string) (*ValidationResult, error) {
	strategy, err := s.registry.Resolve(customerCode)
	if err != nil {
		return nil, err
	}

	parsed, err := strategy.ParseFile(data, filename)
	if err != nil {
		return nil, err
	}

	return strategy.ValidateData(parsed), nil
}

// ProcessFile runs the parse-validate-generate pipeline for one upload.
// A validation failure aborts with a *ValidationError; kit generation
// never runs on invalid files. Skipped rows are reported alongside the
// kits.
func (s *Service) ProcessFile(customerCode string, data []byte, filename string) (*ProcessResult, error) {
	strategy, err := s.registry.Resolve(customerCode)
	if err != nil {
		return nil, err
	}

	parsed, err := strategy.ParseFile(data, filename)
	if err != nil {
		return nil, fmt.Errorf("parsing %s upload: %w", strategy.Code(), err)
	}

	validation := strategy.ValidateData(parsed)
	if !validation.Valid {
		return nil, &ValidationError{Result: validation}
	}

	kits, skipped := strategy.GenerateKits(parsed)
	for _, skip := range skipped {
		s.log.Warn("row skipped during kit generation",
			"customer", strategy.Code(), "row", skip.Row, "reason", skip.Err)
	}

	s.log.Info("upload processed",
		"customer", strategy.Code(),
		"rows", parsed.Meta.TotalRows,
		"kits", len(kits),
		"skipped", len(skipped))

	return &ProcessResult{
		Kits:       kits,
		Validation: validation,
		Meta:       parsed.Meta,
		Skipped:    skipped,
	}, nil
}

// RenderKit renders the packing slip PDF for a single kit.
func (s *Service) RenderKit(ctx context.Context, kit *Kit) ([]byte, error) {
	strategy, err := s.registry.Resolve(kit.CustomerCode)
	if err != nil {
		return nil, err
	}

	html, err := renderSlipHTML(slipData{
		Kit:         kit,
		Branding:    strategy.CustomizeTemplate(kit),
		Rules:       strategy.ShippingRules(kit),
		Company:     s.company,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return s.renderer.Render(ctx, html)
}

// RenderBatch renders every kit concurrently (bounded by the render
// limit) and merges the results into one artifact. Kits that fail to
// render are reported in Failed; the batch errors only when no kit
// renders at all.
func (s *Service) RenderBatch(ctx context.Context, kits []Kit) (*BatchResult, error) {
	if len(kits) == 0 {
		return nil, ErrNoDocuments
	}

	sessionID := uuid.NewString()
	start := time.Now()
	s.log.Info("batch render started", "session", sessionID, "kits", len(kits))

	tasks := make([]func(context.Context) (Document, error), len(kits))
	for i := range kits {
		kit := &kits[i]
		tasks[i] = func(ctx context.Context) (Document, error) {
			pdf, err := s.RenderKit(ctx, kit)
			if err != nil {
				return Document{}, err
			}
			return Document{Name: documentName(kit), Data: pdf}, nil
		}
	}

	docs, errs := runLimited(ctx, s.limit, tasks)

	var rendered []Document
	var failed []KitFailure
	for i, err := range errs {
		if err != nil {
			failed = append(failed, KitFailure{KitID: kits[i].ID, Err: err})
			s.log.Warn("kit render failed",
				"session", sessionID, "kit", kits[i].ID, "error", err)
			continue
		}
		rendered = append(rendered, docs[i])
	}

	if len(rendered) == 0 {
		return nil, fmt.Errorf("%w: all %d kits failed, first error: %v",
			ErrRender, len(kits), failed[0].Err)
	}

	artifact, err := s.merger.Merge(rendered)
	if err != nil {
		return nil, err
	}

	s.log.Info("batch render finished",
		"session", sessionID,
		"rendered", len(rendered),
		"failed", len(failed),
		"elapsed", time.Since(start))

	return &BatchResult{
		SessionID:   sessionID,
		Artifact:    artifact,
		ContentType: s.merger.ContentType(),
		Rendered:    len(rendered),
		Failed:      failed,
	}, nil
}

// Close releases browser resources.
func (s *Service) Close() error {
	return s.renderer.Close()
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// documentName builds the artifact entry name for one kit: the kit ID
// plus a filesystem-safe recipient slug. The kit ID leads, so
// artifacts still sort by customer, date, and row.
func documentName(kit *Kit) string {
	slug := strings.Trim(unsafeFileChars.ReplaceAllString(kit.Recipient.Name, "-"), "-")
	if slug == "" {
		return kit.ID
	}
	return kit.ID + "-" + slug
}
