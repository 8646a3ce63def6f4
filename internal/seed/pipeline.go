// Package seed populates an empty registry from the public media type feed
// and a built-in table of extension associations.
//
// A run has two stages. The mime type stage downloads one CSV document per
// top-level type and inserts every well-formed (type, subType) pair not
// already present. The file extension stage then links the canned
// extensions to mime types that exist. Each stage is skipped when its table
// already has rows, so repeated runs are no-ops.
//
// Bad rows and bad documents are counted and logged, never fatal. Only an
// unreachable store aborts a run.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/mimereg/internal/core"
	"github.com/JonMunkholm/mimereg/internal/logging"
)

// Stage names used in logs and metrics.
const (
	StageMimeTypes      = "mime_types"
	StageFileExtensions = "file_extensions"
)

var (
	seedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mimereg_seed_rows_total",
		Help: "Seed rows by stage and outcome.",
	}, []string{"stage", "outcome"})

	seedDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mimereg_seed_documents_total",
		Help: "Seed feed documents by outcome.",
	}, []string{"outcome"})
)

// ErrAlreadyRunning is returned by Run while another run is in progress.
var ErrAlreadyRunning = errors.New("seed run already in progress")

// State is the pipeline's position in a run.
type State int32

const (
	StateNotStarted State = iota
	StateRunningMimeTypes
	StateRunningFileExtensions
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunningMimeTypes:
		return "running_mime_types"
	case StateRunningFileExtensions:
		return "running_file_extensions"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Registry is the subset of core.Registry the pipeline writes through.
type Registry interface {
	CountMimeTypes(ctx context.Context, opts core.ListOptions) (int, error)
	CountFileExtensions(ctx context.Context, opts core.ExtensionListOptions) (int, error)
	MimeTypeByName(ctx context.Context, typ, subType string) (core.MimeType, error)
	FileExtensionByValue(ctx context.Context, extension string) (core.FileExtension, error)
	AddMimeType(ctx context.Context, actor string, m core.MimeType) (core.MimeType, error)
	AddFileExtension(ctx context.Context, actor string, f core.FileExtension) (core.FileExtension, error)
}

// StageReport counts the outcome of one stage.
type StageReport struct {
	AlreadySeeded bool `json:"alreadySeeded"`
	Documents     int  `json:"documents,omitempty"`
	Inserted      int  `json:"inserted"`
	Skipped       int  `json:"skipped"`
	Errors        int  `json:"errors"`
}

// Report summarizes a run.
type Report struct {
	RunID          string        `json:"runId"`
	MimeTypes      StageReport   `json:"mimeTypes"`
	FileExtensions StageReport   `json:"fileExtensions"`
	Duration       time.Duration `json:"duration"`
}

// Options configures a Pipeline.
type Options struct {
	// Documents are the feed documents to fetch, in processing order.
	Documents []string
	// FetchConcurrency bounds parallel document downloads.
	FetchConcurrency int
	// Associations overrides CannedAssociations when non-nil.
	Associations []Association
}

// Pipeline runs the two seed stages against a registry.
type Pipeline struct {
	registry     Registry
	fetcher      Fetcher
	documents    []string
	concurrency  int
	associations []Association

	state atomic.Int32
}

// New creates a pipeline. fetcher may be nil when Documents is empty.
func New(registry Registry, fetcher Fetcher, opts Options) *Pipeline {
	p := &Pipeline{
		registry:     registry,
		fetcher:      fetcher,
		documents:    opts.Documents,
		concurrency:  opts.FetchConcurrency,
		associations: opts.Associations,
	}
	if p.concurrency <= 0 {
		p.concurrency = 1
	}
	if p.associations == nil {
		p.associations = CannedAssociations
	}
	return p
}

// State returns the current run state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Run executes both stages in order. Per-row and per-document problems are
// counted in the report; the returned error is non-nil only when the store
// itself failed during the mime type stage or ctx was cancelled. After an
// aborted run the state returns to StateNotStarted.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	cur := p.State()
	if cur == StateRunningMimeTypes || cur == StateRunningFileExtensions ||
		!p.state.CompareAndSwap(int32(cur), int32(StateRunningMimeTypes)) {
		return Report{}, ErrAlreadyRunning
	}

	start := time.Now()
	report := Report{RunID: uuid.NewString()}
	log := logging.WithFields(ctx, "run_id", report.RunID)
	log.Info("seed run started", "documents", len(p.documents), "associations", len(p.associations))

	var err error
	report.MimeTypes, err = p.seedMimeTypes(ctx, log.With("stage", StageMimeTypes))
	if err != nil {
		p.state.Store(int32(StateNotStarted))
		log.Error("seed run aborted", "stage", StageMimeTypes, "error", err)
		return report, err
	}

	p.state.Store(int32(StateRunningFileExtensions))
	report.FileExtensions, err = p.seedFileExtensions(ctx, log.With("stage", StageFileExtensions))
	if err != nil {
		p.state.Store(int32(StateNotStarted))
		log.Error("seed run aborted", "stage", StageFileExtensions, "error", err)
		return report, err
	}

	report.Duration = time.Since(start)
	p.state.Store(int32(StateCompleted))
	log.Info("seed run finished",
		"mime_types_inserted", report.MimeTypes.Inserted,
		"file_extensions_inserted", report.FileExtensions.Inserted,
		"duration", report.Duration,
	)
	return report, nil
}

// ----------------------------------------------------------------------------
// Mime type stage
// ----------------------------------------------------------------------------

type fetchResult struct {
	body io.ReadCloser
	err  error
}

func (p *Pipeline) seedMimeTypes(ctx context.Context, log *slog.Logger) (StageReport, error) {
	var rep StageReport

	n, err := p.registry.CountMimeTypes(ctx, core.ListOptions{})
	if err != nil {
		return rep, fmt.Errorf("count mime types: %w", err)
	}
	if n > 0 {
		rep.AlreadySeeded = true
		log.Info("skipping stage, table already populated", "rows", n)
		return rep, nil
	}
	log.Info("stage started; this could take a bit")

	results, stop := p.fetchAhead(ctx)
	defer stop()

	for i, doc := range p.documents {
		var res fetchResult
		select {
		case res = <-results[i]:
		case <-ctx.Done():
			return rep, ctx.Err()
		}

		rep.Documents++
		docLog := log.With("document", doc)

		if res.err != nil {
			rep.Errors++
			seedDocuments.WithLabelValues("error").Inc()
			docLog.Error("failed to download document", "error", ingestionErr(doc, "download", res.err))
			continue
		}

		err := p.ingestDocument(ctx, docLog, doc, res.body, &rep)
		_ = res.body.Close()
		if err != nil {
			return rep, err
		}
	}

	log.Info("stage finished",
		"docs", rep.Documents,
		"rows", rep.Inserted,
		"skipped", rep.Skipped,
		"errors", rep.Errors,
	)
	return rep, nil
}

// fetchAhead downloads every document with bounded concurrency. Result i is
// delivered on results[i]. stop cancels outstanding fetches and waits for them.
func (p *Pipeline) fetchAhead(ctx context.Context) (results []chan fetchResult, stop func()) {
	fetchCtx, cancel := context.WithCancel(ctx)
	results = make([]chan fetchResult, len(p.documents))
	for i := range results {
		results[i] = make(chan fetchResult, 1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(p.concurrency)
		for i, doc := range p.documents {
			i, doc := i, doc
			g.Go(func() error {
				if p.fetcher == nil {
					results[i] <- fetchResult{err: errors.New("no fetcher configured")}
					return nil
				}
				body, err := p.fetcher.Fetch(fetchCtx, doc)
				if err == nil && body == nil {
					err = ErrEmptyDocument
				}
				results[i] <- fetchResult{body: body, err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return results, func() {
		cancel()
		<-done
		// Close bodies that were fetched but never consumed.
		for _, ch := range results {
			select {
			case res := <-ch:
				if res.body != nil {
					_ = res.body.Close()
				}
			default:
			}
		}
	}
}

// ingestDocument parses one feed document and inserts its rows. Parse
// failures, including a body that fails mid-read, are counted and end the
// document; rows read before the failure stay inserted. Only store failures
// are returned.
func (p *Pipeline) ingestDocument(ctx context.Context, log *slog.Logger, doc string, body io.Reader, rep *StageReport) error {
	src := wrapDocument(body)
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	before := *rep
	line := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rep.Errors++
			seedDocuments.WithLabelValues("error").Inc()
			log.Error("failed to parse document", "line", line+1, "error", ingestionErr(doc, "parse", err))
			return nil
		}
		line++
		if line == 1 {
			continue // header
		}

		inserted, err := p.ingestRow(ctx, log, doc, rec)
		if err != nil {
			return err
		}
		if inserted {
			rep.Inserted++
			seedRows.WithLabelValues(StageMimeTypes, "inserted").Inc()
		} else {
			rep.Skipped++
			seedRows.WithLabelValues(StageMimeTypes, "skipped").Inc()
		}
	}

	seedDocuments.WithLabelValues("ok").Inc()
	log.Info("document processed",
		"bytes", src.BytesRead(),
		"rows", rep.Inserted-before.Inserted,
		"skipped", rep.Skipped-before.Skipped,
	)
	return nil
}

// ingestRow inserts the mime type described by rec. It reports false for a
// skipped row and returns an error only when the store failed.
func (p *Pipeline) ingestRow(ctx context.Context, log *slog.Logger, doc string, rec []string) (bool, error) {
	m, ok := parseRecord(doc, rec)
	if !ok {
		log.Debug("skipping malformed row", "fields", len(rec))
		return false, nil
	}

	_, err := p.registry.MimeTypeByName(ctx, m.Type, m.SubType)
	switch {
	case err == nil:
		return false, nil
	case !core.IsNotFound(err):
		return false, err
	}

	if _, err := p.registry.AddMimeType(ctx, core.SeedActor, m); err != nil {
		if core.IsValidation(err) {
			log.Debug("skipping invalid row", "mime_type", m.String(), "error", err)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// parseRecord turns a feed row (name, template, reference) into a mime type.
// A blank template means the name is the subtype under the document's type.
func parseRecord(doc string, rec []string) (core.MimeType, bool) {
	if len(rec) != 3 {
		return core.MimeType{}, false
	}
	name := strings.TrimSpace(rec[0])
	template := strings.TrimSpace(rec[1])

	var typ, subType string
	if template == "" {
		typ, subType = doc, name
	} else {
		parts := strings.Split(template, "/")
		if len(parts) != 2 {
			return core.MimeType{}, false
		}
		typ, subType = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	if typ == "" || subType == "" {
		return core.MimeType{}, false
	}

	return core.MimeType{
		Type:        typ,
		SubType:     subType,
		Description: truncateRunes(name, core.MaxDescriptionLen),
	}, true
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func ingestionErr(doc, op string, err error) error {
	return &core.Error{Kind: core.ErrIngestion, Op: op, Entity: "seed document", Key: doc, Err: err}
}

// ----------------------------------------------------------------------------
// File extension stage
// ----------------------------------------------------------------------------

func (p *Pipeline) seedFileExtensions(ctx context.Context, log *slog.Logger) (StageReport, error) {
	var rep StageReport

	n, err := p.registry.CountFileExtensions(ctx, core.ExtensionListOptions{})
	if err != nil {
		return p.abortStage(ctx, log, rep, err)
	}
	if n > 0 {
		rep.AlreadySeeded = true
		log.Info("skipping stage, table already populated", "rows", n)
		return rep, nil
	}
	log.Info("stage started", "associations", len(p.associations))

	for _, a := range p.associations {
		inserted, err := p.linkAssociation(ctx, log, a)
		if err != nil {
			return p.abortStage(ctx, log, rep, err)
		}
		if inserted {
			rep.Inserted++
			seedRows.WithLabelValues(StageFileExtensions, "inserted").Inc()
		} else {
			rep.Skipped++
			seedRows.WithLabelValues(StageFileExtensions, "skipped").Inc()
		}
	}

	log.Info("stage finished",
		"rows", rep.Inserted,
		"skipped", rep.Skipped,
		"errors", rep.Errors,
	)
	return rep, nil
}

// abortStage records an unexpected failure as a single error. Only
// cancellation of ctx is returned to the caller.
func (p *Pipeline) abortStage(ctx context.Context, log *slog.Logger, rep StageReport, err error) (StageReport, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return rep, ctxErr
	}
	rep.Errors = 1
	seedRows.WithLabelValues(StageFileExtensions, "error").Inc()
	log.Error("stage aborted", "rows", rep.Inserted, "skipped", rep.Skipped, "error", err)
	return rep, nil
}

// linkAssociation inserts one canned association. Extensions already taken
// and mime types absent from the catalog are skipped.
func (p *Pipeline) linkAssociation(ctx context.Context, log *slog.Logger, a Association) (bool, error) {
	ext := core.NormalizeExtension(a.Extension)

	_, err := p.registry.FileExtensionByValue(ctx, ext)
	switch {
	case err == nil:
		return false, nil
	case !core.IsNotFound(err):
		return false, err
	}

	owner, err := p.registry.MimeTypeByName(ctx, a.Type, a.SubType)
	if core.IsNotFound(err) {
		log.Debug("skipping association, mime type not in catalog", "extension", ext, "mime_type", a.Type+"/"+a.SubType)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = p.registry.AddFileExtension(ctx, core.SeedActor, core.FileExtension{
		MimeTypeID: owner.ID,
		Extension:  ext,
	})
	if core.IsValidation(err) {
		log.Debug("skipping invalid association", "extension", ext, "error", err)
		return false, nil
	}
	return err == nil, err
}
