// Package generate runs the reference generation pipeline.
//
// Stages run strictly in order: load, resolve, plan, write, manifest, report.
// Configuration failures, including an unreadable manifest template, and
// resolution failures stop the run before the output directory is touched.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"git.home.luguber.info/inful/refdocs/internal/config"
	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/git"
	"git.home.luguber.info/inful/refdocs/internal/library"
	"git.home.luguber.info/inful/refdocs/internal/logfields"
	"git.home.luguber.info/inful/refdocs/internal/manifest"
	"git.home.luguber.info/inful/refdocs/internal/metrics"
	"git.home.luguber.info/inful/refdocs/internal/plan"
	"git.home.luguber.info/inful/refdocs/internal/render"
	"git.home.luguber.info/inful/refdocs/internal/resolve"
	"git.home.luguber.info/inful/refdocs/internal/sidebar"
	"git.home.luguber.info/inful/refdocs/internal/tree"
)

// Stage names used in logs and metrics.
const (
	StageLoad     = "load"
	StageResolve  = "resolve"
	StagePlan     = "plan"
	StageWrite    = "write"
	StageManifest = "manifest"
	StageReport   = "report"
)

// Options are the per-run inputs that do not come from the configuration.
type Options struct {
	ConfigPath string
	OutputRoot string
	// Template overrides the configured manifest template path.
	Template   string
	CheckLinks bool
}

// Result describes a finished run. It is returned even when the run failed,
// filled as far as the pipeline got.
type Result struct {
	RunID        string
	Status       manifest.Status
	Spec         *config.Spec
	Resolutions  []*resolve.Resolution
	Plans        []plan.SectionPlan
	Write        *tree.WriteReport
	Tree         *sidebar.Tree
	ManifestPath string
	ReportPath   string
	Report       *manifest.RunReport
	BrokenLinks  []sidebar.BrokenLink
	Revision     git.Revision
	Duration     time.Duration
}

// Notifier is told about every run that got as far as writing its report.
type Notifier interface {
	Notify(ctx context.Context, report *manifest.RunReport) error
}

// Service runs generation pipelines.
type Service struct {
	recorder metrics.Recorder
	logger   *slog.Logger
	renderer tree.Renderer
	notifier Notifier
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRenderer replaces the default Markdown renderer.
func WithRenderer(r tree.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithNotifier publishes each run report through n. Notification failures
// are logged and do not change the run outcome.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService returns a Service with a no-op recorder and the default logger.
func NewService(opts ...Option) *Service {
	s := &Service{
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loads the configuration at opts.ConfigPath and generates the tree.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	start := s.now()
	result := &Result{Status: manifest.StatusFailed}

	spec, err := stage(s, StageLoad, func() (*config.Spec, error) { return config.Load(opts.ConfigPath) })
	if err != nil {
		return s.finish(result, start, err)
	}
	return s.run(ctx, spec, opts, result, start)
}

// RunSpec generates the tree for an already parsed configuration.
func (s *Service) RunSpec(ctx context.Context, spec *config.Spec, opts Options) (*Result, error) {
	return s.run(ctx, spec, opts, &Result{Status: manifest.StatusFailed}, s.now())
}

func (s *Service) run(ctx context.Context, spec *config.Spec, opts Options, result *Result, start time.Time) (*Result, error) {
	result.Spec = spec
	if opts.OutputRoot == "" {
		return s.finish(result, start, ferrors.ConfigError("output root required").Build())
	}

	templatePath := spec.Global.Template
	if opts.Template != "" {
		templatePath = opts.Template
	}
	tmpl, err := sidebar.LoadTemplate(templatePath)
	if err != nil {
		return s.finish(result, start, err)
	}

	lib, err := library.Open(spec.Global.LibraryRoot, spec.Global.LibraryName, library.WithLogger(s.logger))
	if err != nil {
		return s.finish(result, start, err)
	}
	run := tree.NewRun(opts.OutputRoot, spec.Global.DirName)
	result.RunID = run.ID
	logger := s.logger.With(logfields.RunID(run.ID))

	result.Revision = s.revision(spec, logger)

	resolutions, err := stage(s, StageResolve, func() ([]*resolve.Resolution, error) {
		return resolve.New(lib, logger).ResolveAll(ctx, spec)
	})
	s.recorder.SetNamespaceParses(lib.Parses())
	if err != nil {
		return s.finish(result, start, err)
	}
	result.Resolutions = resolutions

	plans, err := stage(s, StagePlan, func() ([]plan.SectionPlan, error) {
		return plan.BuildAll(resolutions, spec.Global.IndexPage)
	})
	if err != nil {
		return s.finish(result, start, err)
	}
	result.Plans = plans

	writer := tree.NewWriter(s.rendererFor(spec, result.Revision), spec.Dirs,
		tree.WithLogger(logger))
	report, err := stage(s, StageWrite, func() (*tree.WriteReport, error) {
		return writer.Write(ctx, run, plans)
	})
	result.Write = report
	if report != nil {
		s.recordWrite(report, plans)
	}
	if err != nil {
		return s.finish(result, start, err)
	}

	if _, err := stage(s, StageManifest, func() (struct{}, error) {
		return struct{}{}, s.writeManifest(run, spec, plans, tmpl, opts.CheckLinks, result, logger)
	}); err != nil {
		return s.finish(result, start, err)
	}

	runErr := s.outcome(result)
	if _, err := stage(s, StageReport, func() (struct{}, error) {
		return struct{}{}, s.writeReport(run, opts, result, start, runErr)
	}); err != nil {
		return s.finish(result, start, errors.Join(runErr, err))
	}
	if s.notifier != nil && result.Report != nil {
		if err := s.notifier.Notify(ctx, result.Report); err != nil {
			logger.Warn("Failed to publish run report", logfields.Error(err))
		}
	}
	return s.finish(result, start, runErr)
}

// stage times fn and records its outcome.
func stage[T any](s *Service, name string, fn func() (T, error)) (T, error) {
	began := time.Now()
	s.logger.Debug("Stage started", logfields.Stage(name))
	v, err := fn()
	d := time.Since(began)
	s.recorder.ObserveStageDuration(name, d)
	switch {
	case err == nil:
		s.recorder.IncStageResult(name, metrics.ResultSuccess)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.recorder.IncStageResult(name, metrics.ResultCanceled)
	default:
		s.recorder.IncStageResult(name, metrics.ResultFatal)
	}
	s.logger.Debug("Stage finished",
		logfields.Stage(name),
		logfields.DurationMS(float64(d.Microseconds())/1000))
	return v, err
}

func (s *Service) revision(spec *config.Spec, logger *slog.Logger) git.Revision {
	rev, ok, err := git.ReadHead(spec.Global.LibraryRoot)
	if err != nil {
		logger.Warn("Could not read library revision; source links are unpinned", logfields.Error(err))
		return git.Revision{}
	}
	if !ok {
		logger.Debug("Library root is not a git checkout", logfields.Directory(spec.Global.LibraryRoot))
	}
	return rev
}

func (s *Service) rendererFor(spec *config.Spec, rev git.Revision) tree.Renderer {
	if s.renderer != nil {
		return s.renderer
	}
	return render.NewMarkdown(render.WithSource(render.Source{
		Repository: spec.Global.Repository,
		Prefix:     spec.Global.SourcePrefix,
		Revision:   rev,
	}))
}

func (s *Service) recordWrite(report *tree.WriteReport, plans []plan.SectionPlan) {
	sections := make(map[string]string)
	for _, sp := range plans {
		for _, page := range sp.AllPages() {
			if _, ok := sections[page.Path]; !ok {
				sections[page.Path] = page.Section
			}
		}
	}
	perSection := make(map[string]int)
	for _, p := range report.PagesWritten {
		perSection[sections[p]]++
	}
	for section, n := range perSection {
		s.recorder.AddPagesWritten(section, n)
	}
	s.recorder.AddPageFailures(len(report.Failed))
	s.recorder.AddCollisions(len(report.Collisions))
}

func (s *Service) writeManifest(run *tree.Run, spec *config.Spec, plans []plan.SectionPlan, tmpl *template.Template, checkLinks bool, result *Result, logger *slog.Logger) error {
	t, err := sidebar.Build(run, spec, plans, logger)
	if err != nil {
		return err
	}
	result.Tree = t

	text, err := sidebar.Render(t, tmpl)
	if err != nil {
		return err
	}
	result.ManifestPath = filepath.Join(run.OutputRoot, spec.Global.Manifest)
	if err := os.WriteFile(result.ManifestPath, []byte(text), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write manifest").
			WithCause(err).
			WithContext("path", result.ManifestPath).
			Build()
	}
	logger.Info("Wrote manifest",
		logfields.Path(result.ManifestPath),
		logfields.Count(t.Leaves()))

	if !checkLinks {
		return nil
	}
	result.BrokenLinks = sidebar.CheckLinks(run.OutputRoot, spec.Global.Manifest, []byte(text))
	pages := make([]string, 0, len(result.Write.PagesWritten))
	for _, p := range result.Write.PagesWritten {
		pages = append(pages, filepath.ToSlash(filepath.Join(run.BaseName, p)))
	}
	broken, err := sidebar.CheckFiles(run.OutputRoot, pages)
	if err != nil {
		return err
	}
	result.BrokenLinks = append(result.BrokenLinks, broken...)
	for _, l := range result.BrokenLinks {
		logger.Warn("Broken link", logfields.Path(l.File), slog.String("destination", l.Destination))
	}
	return nil
}

// outcome sets the run status and returns the error the run reports.
func (s *Service) outcome(result *Result) error {
	report := result.Write
	switch {
	case len(report.Collisions) > 0:
		result.Status = manifest.StatusFailed
		return ferrors.CollisionError(fmt.Sprintf("%d output path collisions", len(report.Collisions))).
			WithCause(report.CollisionErr()).
			WithContext("collisions", len(report.Collisions)).
			Build()
	case len(result.BrokenLinks) > 0:
		result.Status = manifest.StatusFailed
		return sidebar.BrokenLinksError(result.BrokenLinks)
	case len(report.Failed) > 0:
		result.Status = manifest.StatusPartial
		errs := make([]error, len(report.Failed))
		for i, f := range report.Failed {
			errs[i] = f.Err
		}
		return ferrors.RenderError(fmt.Sprintf("%d pages failed to render", len(report.Failed))).
			WithCause(errors.Join(errs...)).
			WithContext("failed", len(report.Failed)).
			Build()
	default:
		result.Status = manifest.StatusSuccess
		return nil
	}
}

func (s *Service) finish(result *Result, start time.Time, err error) (*Result, error) {
	result.Duration = s.now().Sub(start)
	if err != nil && result.Status == manifest.StatusSuccess {
		result.Status = manifest.StatusFailed
	}
	s.recorder.ObserveRunDuration(result.Duration)
	s.recorder.IncRunOutcome(string(result.Status))

	attrs := []any{
		logfields.RunID(result.RunID),
		slog.String("status", string(result.Status)),
		logfields.DurationMS(float64(result.Duration.Microseconds()) / 1000),
	}
	if err != nil {
		s.logger.Error("Generation finished with errors", append(attrs, logfields.Error(err))...)
	} else {
		s.logger.Info("Generation finished", attrs...)
	}
	return result, err
}
