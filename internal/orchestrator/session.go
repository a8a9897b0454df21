package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/sdkassist/sdkassist/internal/config"
	"github.com/sdkassist/sdkassist/internal/domain"
	"github.com/sdkassist/sdkassist/internal/repository"
	"github.com/sdkassist/sdkassist/internal/service"
	"github.com/sdkassist/sdkassist/internal/usecase"
)

// SessionConfig contains configuration for a tracked session workflow.
type SessionConfig struct {
	DryRun bool // Skip AI analysis and issue filing
}

// SessionOrchestrator drives a tracked SDK session: running commands,
// recording them, analyzing failures and producing the final tutorial.
type SessionOrchestrator struct {
	cfg      *config.Config
	store    repository.SessionStore
	runner   service.RunnerService
	analyzer service.AnalyzerService
	docs     service.DocsService
	gitRepo  repository.GitRepository
	issues   repository.IssueRepository
	tutorial *usecase.GenerateTutorialUseCase
	log      *zap.Logger

	workflow SessionConfig
	session  *domain.Session
	docsSeen map[string]domain.PackageDoc
}

// NewSessionOrchestrator creates a session orchestrator. The analyzer,
// docs service, git repository and issue repository may be nil; the
// corresponding steps degrade to no-ops.
func NewSessionOrchestrator(
	cfg *config.Config,
	store repository.SessionStore,
	runner service.RunnerService,
	analyzer service.AnalyzerService,
	docs service.DocsService,
	gitRepo repository.GitRepository,
	issues repository.IssueRepository,
	tutorial *usecase.GenerateTutorialUseCase,
	log *zap.Logger,
	workflow SessionConfig,
) *SessionOrchestrator {
	return &SessionOrchestrator{
		cfg:      cfg,
		store:    store,
		runner:   runner,
		analyzer: analyzer,
		docs:     docs,
		gitRepo:  gitRepo,
		issues:   issues,
		tutorial: tutorial,
		log:      log,
		workflow: workflow,
		docsSeen: make(map[string]domain.PackageDoc),
	}
}

// Session returns the session being tracked, or nil before Start.
func (o *SessionOrchestrator) Session() *domain.Session {
	return o.session
}

// Start opens a new session for the given goal and persists it.
func (o *SessionOrchestrator) Start(ctx context.Context, goal string) (*domain.Session, error) {
	if err := ValidateGoal(goal); err != nil {
		return nil, err
	}
	if o.session != nil && o.session.Active() {
		return nil, fmt.Errorf("session %s is already active", o.session.ID)
	}

	session := domain.NewSession(goal)
	session.Context = map[string]string{
		"os":   runtime.GOOS,
		"arch": runtime.GOARCH,
	}
	if o.gitRepo != nil {
		if repoCtx, err := o.gitRepo.Describe(ctx); err == nil {
			session.Context["branch"] = repoCtx.Branch
			session.Context["commit"] = repoCtx.Commit
		}
	}

	if err := o.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}
	o.session = session
	o.log.Info("session started",
		zap.String("session_id", session.ID),
		zap.String("goal", goal))
	return session, nil
}

// Resume reopens the most recent active session from the store.
func (o *SessionOrchestrator) Resume(ctx context.Context) (*domain.Session, error) {
	session, err := o.store.LoadLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest session: %w", err)
	}
	if !session.Active() {
		return nil, fmt.Errorf("latest session %s is %s, not active", session.ID, session.Status)
	}
	o.session = session
	o.log.Info("session resumed",
		zap.String("session_id", session.ID),
		zap.Int("commands", len(session.Commands)))
	return session, nil
}

// Execute runs one command inside the session: execute, track, enrich
// with registry docs, and on failure classify, analyze and possibly
// file an issue. The session is persisted after every command.
func (o *SessionOrchestrator) Execute(ctx context.Context, command string) (*domain.CommandRecord, error) {
	if o.session == nil || !o.session.Active() {
		return nil, fmt.Errorf("no active session")
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultCommandStepTimeout)
	defer cancel()

	record, err := o.runner.Run(ctx, command)
	if err != nil {
		return nil, fmt.Errorf("failed to run command: %w", err)
	}

	tracked, err := o.trackCommand(*record)
	if err != nil {
		return nil, fmt.Errorf("failed to track command: %w", err)
	}

	docs := o.collectDocs(ctx, command)

	if tracked.Record.Failed() {
		o.handleFailure(ctx, tracked, docs)
	}

	if err := o.store.Save(ctx, o.session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return tracked.Record, nil
}

// Close finishes the session, generates the tutorial for a completed
// one, and persists the final state. It returns the tutorial path,
// which is empty for aborted or empty sessions.
func (o *SessionOrchestrator) Close(ctx context.Context, status domain.SessionStatus) (string, error) {
	if o.session == nil {
		return "", fmt.Errorf("no session to close")
	}
	if o.session.Active() {
		o.session.Close(status)
	}

	var tutorialPath string
	if status == domain.SessionStatusCompleted && len(o.session.Commands) > 0 && o.tutorial != nil {
		insights := o.sessionInsights(ctx)
		path, err := o.tutorial.Execute(usecase.TutorialInput{
			Session:  o.session,
			Insights: insights,
			Docs:     o.collectedDocs(),
		})
		if err != nil {
			return "", fmt.Errorf("failed to generate tutorial: %w", err)
		}
		tutorialPath = path
		o.log.Info("tutorial generated", zap.String("path", path))
	}

	if err := o.store.Save(ctx, o.session); err != nil {
		return "", fmt.Errorf("failed to persist closed session: %w", err)
	}
	o.log.Info("session closed",
		zap.String("session_id", o.session.ID),
		zap.String("status", string(o.session.Status)),
		zap.Int("commands", len(o.session.Commands)),
		zap.Int("errors", o.session.ErrorCount))
	return tutorialPath, nil
}

// handleFailure classifies the failure, runs the dual analysis and
// files or updates a GitHub issue when the failure is persistent. All
// of it is best-effort: a broken provider or tracker never fails the
// command step itself.
func (o *SessionOrchestrator) handleFailure(ctx context.Context, tracked *usecase.TrackResult, docs []domain.PackageDoc) {
	record := tracked.Record

	report, err := o.classifyError(record)
	if err != nil {
		o.log.Warn("failed to classify error", zap.Error(err))
		return
	}
	record.Report = report

	if o.workflow.DryRun {
		o.log.Info("dry-run: skipping analysis and issue filing",
			zap.String("error_type", string(report.Type)))
		return
	}

	if analysis := o.analyzeFailure(ctx, record, docs); analysis != nil {
		record.Analysis = analysis
	}

	failures := o.session.FailureCount(record.Command)
	if failures >= PersistentFailureThreshold {
		o.reportIssue(ctx, record, report)
	} else {
		o.log.Debug("failure below issue threshold",
			zap.String("command", record.Command),
			zap.Int("failures", failures))
	}
}

func (o *SessionOrchestrator) trackCommand(record domain.CommandRecord) (*usecase.TrackResult, error) {
	uc := &usecase.TrackCommandUseCase{}
	return uc.Execute(o.session, record)
}

func (o *SessionOrchestrator) classifyError(record *domain.CommandRecord) (*domain.ErrorReport, error) {
	uc := &usecase.ClassifyErrorUseCase{}
	return uc.Execute(record)
}

// collectDocs extracts package pins from the command and looks their
// registry metadata up, caching per session for the final tutorial.
// Lookup failures are logged and ignored.
func (o *SessionOrchestrator) collectDocs(ctx context.Context, command string) []domain.PackageDoc {
	if o.docs == nil {
		return nil
	}
	uc := &usecase.ExtractPackagesUseCase{}
	pins := uc.Execute(command)
	var docs []domain.PackageDoc
	for _, pin := range pins {
		if cached, ok := o.docsSeen[pin.Name]; ok {
			docs = append(docs, cached)
			continue
		}
		doc, err := o.docs.Lookup(ctx, pin)
		if err != nil {
			o.log.Debug("package doc lookup failed",
				zap.String("package", pin.Name),
				zap.Error(err))
			continue
		}
		o.docsSeen[pin.Name] = *doc
		docs = append(docs, *doc)
	}
	return docs
}

func (o *SessionOrchestrator) collectedDocs() []domain.PackageDoc {
	var docs []domain.PackageDoc
	for _, doc := range o.docsSeen {
		docs = append(docs, doc)
	}
	return docs
}

// analyzeFailure asks every configured provider about the failure and
// merges their answers. Providers are never retried.
func (o *SessionOrchestrator) analyzeFailure(ctx context.Context, record *domain.CommandRecord, docs []domain.PackageDoc) *domain.Analysis {
	if o.analyzer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultAnalysisTimeout)
	defer cancel()

	results, err := o.analyzer.Analyze(ctx, service.AnalysisRequest{
		SystemPrompt: errorAnalysisSystemPrompt,
		UserPrompt:   buildErrorPrompt(o.session, record, docs),
		MaxTokens:    service.DefaultAnalysisMaxTokens,
		Temperature:  service.Temp(service.DefaultAnalysisTemperature),
	})
	if err != nil {
		o.log.Warn("analysis unavailable", zap.Error(err))
		return nil
	}

	uc := &usecase.MergeAnalysesUseCase{}
	analysis, err := uc.Execute(results)
	if err != nil {
		o.log.Warn("failed to merge analyses", zap.Error(err))
		return nil
	}
	if analysis.Degraded {
		o.log.Warn("analysis degraded to a single provider")
	}
	return analysis
}

// reportIssue files a GitHub issue for a persistent failure, or adds a
// comment when a similar open issue already exists.
func (o *SessionOrchestrator) reportIssue(ctx context.Context, record *domain.CommandRecord, report *domain.ErrorReport) {
	if o.issues == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultIssueTimeout)
	defer cancel()

	var repoCtx *domain.RepoContext
	if o.gitRepo != nil {
		repoCtx, _ = o.gitRepo.Describe(ctx)
	}

	uc := &usecase.PrepareIssueUseCase{}
	title, body, err := uc.Execute(usecase.IssueInput{
		Session: o.session,
		Record:  record,
		Report:  report,
		Repo:    repoCtx,
	})
	if err != nil {
		o.log.Warn("failed to prepare issue", zap.Error(err))
		return
	}

	similar, err := o.issues.FindSimilarIssues(ctx, report.Summary)
	if err != nil {
		o.log.Warn("similar issue search failed", zap.Error(err))
	}
	if len(similar) > 0 {
		existing := similar[0]
		if err := o.issues.AddComment(ctx, existing.Number, body); err != nil {
			o.log.Warn("failed to comment on existing issue",
				zap.Int("issue", existing.Number),
				zap.Error(err))
			return
		}
		report.IssueNumber = existing.Number
		report.IssueURL = existing.URL
		o.log.Info("added occurrence to existing issue",
			zap.Int("issue", existing.Number),
			zap.String("url", existing.URL))
		return
	}

	number, url, err := o.issues.CreateIssue(ctx, title, body, report.Labels)
	if err != nil {
		o.log.Warn("failed to create issue", zap.Error(err))
		return
	}
	report.IssueNumber = number
	report.IssueURL = url
	o.log.Info("issue created",
		zap.Int("issue", number),
		zap.String("url", url))
}

// sessionInsights runs the session digest through the analyzer for the
// tutorial's overview. Failure leaves the tutorial data-only.
func (o *SessionOrchestrator) sessionInsights(ctx context.Context) []string {
	if o.analyzer == nil || o.workflow.DryRun {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultAnalysisTimeout)
	defer cancel()

	results, err := o.analyzer.Analyze(ctx, service.AnalysisRequest{
		SystemPrompt: tutorialSystemPrompt,
		UserPrompt:   buildSessionDigest(o.session),
		MaxTokens:    service.DefaultAnalysisMaxTokens,
		Temperature:  service.Temp(service.DefaultAnalysisTemperature),
	})
	if err != nil {
		o.log.Warn("tutorial analysis unavailable", zap.Error(err))
		return nil
	}
	uc := &usecase.MergeAnalysesUseCase{}
	analysis, err := uc.Execute(results)
	if err != nil {
		o.log.Warn("failed to merge tutorial analyses", zap.Error(err))
		return nil
	}
	return analysis.Insights
}

const errorAnalysisSystemPrompt = `You are an expert SDK integration assistant. ` +
	`A developer's shell command failed. Analyze the error and respond with a short ` +
	`list of concrete, actionable suggestions, one per line. Do not repeat the error back.`

const tutorialSystemPrompt = `You are a technical writer summarizing an SDK development ` +
	`session. Given the session transcript, respond with a short list of key takeaways ` +
	`and lessons learned, one per line.`

func buildErrorPrompt(session *domain.Session, record *domain.CommandRecord, docs []domain.PackageDoc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n\n", session.Goal)
	fmt.Fprintf(&b, "Command: %s\nExit code: %d\n", record.Command, record.ExitCode)
	if record.Stderr != "" {
		fmt.Fprintf(&b, "\nError output:\n%s\n", record.Stderr)
	}
	if failures := session.FailureCount(record.Command); failures > 1 {
		fmt.Fprintf(&b, "\nThis command has now failed %d times in this session.\n", failures)
	}
	for _, doc := range docs {
		fmt.Fprintf(&b, "\nPackage %s (%s): %s", doc.Name, doc.Ecosystem, doc.Description)
		if doc.LatestVersion != "" {
			fmt.Fprintf(&b, " Latest version: %s.", doc.LatestVersion)
		}
	}
	return b.String()
}

func buildSessionDigest(session *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n\nCommands:\n", session.Goal)
	for _, cmd := range session.Commands {
		outcome := "ok"
		if cmd.Failed() {
			outcome = fmt.Sprintf("failed (exit %d)", cmd.ExitCode)
		}
		fmt.Fprintf(&b, "%d. %s [%s]\n", cmd.Seq, cmd.Command, outcome)
		if cmd.Failed() && cmd.Stderr != "" {
			line := strings.SplitN(strings.TrimSpace(cmd.Stderr), "\n", 2)[0]
			fmt.Fprintf(&b, "   error: %s\n", line)
		}
	}
	return b.String()
}
