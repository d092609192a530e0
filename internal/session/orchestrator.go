package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jamie/scholarship-tailor/internal/analyzer"
	"github.com/jamie/scholarship-tailor/internal/composer"
	"github.com/jamie/scholarship-tailor/internal/decoder"
	"github.com/jamie/scholarship-tailor/internal/interview"
	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/optimizer"
	"github.com/jamie/scholarship-tailor/internal/outreach"
	"github.com/jamie/scholarship-tailor/internal/types"
)

// Options bounds the orchestrator's calls to the generation backend.
type Options struct {
	WordLimit    int
	MaxRetries   int
	StageTimeout time.Duration
	RetryBackoff time.Duration
}

// DefaultOptions mirrors the service defaults: two retries with a one
// second initial backoff, 90 seconds per generation call.
func DefaultOptions() Options {
	return Options{
		WordLimit:    650,
		MaxRetries:   2,
		StageTimeout: 90 * time.Second,
		RetryBackoff: time.Second,
	}
}

// Orchestrator drives sessions through the pipeline state machine. Every
// transition commits through the store's guarded update, so two
// concurrent resumptions of one session cannot double-execute a stage.
type Orchestrator struct {
	store  Store
	client llm.Client
	opts   Options
	logger *zap.Logger
}

func NewOrchestrator(store Store, client llm.Client, opts Options, logger *zap.Logger) *Orchestrator {
	def := DefaultOptions()
	if opts.WordLimit <= 0 {
		opts.WordLimit = def.WordLimit
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = def.StageTimeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = def.RetryBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{store: store, client: client, opts: opts, logger: logger}
}

// CreateParams describes a new tailoring session. ScholarshipText is the
// already-ingested posting text; URL fetching happens upstream.
type CreateParams struct {
	ResumeSessionID string
	OwnerID         string
	ScholarshipURL  string
	ScholarshipText string
	ScholarshipName string
	Organization    string
	Contact         string
	WordLimit       int
	PastWinners     []string
	Digest          *types.ResumeDigest
}

// Create persists a new session at the created stage. It does no
// generation work; call Advance to start the pipeline.
func (o *Orchestrator) Create(ctx context.Context, p CreateParams) (*Session, error) {
	if strings.TrimSpace(p.ScholarshipText) == "" {
		return nil, fmt.Errorf("scholarship text is empty")
	}
	if p.Digest == nil {
		return nil, fmt.Errorf("resume digest is required")
	}
	if err := p.Digest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resume digest: %w", err)
	}

	wordLimit := p.WordLimit
	if wordLimit <= 0 {
		wordLimit = o.opts.WordLimit
	}

	s := &Session{
		ID:              uuid.New(),
		ResumeSessionID: p.ResumeSessionID,
		OwnerID:         p.OwnerID,
		ScholarshipURL:  p.ScholarshipURL,
		ScholarshipText: p.ScholarshipText,
		ScholarshipName: p.ScholarshipName,
		Organization:    p.Organization,
		Contact:         p.Contact,
		WordLimit:       wordLimit,
		PastWinners:     p.PastWinners,
		Digest:          p.Digest,
		Stage:           StageCreated,
		Status:          StatusInProgress,
	}
	if err := o.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	o.logger.Info("session created",
		zap.String("session_id", s.ID.String()),
		zap.String("resume_session_id", s.ResumeSessionID))
	return s, nil
}

// Advance runs the pipeline from the session's last committed stage until
// it completes, fails, or parks waiting for an interview answer. It is
// safe to call repeatedly; re-entering a committed stage resumes after it
// rather than re-executing it.
func (o *Orchestrator) Advance(ctx context.Context, id uuid.UUID) (*Session, error) {
	for {
		s, err := o.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.Terminal() || s.Status == StatusFailed {
			return s, nil
		}
		if s.CancelRequested {
			s.Status = StatusCancelled
			if err := o.store.Update(ctx, s); err != nil && !errors.Is(err, ErrConcurrentModification) {
				return nil, err
			}
			return o.store.Get(ctx, id)
		}

		attempting := s.Stage
		switch s.Stage {
		case StageCreated:
			attempting = StageDecoding
			err = o.runDecoding(ctx, s)
		case StageDecoding:
			attempting = StageAnalyzing
			err = o.runAnalyzing(ctx, s)
		case StageAnalyzing:
			if s.GapReport.TargetGap != nil && !s.InterviewAnswered {
				attempting = StageInterviewing
				err = o.enterInterview(ctx, s)
			} else {
				attempting = StageOptimizing
				err = o.runOptimizing(ctx, s)
			}
		case StageInterviewing:
			if !s.InterviewAnswered {
				return s, nil
			}
			attempting = StageOptimizing
			err = o.runOptimizing(ctx, s)
		case StageOptimizing:
			attempting = StageComposing
			err = o.runComposing(ctx, s)
		case StageComposing:
			s.Stage = StageCompleted
			s.Status = StatusCompleted
			err = o.store.Update(ctx, s)
			if err == nil {
				o.logger.Info("session completed", zap.String("session_id", s.ID.String()))
			}
		default:
			return s, nil
		}

		if err != nil {
			if errors.Is(err, ErrConcurrentModification) {
				// Another resumption of this session won the race; let it
				// carry the work forward.
				return o.store.Get(ctx, id)
			}
			return o.failSession(ctx, s, attempting, err)
		}
	}
}

func (o *Orchestrator) runDecoding(ctx context.Context, s *Session) error {
	o.logger.Info("decoding value model", zap.String("session_id", s.ID.String()))

	var model *types.ValueModel
	err := o.withRetries(ctx, StageDecoding, func(ctx context.Context) error {
		m, err := decoder.DecodeValueModel(ctx, o.client, s.ScholarshipText, s.PastWinners)
		if err != nil {
			return err
		}
		model = m
		return nil
	})
	if err != nil {
		return err
	}

	s.ValueModel = model
	s.Stage = StageDecoding
	return o.store.Update(ctx, s)
}

func (o *Orchestrator) runAnalyzing(ctx context.Context, s *Session) error {
	o.logger.Info("analyzing gaps", zap.String("session_id", s.ID.String()))

	var classified *types.ResumeDigest
	err := o.withRetries(ctx, StageAnalyzing, func(ctx context.Context) error {
		d, err := analyzer.ClassifyBullets(ctx, o.client, s.Digest, s.ValueModel)
		if err != nil {
			return err
		}
		classified = d
		return nil
	})

	if err != nil {
		// Fail safe: assume every value is a gap rather than silently
		// skipping the interview.
		o.logger.Warn("classification failed, degrading to all-gaps report",
			zap.String("session_id", s.ID.String()), zap.Error(err))
		s.GapReport = analyzer.DegradedGapReport(s.ValueModel)
		s.LastError = &StageError{
			Stage:   StageAnalyzing,
			Kind:    KindClassificationFailure,
			Message: err.Error(),
			Cause:   err,
		}
	} else {
		s.Digest = classified
		s.GapReport = analyzer.BuildGapReport(s.ValueModel, classified)
	}

	s.Stage = StageAnalyzing
	return o.store.Update(ctx, s)
}

func (o *Orchestrator) enterInterview(ctx context.Context, s *Session) error {
	o.logger.Info("eliciting interview question",
		zap.String("session_id", s.ID.String()),
		zap.String("target_gap", *s.GapReport.TargetGap))

	var question string
	err := o.withRetries(ctx, StageInterviewing, func(ctx context.Context) error {
		q, err := interview.ElicitQuestion(ctx, o.client, s.ValueModel, s.GapReport, s.Digest)
		if err != nil {
			return err
		}
		question = q
		return nil
	})
	if err != nil {
		return err
	}

	s.InterviewQuestion = question
	s.Stage = StageInterviewing
	return o.store.Update(ctx, s)
}

func (o *Orchestrator) runOptimizing(ctx context.Context, s *Session) error {
	o.logger.Info("optimizing bullets", zap.String("session_id", s.ID.String()))

	var bullets []types.OptimizedBullet
	err := o.withRetries(ctx, StageOptimizing, func(ctx context.Context) error {
		b, err := optimizer.OptimizeBullets(ctx, o.client, s.Digest, s.ValueModel)
		if err != nil {
			return err
		}
		bullets = b
		return nil
	})
	if err != nil {
		return err
	}

	s.OptimizedBullets = bullets
	s.Stage = StageOptimizing
	return o.store.Update(ctx, s)
}

func (o *Orchestrator) runComposing(ctx context.Context, s *Session) error {
	o.logger.Info("composing essay", zap.String("session_id", s.ID.String()))

	g, gCtx := errgroup.WithContext(ctx)

	var essay *types.EssayDraft
	g.Go(func() error {
		return o.withRetries(gCtx, StageComposing, func(ctx context.Context) error {
			d, err := composer.ComposeEssay(ctx, o.client, s.BridgeStory, s.OptimizedBullets, s.ValueModel, s.WordLimit)
			if err != nil {
				return err
			}
			essay = d
			return nil
		})
	})

	// Outreach depends only on the analyzer output, so an explicit request
	// runs alongside composition instead of after it. Its failure never
	// blocks the essay.
	var outreachDraft *types.OutreachDraft
	if s.OutreachRequested && s.Outreach == nil {
		g.Go(func() error {
			d, err := o.draftOutreach(gCtx, s, nil)
			if err != nil {
				o.logger.Warn("outreach drafting failed",
					zap.String("session_id", s.ID.String()), zap.Error(err))
				return nil
			}
			outreachDraft = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.Essay = essay
	if outreachDraft != nil {
		s.Outreach = outreachDraft
	}
	s.Stage = StageComposing
	return o.store.Update(ctx, s)
}

// SubmitAnswer records the student's reply to the elicited question and
// resumes the pipeline. An empty reply is accepted: the session proceeds
// without a bridge story and the composer falls back to its strongest
// bullet hook.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, id uuid.UUID, answer string) (*Session, error) {
	s, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Terminal() {
		return nil, ErrTerminal
	}
	if s.Stage != StageInterviewing || s.InterviewAnswered {
		return nil, ErrNotInterviewing
	}

	s.BridgeStory = interview.AcceptAnswer(s.InterviewQuestion, answer, *s.GapReport.TargetGap)
	s.InterviewAnswered = true
	if err := o.store.Update(ctx, s); err != nil {
		return nil, err
	}

	return o.Advance(ctx, id)
}

// RequestOutreach triggers the optional clarifying email. If the gap
// report is not available yet the request is remembered and the draft is
// produced concurrently with composition; otherwise it is drafted now.
// Requesting again after a draft exists returns the existing draft.
func (o *Orchestrator) RequestOutreach(ctx context.Context, id uuid.UUID, ambiguities []string) (*Session, error) {
	s, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status == StatusCancelled {
		return nil, ErrTerminal
	}
	if s.Outreach != nil {
		return s, nil
	}

	if s.GapReport == nil {
		s.OutreachRequested = true
		if err := o.store.Update(ctx, s); err != nil {
			return nil, err
		}
		return o.store.Get(ctx, id)
	}

	draft, err := o.draftOutreach(ctx, s, ambiguities)
	if err != nil {
		return nil, err
	}

	// The pipeline may commit stages while the draft was generating;
	// reapply on conflict rather than clobbering newer artifacts.
	for attempt := 0; attempt < 3; attempt++ {
		s.Outreach = draft
		s.OutreachRequested = true
		if err := o.store.Update(ctx, s); err == nil {
			return o.store.Get(ctx, id)
		} else if !errors.Is(err, ErrConcurrentModification) {
			return nil, err
		}
		if s, err = o.store.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	return nil, ErrConcurrentModification
}

func (o *Orchestrator) draftOutreach(ctx context.Context, s *Session, ambiguities []string) (*types.OutreachDraft, error) {
	if s.GapReport == nil {
		return nil, ErrNotAnalyzed
	}
	if len(ambiguities) == 0 {
		ambiguities = outreach.AmbiguitiesFromReport(s.GapReport)
	}

	studentContext := ""
	if s.Digest != nil {
		studentContext = s.Digest.ResumeSummary
	}

	var draft *types.OutreachDraft
	err := o.withRetries(ctx, StageComposing, func(ctx context.Context) error {
		d, err := outreach.DraftEmail(ctx, o.client, outreach.Request{
			ScholarshipName: s.ScholarshipName,
			Organization:    s.Organization,
			Contact:         s.Contact,
			Ambiguities:     ambiguities,
			StudentContext:  studentContext,
		})
		if err != nil {
			return err
		}
		draft = d
		return nil
	})
	return draft, err
}

// Cancel requests cancellation. A stage already in flight is not
// interrupted; its committed result is retained and the cancellation
// takes effect at the next commit boundary.
func (o *Orchestrator) Cancel(ctx context.Context, id uuid.UUID) (*Session, error) {
	for attempt := 0; attempt < 3; attempt++ {
		s, err := o.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.Terminal() {
			return nil, ErrTerminal
		}

		s.CancelRequested = true
		s.Status = StatusCancelled
		err = o.store.Update(ctx, s)
		if err == nil {
			o.logger.Info("session cancelled", zap.String("session_id", s.ID.String()))
			return o.store.Get(ctx, id)
		}
		if !errors.Is(err, ErrConcurrentModification) {
			return nil, err
		}
	}
	return nil, ErrConcurrentModification
}

// Resume reopens a failed session so Advance can retry from the last
// committed stage once the underlying failure has cleared.
func (o *Orchestrator) Resume(ctx context.Context, id uuid.UUID) (*Session, error) {
	s, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusFailed {
		return o.Advance(ctx, id)
	}

	s.Status = StatusInProgress
	if err := o.store.Update(ctx, s); err != nil {
		return nil, err
	}
	return o.Advance(ctx, id)
}

func (o *Orchestrator) failSession(ctx context.Context, s *Session, attempting Stage, cause error) (*Session, error) {
	kind := classifyError(cause)
	o.logger.Error("stage failed",
		zap.String("session_id", s.ID.String()),
		zap.String("stage", string(attempting)),
		zap.String("kind", string(kind)),
		zap.Error(cause))

	s.LastError = &StageError{
		Stage:   attempting,
		Kind:    kind,
		Message: cause.Error(),
		Cause:   cause,
	}
	s.Status = StatusFailed
	if err := o.store.Update(ctx, s); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return o.store.Get(ctx, s.ID)
		}
		return nil, err
	}
	return s.Clone(), nil
}
