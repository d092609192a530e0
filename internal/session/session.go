// Package session holds the tailoring session aggregate and the
// orchestrator that drives it through the pipeline stages.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/jamie/scholarship-tailor/internal/types"
)

// Stage is the durable pipeline cursor. It names the last committed
// checkpoint; on restart the orchestrator resumes from it rather than
// replaying from the start.
type Stage string

const (
	StageCreated      Stage = "created"
	StageDecoding     Stage = "decoding"
	StageAnalyzing    Stage = "analyzing"
	StageInterviewing Stage = "interviewing"
	StageOptimizing   Stage = "optimizing"
	StageComposing    Stage = "composing"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)

// Status is the session's outward lifecycle state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Session is the aggregate root. It owns one of each pipeline artifact as
// stages produce them and is the unit of persistence and history
// reporting. Version backs the store's compare-and-set guard; every
// successful update increments it.
type Session struct {
	ID              uuid.UUID `json:"id"`
	ResumeSessionID string    `json:"resume_session_id"`
	OwnerID         string    `json:"owner_id"`
	ScholarshipURL  string    `json:"scholarship_url"`
	ScholarshipText string    `json:"scholarship_text"`
	ScholarshipName string    `json:"scholarship_name"`
	Organization    string    `json:"organization"`
	Contact         string    `json:"contact"`
	WordLimit       int       `json:"word_limit"`
	PastWinners     []string  `json:"past_winners,omitempty"`

	Stage     Stage     `json:"stage"`
	Status    Status    `json:"status"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CancelRequested   bool `json:"cancel_requested"`
	OutreachRequested bool `json:"outreach_requested"`
	InterviewAnswered bool `json:"interview_answered"`

	Digest            *types.ResumeDigest     `json:"digest,omitempty"`
	ValueModel        *types.ValueModel       `json:"value_model,omitempty"`
	GapReport         *types.GapReport        `json:"gap_report,omitempty"`
	InterviewQuestion string                  `json:"interview_question,omitempty"`
	BridgeStory       *types.BridgeStory      `json:"bridge_story,omitempty"`
	OptimizedBullets  []types.OptimizedBullet `json:"optimized_bullets,omitempty"`
	Essay             *types.EssayDraft       `json:"essay,omitempty"`
	Outreach          *types.OutreachDraft    `json:"outreach,omitempty"`

	LastError *StageError `json:"last_error,omitempty"`
}

// Summary is the derived, read-only history projection of a session.
type Summary struct {
	WorkflowSessionID uuid.UUID `json:"workflow_session_id"`
	ScholarshipURL    string    `json:"scholarship_url"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	MatchScore        float64   `json:"match_score"`
	HadInterview      bool      `json:"had_interview"`
}

// Summary projects the session for history listings. MatchScore is the
// weighted coverage ratio from the gap report; HadInterview reflects
// bridge story presence.
func (s *Session) Summary() Summary {
	return Summary{
		WorkflowSessionID: s.ID,
		ScholarshipURL:    s.ScholarshipURL,
		Status:            s.Status,
		CreatedAt:         s.CreatedAt,
		MatchScore:        s.MatchScore(),
		HadInterview:      s.HadInterview(),
	}
}

// MatchScore sums the weights of covered categories, 0 before analysis.
func (s *Session) MatchScore() float64 {
	if s.GapReport == nil {
		return 0
	}
	return s.GapReport.MatchScore()
}

// HadInterview reports whether the elicited question produced a story.
func (s *Session) HadInterview() bool {
	return s.BridgeStory != nil
}

// Terminal reports whether the session can make no further progress.
// Failed sessions are not terminal: they can be resumed from the last
// committed stage once the underlying failure clears.
func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusCancelled
}

// Clone returns a deep copy so store reads never alias live state.
func (s *Session) Clone() *Session {
	out := *s
	if s.PastWinners != nil {
		out.PastWinners = append([]string(nil), s.PastWinners...)
	}
	if s.Digest != nil {
		d := *s.Digest
		d.Bullets = make([]types.ResumeBullet, len(s.Digest.Bullets))
		for i, b := range s.Digest.Bullets {
			d.Bullets[i] = b
			d.Bullets[i].AssociatedCategories = append([]string(nil), b.AssociatedCategories...)
		}
		out.Digest = &d
	}
	if s.ValueModel != nil {
		m := *s.ValueModel
		m.PrimaryValues = append([]string(nil), s.ValueModel.PrimaryValues...)
		m.Weights = make(map[string]float64, len(s.ValueModel.Weights))
		for k, v := range s.ValueModel.Weights {
			m.Weights[k] = v
		}
		out.ValueModel = &m
	}
	if s.GapReport != nil {
		r := *s.GapReport
		r.Entries = append([]types.GapEntry(nil), s.GapReport.Entries...)
		if s.GapReport.TargetGap != nil {
			t := *s.GapReport.TargetGap
			r.TargetGap = &t
		}
		out.GapReport = &r
	}
	if s.BridgeStory != nil {
		b := *s.BridgeStory
		out.BridgeStory = &b
	}
	if s.OptimizedBullets != nil {
		out.OptimizedBullets = append([]types.OptimizedBullet(nil), s.OptimizedBullets...)
	}
	if s.Essay != nil {
		e := *s.Essay
		out.Essay = &e
	}
	if s.Outreach != nil {
		o := *s.Outreach
		out.Outreach = &o
	}
	if s.LastError != nil {
		le := *s.LastError
		out.LastError = &le
	}
	return &out
}
