package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jamie/scholarship-tailor/internal/ingest"
	"github.com/jamie/scholarship-tailor/internal/session"
	"github.com/jamie/scholarship-tailor/internal/types"
)

var validate = validator.New()

// CreateSessionRequest is the POST /sessions body. Either the scholarship
// text or a URL to fetch it from must be present.
type CreateSessionRequest struct {
	ResumeSessionID string              `json:"resume_session_id" validate:"required"`
	ScholarshipURL  string              `json:"scholarship_url" validate:"omitempty,url"`
	ScholarshipText string              `json:"scholarship_text"`
	ScholarshipName string              `json:"scholarship_name"`
	Organization    string              `json:"organization"`
	Contact         string              `json:"contact"`
	WordLimit       int                 `json:"word_limit" validate:"omitempty,gt=0"`
	PastWinners     []string            `json:"past_winners"`
	ResumeDigest    *types.ResumeDigest `json:"resume_digest" validate:"required"`
}

// SessionResponse is the session projection returned to callers. The raw
// scholarship text is omitted; everything else the UI needs is here.
type SessionResponse struct {
	SessionID         uuid.UUID               `json:"session_id"`
	ResumeSessionID   string                  `json:"resume_session_id"`
	ScholarshipURL    string                  `json:"scholarship_url,omitempty"`
	Stage             session.Stage           `json:"stage"`
	Status            session.Status          `json:"status"`
	CreatedAt         string                  `json:"created_at"`
	MatchScore        float64                 `json:"match_score"`
	HadInterview      bool                    `json:"had_interview"`
	ValueModel        *types.ValueModel       `json:"value_model,omitempty"`
	GapReport         *types.GapReport        `json:"gap_report,omitempty"`
	InterviewQuestion string                  `json:"interview_question,omitempty"`
	OptimizedBullets  []types.OptimizedBullet `json:"optimized_bullets,omitempty"`
	Essay             *types.EssayDraft       `json:"essay,omitempty"`
	Outreach          *types.OutreachDraft    `json:"outreach,omitempty"`
	LastError         *session.StageError     `json:"last_error,omitempty"`
}

func toResponse(s *session.Session) SessionResponse {
	resp := SessionResponse{
		SessionID:        s.ID,
		ResumeSessionID:  s.ResumeSessionID,
		ScholarshipURL:   s.ScholarshipURL,
		Stage:            s.Stage,
		Status:           s.Status,
		CreatedAt:        s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		MatchScore:       s.MatchScore(),
		HadInterview:     s.HadInterview(),
		ValueModel:       s.ValueModel,
		GapReport:        s.GapReport,
		OptimizedBullets: s.OptimizedBullets,
		Outreach:         s.Outreach,
		LastError:        s.LastError,
	}
	// A parked interview needs its question; a completed session its essay.
	// Never expose a partial essay as final.
	if s.Stage == session.StageInterviewing && !s.InterviewAnswered {
		resp.InterviewQuestion = s.InterviewQuestion
	}
	if s.Status == session.StatusCompleted {
		resp.Essay = s.Essay
	}
	return resp
}

// handleCreateSession creates a session and runs the pipeline until it
// completes or parks at the interview.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.ScholarshipText) == "" && req.ScholarshipURL == "" {
		s.writeError(w, http.StatusBadRequest, "either scholarship_text or scholarship_url is required")
		return
	}

	ctx := r.Context()
	text := req.ScholarshipText
	if strings.TrimSpace(text) == "" {
		fetched, err := ingest.FetchScholarship(ctx, req.ScholarshipURL, nil)
		if err != nil {
			s.logger.Warn("scholarship fetch failed", zap.String("url", req.ScholarshipURL), zap.Error(err))
			s.writeErrorFrom(w, err)
			return
		}
		text = fetched
	}

	created, err := s.orchestrator.Create(ctx, session.CreateParams{
		ResumeSessionID: req.ResumeSessionID,
		OwnerID:         ownerFromContext(ctx),
		ScholarshipURL:  req.ScholarshipURL,
		ScholarshipText: text,
		ScholarshipName: req.ScholarshipName,
		Organization:    req.Organization,
		Contact:         req.Contact,
		WordLimit:       req.WordLimit,
		PastWinners:     req.PastWinners,
		Digest:          req.ResumeDigest,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	advanced, err := s.orchestrator.Advance(ctx, created.ID)
	if err != nil {
		s.writeErrorFrom(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toResponse(advanced))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(sess))
}

// InterviewAnswerRequest is the POST /sessions/{id}/interview-answer
// body. An empty answer is valid: the session proceeds without a story.
type InterviewAnswerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) handleInterviewAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	var req InterviewAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	advanced, err := s.orchestrator.SubmitAnswer(r.Context(), sess.ID, req.Answer)
	if err != nil {
		s.writeErrorFrom(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(advanced))
}

// OutreachRequest optionally overrides the ambiguities the email asks
// about; left empty they derive from the gap report.
type OutreachRequest struct {
	Ambiguities []string `json:"ambiguities"`
}

func (s *Server) handleOutreach(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	var req OutreachRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	updated, err := s.orchestrator.RequestOutreach(r.Context(), sess.ID, req.Ambiguities)
	if err != nil {
		s.writeErrorFrom(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(updated))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	cancelled, err := s.orchestrator.Cancel(r.Context(), sess.ID)
	if err != nil {
		s.writeErrorFrom(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(cancelled))
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	resumed, err := s.orchestrator.Resume(r.Context(), sess.ID)
	if err != nil {
		s.writeErrorFrom(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(resumed))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	resumeSessionID := r.PathValue("resume_session_id")
	if resumeSessionID == "" {
		s.writeError(w, http.StatusBadRequest, "resume_session_id is required")
		return
	}

	summaries, err := s.store.ListByResumeSession(r.Context(), resumeSessionID)
	if err != nil {
		s.writeErrorFrom(w, err)
		return
	}
	if summaries == nil {
		summaries = []session.Summary{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ownedSession loads the session from the path id and enforces ownership
// when authentication is enabled.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}

	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeErrorFrom(w, err)
		return nil, false
	}

	if owner := ownerFromContext(r.Context()); owner != "" && sess.OwnerID != "" && sess.OwnerID != owner {
		s.writeErrorFrom(w, &ErrForbidden{})
		return nil, false
	}
	return sess, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeErrorFrom(w http.ResponseWriter, err error) {
	s.writeError(w, HTTPStatus(err), err.Error())
}
