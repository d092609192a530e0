// Package outreach drafts a short clarifying email to the awarding
// organization. It runs only on explicit request, never as part of the
// linear pipeline.
package outreach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/prompts"
	"github.com/jamie/scholarship-tailor/internal/schemas"
	"github.com/jamie/scholarship-tailor/internal/types"
)

const outreachSchema = `{
	"type": "object",
	"required": ["subject", "body"],
	"properties": {
		"subject": {"type": "string", "minLength": 1},
		"body": {"type": "string", "minLength": 1}
	}
}`

// Request carries what the drafter knows about the scholarship and the
// student. Contact may be empty; the email then opens with a generic
// salutation.
type Request struct {
	ScholarshipName string
	Organization    string
	Contact         string
	Ambiguities     []string
	StudentContext  string
}

type outreachResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DraftEmail produces the clarifying email. Ambiguities usually come from
// the gap report's uncovered entries but callers may pass explicit notes.
func DraftEmail(ctx context.Context, client llm.Client, req Request) (*types.OutreachDraft, error) {
	if len(req.Ambiguities) == 0 {
		return nil, &DraftError{Message: "no ambiguities to ask about"}
	}

	salutation := strings.TrimSpace(req.Contact)
	if salutation == "" {
		salutation = "Scholarship Committee"
	}

	var ambiguities strings.Builder
	for _, a := range req.Ambiguities {
		fmt.Fprintf(&ambiguities, "- %s\n", a)
	}

	prompt := prompts.Format(
		prompts.MustGet("outreach.json", "draft-outreach"),
		map[string]string{
			"ScholarshipName": req.ScholarshipName,
			"Organization":    req.Organization,
			"Salutation":      salutation,
			"Ambiguities":     ambiguities.String(),
			"StudentContext":  req.StudentContext,
		},
	)

	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &DraftError{Message: "generation call failed", Cause: err}
	}

	cleaned := llm.CleanJSONBlock(responseText)
	if err := schemas.ValidateJSONString(outreachSchema, cleaned); err != nil {
		return nil, &DraftError{Message: "response failed schema validation", Cause: err}
	}

	var resp outreachResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, &DraftError{Message: "failed to parse response JSON", Cause: err}
	}

	draft := &types.OutreachDraft{Subject: resp.Subject, Body: resp.Body}
	if err := draft.Validate(); err != nil {
		return nil, &DraftError{Message: "draft failed contract check", Cause: err}
	}
	return draft, nil
}

// AmbiguitiesFromReport lists the uncovered gap entries as clarifying
// questions when the caller supplies none of its own.
func AmbiguitiesFromReport(report *types.GapReport) []string {
	if report == nil {
		return nil
	}
	var out []string
	for _, e := range report.UncoveredEntries() {
		out = append(out, fmt.Sprintf("How heavily does the committee weigh %s, and what evidence of it do past winners typically show?", e.Category))
	}
	return out
}
