package ai

import (
	"fmt"
	"strings"

	"github.com/clearpathhq/clearpath/internal/domain"
	"github.com/clearpathhq/clearpath/pkg/textx"
)

func rejectionPrompts(req domain.FeedbackRequest) (system, user string) {
	system = "You are a recruiting assistant who writes candidate rejection feedback. " +
		"Be specific, respectful, and constructive. Address the candidate directly. " +
		"Do not invent facts beyond the provided reasons. Keep it under 200 words."

	tone := req.Tone
	if tone == "" {
		tone = "professional and encouraging"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Candidate: %s\n", textx.Sanitize(req.CandidateName))
	fmt.Fprintf(&b, "Role applied for: %s\n", textx.Sanitize(req.JobTitle))
	fmt.Fprintf(&b, "Tone: %s\n", textx.Sanitize(tone))
	b.WriteString("Reasons for the decision:\n")
	for _, r := range req.Reasons {
		fmt.Fprintf(&b, "- %s\n", textx.Sanitize(r))
	}
	b.WriteString("\nWrite the rejection feedback message.")
	return system, b.String()
}

func strategyPrompts(currentSkills []string, targetRole string) (system, user string) {
	system = "You are a career coach for software and technology professionals. " +
		"Given a candidate's current skills and target role, produce a concrete " +
		"development plan: skill gaps, learning priorities in order, and the kinds " +
		"of projects that demonstrate readiness. Keep it under 300 words."

	var b strings.Builder
	fmt.Fprintf(&b, "Target role: %s\n", textx.Sanitize(targetRole))
	b.WriteString("Current skills:\n")
	for _, s := range currentSkills {
		fmt.Fprintf(&b, "- %s\n", textx.Sanitize(s))
	}
	b.WriteString("\nWrite the career strategy.")
	return system, b.String()
}

func matchPrompts(cand domain.ExternalCandidate, job domain.Job) (system, user string) {
	system = "You are a technical sourcing analyst. Score how well a candidate " +
		"profile matches a job on a 0-100 scale, where 0 is no overlap and 100 is " +
		"an exceptional fit. Respond with strict JSON only, no markdown, in the " +
		`form {"score": <number>, "reason": "<one sentence>"}.`

	var b strings.Builder
	b.WriteString("Job:\n")
	fmt.Fprintf(&b, "Title: %s\n", textx.Sanitize(job.Title))
	fmt.Fprintf(&b, "Company: %s\n", textx.Sanitize(job.Company))
	fmt.Fprintf(&b, "Description: %s\n", textx.ClampLen(textx.Sanitize(job.Description), 2000))
	if len(job.Requirements) > 0 {
		fmt.Fprintf(&b, "Requirements: %s\n", textx.Sanitize(strings.Join(job.Requirements, "; ")))
	}
	b.WriteString("\nCandidate:\n")
	fmt.Fprintf(&b, "Name: %s\n", textx.Sanitize(cand.Name))
	fmt.Fprintf(&b, "Current role: %s\n", textx.Sanitize(cand.CurrentRole))
	fmt.Fprintf(&b, "Experience: %s\n", textx.Sanitize(cand.Experience))
	fmt.Fprintf(&b, "Skills: %s\n", textx.Sanitize(strings.Join(cand.Skills, ", ")))
	b.WriteString("\nScore this pairing.")
	return system, b.String()
}
