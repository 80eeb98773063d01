package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// AssistService wraps the AI oracle for the two text-generation surfaces:
// rejection feedback for recruiters and career strategy for candidates. The
// oracle is advisory; when it fails the service degrades to deterministic
// boilerplate instead of surfacing the error.
type AssistService struct {
	AI domain.AIClient
}

// NewAssistService constructs an AssistService with the given oracle.
func NewAssistService(ai domain.AIClient) AssistService { return AssistService{AI: ai} }

// RejectionFeedback drafts a constructive rejection message for a candidate.
func (s AssistService) RejectionFeedback(ctx domain.Context, req domain.FeedbackRequest) (string, error) {
	if strings.TrimSpace(req.CandidateName) == "" || strings.TrimSpace(req.JobTitle) == "" {
		return "", fmt.Errorf("%w: candidate name and job title required", domain.ErrInvalidArgument)
	}
	text, err := s.AI.GenerateRejectionFeedback(ctx, req)
	if err != nil {
		slog.Warn("rejection feedback generation failed, using fallback", slog.Any("error", err))
		return fallbackRejection(req), nil
	}
	return text, nil
}

// CareerStrategy drafts a growth plan toward the target role.
func (s AssistService) CareerStrategy(ctx domain.Context, currentSkills []string, targetRole string) (string, error) {
	if strings.TrimSpace(targetRole) == "" {
		return "", fmt.Errorf("%w: target role required", domain.ErrInvalidArgument)
	}
	text, err := s.AI.GenerateCareerStrategy(ctx, currentSkills, targetRole)
	if err != nil {
		slog.Warn("career strategy generation failed, using fallback", slog.Any("error", err))
		return fallbackStrategy(targetRole), nil
	}
	return text, nil
}

func fallbackRejection(req domain.FeedbackRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", req.CandidateName)
	fmt.Fprintf(&b, "Thank you for your interest in the %s position. After careful consideration, we have decided to move forward with other candidates at this time.", req.JobTitle)
	if len(req.Reasons) > 0 {
		b.WriteString(" In particular, we were looking for stronger alignment on: ")
		b.WriteString(strings.Join(req.Reasons, ", "))
		b.WriteString(".")
	}
	b.WriteString("\n\nWe encourage you to apply for future openings that match your experience.\n\nBest regards")
	return b.String()
}

func fallbackStrategy(targetRole string) string {
	return fmt.Sprintf("To grow toward a %s role: deepen the core skills the role demands, "+
		"take on projects that exercise them end to end, and seek feedback from people already in the role. "+
		"Revisit this plan quarterly and adjust based on what interviews tell you.", targetRole)
}
