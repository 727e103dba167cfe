package reassignment

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"fiscaltask/internal/models"
	dErrors "fiscaltask/pkg/domain-errors"
	"fiscaltask/pkg/requestcontext"
)

// SweepActiveAbsences reassigns the work of every collaborator with an
// active absence covering today. One absence failing does not stop the rest.
func (s *Service) SweepActiveAbsences(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "reassignment.SweepActiveAbsences")
	defer span.End()

	today := requestcontext.Now(ctx)
	absences, err := s.store.ListActiveAbsences(ctx, today)
	if err != nil {
		s.observe("error", start)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load active absences")
	}

	result := &SweepResult{}
	for _, absence := range absences {
		res, err := s.Reassign(ctx, absence.CollaboratorID, absence.SubstituteID)
		if err != nil {
			result.Issues.Add(models.IssueItemFailure, "absence "+absence.ID.String(), "reassign collaborator", err)
			continue
		}
		result.AbsencesProcessed++
		result.TotalReassigned += res.Reassigned
		for _, issue := range res.Issues {
			issue.Subject = fmt.Sprintf("absence %s: %s", absence.ID, issue.Subject)
			result.Issues = append(result.Issues, issue)
		}
	}
	result.Success = !result.Issues.Failed()
	result.Errors = result.Issues.Strings()
	span.SetAttributes(
		attribute.Int("absences", len(absences)),
		attribute.Int("reassigned", result.TotalReassigned),
	)

	entry := models.SystemLogEntry{
		Kind:    models.LogAbsenceSweep,
		Message: fmt.Sprintf("processed %d absences, reassigned %d tasks", result.AbsencesProcessed, result.TotalReassigned),
		Metadata: map[string]any{
			"absences_processed": result.AbsencesProcessed,
			"total_reassigned":   result.TotalReassigned,
			"success":            result.Success,
			"errors":             result.Errors,
		},
		CreatedAt: today,
	}
	if err := s.store.AppendSystemLog(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to write absence sweep system log", "error", err)
	}
	s.logger.InfoContext(ctx, "absence sweep finished",
		"absences", len(absences),
		"absences_processed", result.AbsencesProcessed,
		"total_reassigned", result.TotalReassigned,
		"success", result.Success,
	)
	return result, nil
}
