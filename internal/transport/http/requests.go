package httptransport

import (
	"fiscaltask/internal/models"
	"fiscaltask/internal/risk"
	id "fiscaltask/pkg/domain"
	dErrors "fiscaltask/pkg/domain-errors"
)

type GenerateRequest struct {
	Period     string `json:"period"`
	TaxpayerID string `json:"taxpayer_id,omitempty"`
}

// Parse returns the optional taxpayer scope. Period validation is left to
// the generation engine.
func (r GenerateRequest) Parse() (*id.TaxpayerID, error) {
	if r.Period == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "period is required")
	}
	if r.TaxpayerID == "" {
		return nil, nil
	}
	tid, err := id.ParseTaxpayerID(r.TaxpayerID)
	if err != nil {
		return nil, err
	}
	return &tid, nil
}

type ReassignRequest struct {
	CollaboratorID string `json:"collaborator_id"`
	SubstituteID   string `json:"substitute_id,omitempty"`
}

func (r ReassignRequest) Parse() (id.UserID, *id.UserID, error) {
	if r.CollaboratorID == "" {
		return id.UserID{}, nil, dErrors.New(dErrors.CodeBadRequest, "collaborator_id is required")
	}
	collaborator, err := id.ParseUserID(r.CollaboratorID)
	if err != nil {
		return id.UserID{}, nil, err
	}
	if r.SubstituteID == "" {
		return collaborator, nil, nil
	}
	substitute, err := id.ParseUserID(r.SubstituteID)
	if err != nil {
		return id.UserID{}, nil, err
	}
	return collaborator, &substitute, nil
}

type OverrideRequest struct {
	AtRisk *bool `json:"at_risk"`
}

func (r OverrideRequest) Validate() error {
	if r.AtRisk == nil {
		return dErrors.New(dErrors.CodeBadRequest, "at_risk is required")
	}
	return nil
}

type RiskSettingsRequest struct {
	ThresholdDays *int  `json:"threshold_days"`
	Enabled       *bool `json:"enabled"`
}

func (r RiskSettingsRequest) Validate() error {
	if r.ThresholdDays == nil || r.Enabled == nil {
		return dErrors.New(dErrors.CodeBadRequest, "threshold_days and enabled are required")
	}
	return nil
}

type AutoGenerationRequest struct {
	Enabled *bool `json:"enabled"`
	RunDay  *int  `json:"run_day"`
}

func (r AutoGenerationRequest) Validate() error {
	if r.Enabled == nil || r.RunDay == nil {
		return dErrors.New(dErrors.CodeBadRequest, "enabled and run_day are required")
	}
	return nil
}

type AtRiskTasksResponse struct {
	Tasks []risk.AtRiskTask `json:"tasks"`
	Total int               `json:"total"`
}

type ClientRiskCount struct {
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
	Count      int    `json:"count"`
}

func toClientCounts(counts []models.ClientRiskCount) []ClientRiskCount {
	out := make([]ClientRiskCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, ClientRiskCount{ClientID: c.ClientID.String(), ClientName: c.ClientName, Count: c.Count})
	}
	return out
}
