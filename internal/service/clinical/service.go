package clinical

import (
	"context"
	"fmt"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/repository"
	"github.com/medbridge/portal-api/internal/service/risk"
)

// Service handles clinical intake. Every committed vitals or lab write
// triggers a risk recomputation for the patient.
type Service struct {
	repo    repository.ClinicalRepository
	riskSvc *risk.Service
}

func NewService(repo repository.ClinicalRepository, riskSvc *risk.Service) *Service {
	return &Service{repo: repo, riskSvc: riskSvc}
}

func (s *Service) RecordVitals(ctx context.Context, req *model.CreateVitalsRequest) (*model.VitalsRecord, error) {
	v := &model.VitalsRecord{
		PatientID:   req.PatientID,
		HeartRate:   req.HeartRate,
		SystolicBP:  req.SystolicBP,
		DiastolicBP: req.DiastolicBP,
	}
	if err := s.repo.CreateVitals(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to store vitals: %w", err)
	}

	if err := s.riskSvc.Recompute(ctx, req.PatientID); err != nil {
		return nil, fmt.Errorf("failed to recompute risk: %w", err)
	}
	return v, nil
}

func (s *Service) RecordLabReport(ctx context.Context, req *model.CreateLabReportRequest) (*model.LabReport, error) {
	report := &model.LabReport{
		PatientID: req.PatientID,
		Results:   req.Results,
	}
	if err := s.repo.CreateLabReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store lab report: %w", err)
	}

	if err := s.riskSvc.Recompute(ctx, req.PatientID); err != nil {
		return nil, fmt.Errorf("failed to recompute risk: %w", err)
	}
	return report, nil
}
