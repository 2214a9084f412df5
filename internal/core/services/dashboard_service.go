package services

import (
	"context"

	"e-nagarpalika-portal/internal/adapters/persistence/repositories"
	"e-nagarpalika-portal/internal/core/workflow"
)

// DashboardService counts applications per status bucket for a viewer
type DashboardService struct {
	repo   repositories.ApplicationRepository
	policy *workflow.Policy
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repo repositories.ApplicationRepository, policy *workflow.Policy) *DashboardService {
	return &DashboardService{repo: repo, policy: policy}
}

// DashboardData is the per-bucket summary shown on the dashboard
type DashboardData struct {
	Role   workflow.Role             `json:"role"`
	Total  int64                     `json:"total"`
	Counts map[workflow.Bucket]int64 `json:"counts"`
}

// GetDashboard returns counts through the same filters the listing uses, so
// every number matches what the viewer would see when opening that bucket.
func (s *DashboardService) GetDashboard(ctx context.Context, viewer workflow.Viewer) (*DashboardData, error) {
	total, err := s.count(ctx, viewer, workflow.BucketAll)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		Role:   viewer.Role,
		Total:  total,
		Counts: make(map[workflow.Bucket]int64, len(workflow.Buckets)),
	}
	for _, b := range workflow.Buckets {
		n, err := s.count(ctx, viewer, b)
		if err != nil {
			return nil, err
		}
		data.Counts[b] = n
	}
	return data, nil
}

func (s *DashboardService) count(ctx context.Context, viewer workflow.Viewer, b workflow.Bucket) (int64, error) {
	filter, err := s.policy.Plan(viewer, b)
	if err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, filter)
}
