// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gsharma/indiainfo/internal/models"
	apierrors "github.com/gsharma/indiainfo/internal/pkg/errors"
	"github.com/gsharma/indiainfo/internal/repository"
)

// RegionService exposes the state and district lookup operations.
type RegionService interface {
	// GetStateInfo returns the merged state record: base columns, chief
	// minister, and the division-grouped district list.
	GetStateInfo(ctx context.Context, name string) (*models.StateInfo, error)

	// GetDistrictInfo returns a single district, scoped by state and name.
	GetDistrictInfo(ctx context.Context, state, district string) (*models.District, error)
}

type regionService struct {
	repo      repository.RegionRepository
	overrides CMOverrides
}

// NewRegionService creates a new region service with the given override table.
func NewRegionService(repo repository.RegionRepository, overrides CMOverrides) RegionService {
	return &regionService{
		repo:      repo,
		overrides: overrides,
	}
}

// GetStateInfo performs the three-step dependent lookup: state row, chief
// minister, districts. The queries run sequentially; none depends on another's
// data, only the state row gate. A failure in any step fails the whole request,
// never a partial result.
func (s *regionService) GetStateInfo(ctx context.Context, name string) (*models.StateInfo, error) {
	state, err := s.repo.GetStateByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("state lookup failed: %w", err)
	}
	if state == nil {
		return nil, apierrors.NewNotFoundError("State")
	}

	info := &models.StateInfo{State: *state}

	cm, err := s.repo.GetCMByState(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("cm lookup failed: %w", err)
	}
	info.CM = cm

	// The override table wins over the cms row unconditionally.
	if override, ok := s.overrides[strings.ToLower(name)]; ok {
		cm := override
		info.CM = &cm
	}

	refs, err := s.repo.ListDistrictRefs(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("district lookup failed: %w", err)
	}

	info.DistrictList = groupByDivision(refs)
	info.DistrictCount = len(refs)

	return info, nil
}

// groupByDivision buckets district names by division, preserving store order
// within each group.
func groupByDivision(refs []models.DistrictRef) map[string][]string {
	grouped := make(map[string][]string)
	for _, ref := range refs {
		grouped[ref.Division] = append(grouped[ref.Division], ref.Name)
	}
	return grouped
}

func (s *regionService) GetDistrictInfo(ctx context.Context, state, district string) (*models.District, error) {
	d, err := s.repo.GetDistrict(ctx, state, district)
	if err != nil {
		return nil, fmt.Errorf("district lookup failed: %w", err)
	}
	if d == nil {
		return nil, apierrors.NewNotFoundError("District")
	}
	return d, nil
}

// Compile-time check to ensure regionService implements RegionService.
var _ RegionService = (*regionService)(nil)
