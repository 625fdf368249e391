package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gsharma/indiainfo/internal/models"
)

// RegionRepository defines the interface for state, chief-minister, and
// district lookups.
type RegionRepository interface {
	GetStateByName(ctx context.Context, name string) (*models.State, error)
	GetCMByState(ctx context.Context, state string) (*models.ChiefMinister, error)
	ListDistrictRefs(ctx context.Context, state string) ([]models.DistrictRef, error)
	GetDistrict(ctx context.Context, state, name string) (*models.District, error)
}

type regionRepo struct {
	pool *pgxpool.Pool
}

// NewRegionRepository creates a new region repository.
func NewRegionRepository(pool *pgxpool.Pool) RegionRepository {
	return &regionRepo{pool: pool}
}

// GetStateByName retrieves a state row by exact name match.
// The states table enforces name uniqueness.
func (r *regionRepo) GetStateByName(ctx context.Context, name string) (*models.State, error) {
	query := `
		SELECT id, name, capital, population, area_sq_km, language, formed, description
		FROM states WHERE name = $1`

	var state models.State
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&state.ID,
		&state.Name,
		&state.Capital,
		&state.Population,
		&state.AreaSqKm,
		&state.Language,
		&state.Formed,
		&state.Description,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// GetCMByState retrieves a chief-minister row by case-insensitive state match.
func (r *regionRepo) GetCMByState(ctx context.Context, state string) (*models.ChiefMinister, error) {
	query := `SELECT name, photo, bio FROM cms WHERE LOWER(state) = LOWER($1)`

	var cm models.ChiefMinister
	err := r.pool.QueryRow(ctx, query, state).Scan(&cm.Name, &cm.Photo, &cm.Bio)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

// ListDistrictRefs retrieves the (name, division) pairs for a state in
// store order.
func (r *regionRepo) ListDistrictRefs(ctx context.Context, state string) ([]models.DistrictRef, error) {
	query := `SELECT name, division FROM districts WHERE state = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []models.DistrictRef
	for rows.Next() {
		var ref models.DistrictRef
		if err := rows.Scan(&ref.Name, &ref.Division); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// GetDistrict retrieves a district by exact state and name match.
func (r *regionRepo) GetDistrict(ctx context.Context, state, name string) (*models.District, error) {
	query := `
		SELECT id, state, name, division, headquarters, population, area_sq_km, description
		FROM districts WHERE state = $1 AND name = $2`

	var d models.District
	err := r.pool.QueryRow(ctx, query, state, name).Scan(
		&d.ID,
		&d.State,
		&d.Name,
		&d.Division,
		&d.Headquarters,
		&d.Population,
		&d.AreaSqKm,
		&d.Description,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Compile-time check to ensure regionRepo implements RegionRepository.
var _ RegionRepository = (*regionRepo)(nil)
