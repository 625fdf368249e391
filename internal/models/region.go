package models

// State is a base state row as stored, without the aggregated fields.
type State struct {
	ID          int     `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Capital     *string `json:"capital,omitempty" db:"capital"`
	Population  *int64  `json:"population,omitempty" db:"population"`
	AreaSqKm    *int64  `json:"area_sq_km,omitempty" db:"area_sq_km"`
	Language    *string `json:"language,omitempty" db:"language"`
	Formed      *string `json:"formed,omitempty" db:"formed"`
	Description *string `json:"description,omitempty" db:"description"`
}

// ChiefMinister is the cm sub-object attached to a state response. Photo and
// bio may be absent in the store; they serialize as null, not as omitted keys.
type ChiefMinister struct {
	Name  string  `json:"name"`
	Photo *string `json:"photo"`
	Bio   *string `json:"bio"`
}

// District belongs to exactly one state and one division.
type District struct {
	ID           int     `json:"id" db:"id"`
	State        string  `json:"state" db:"state"`
	Name         string  `json:"name" db:"name"`
	Division     string  `json:"division" db:"division"`
	Headquarters *string `json:"headquarters,omitempty" db:"headquarters"`
	Population   *int64  `json:"population,omitempty" db:"population"`
	AreaSqKm     *int64  `json:"area_sq_km,omitempty" db:"area_sq_km"`
	Description  *string `json:"description,omitempty" db:"description"`
}

// DistrictRef is the (name, division) projection used for grouping.
type DistrictRef struct {
	Name     string `db:"name"`
	Division string `db:"division"`
}

// StateInfo is the merged state response: all state columns plus the cm,
// the division-grouped district list, and the total district count.
type StateInfo struct {
	State
	CM            *ChiefMinister      `json:"cm"`
	DistrictList  map[string][]string `json:"districtList"`
	DistrictCount int                 `json:"districts"`
}
