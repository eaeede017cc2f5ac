package models

// Migrated lists every table the API owns or reads, in migration order. The
// grid table is shared with the grid worker, so the API creates it too.
func Migrated() []any {
	return []any{&User{}, &EstimateRecord{}, &RiskGridCell{}}
}
