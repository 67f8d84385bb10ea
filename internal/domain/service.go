package domain

import "context"

// RiskService looks up the risk profile for a coordinate.
type RiskService interface {
	LookupRisk(ctx context.Context, c Coordinate) (RiskProfile, error)
}
