// Package domain models FEMA National Risk Index (NRI) data as served for a
// single map coordinate.
//
// # Data Source
//
// Risk indexes come from the LightBox risk-index API, which returns the NRI
// census-county record intersecting a WKT point buffered by 50 m. The risk API
// service flattens that record into a [RiskProfile] and serves it at
// /api/risk; the dashboard consumes the flattened form.
//
// # NRI Data Conventions
//
// Hazards:
//
//	The hazard set is closed: 18 NRI hazard types identified by camelCase
//	keys ("coastalFlooding", "strongWind", ...). [HazardNames] returns them in
//	the canonical enumeration order used wherever a stable order is needed.
//
// Scores:
//
//	hazardTypeRiskScore is the NRI hazard-type risk index score, 0–100.
//	A null score means the hazard is not applicable to the county (for
//	example tsunami in Texas). A score of 0 is a measured value and is kept.
//
// Missing values:
//
//	events, annualizedFrequency and annualLoss are null when NRI has no
//	estimate. The model keeps nil; presentation formats nil as zero.
//
// Community scores:
//
//	socialVulnerability and communityResilience are NRI percentile scores,
//	0–100, taken from the nested "score" field upstream.
//
// # Ranking
//
// [Rank] keeps hazards with a non-nil score, orders them by score descending
// (stable over the canonical order) and returns the top three. [DetailList]
// keeps the same hazards in canonical order.
package domain
