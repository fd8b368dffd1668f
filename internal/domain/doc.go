// Package domain implements seismic vulnerability scoring and the live
// structural-health estimate shown on the retrofit dashboard.
//
// # Vulnerability Score
//
// When the analysis service is unreachable, [Assess] scores a building with an
// additive heuristic. Points start at 30 and are adjusted by:
//
//	Typology:  StiltApartment +30 | KutchaHouse +45 | Temple +15 | IndustrialShed -5
//	Material:  Concrete +45 (built < 1993) or +25 (< 2002) | Masonry, Stone, MudMortar +55 | Steel -10
//	Zone:      Zone IV +15 | Zone V +30
//	Height:    more than 3 floors +15
//
// The sum is clamped to [10, 98]. Timber and occupancy carry no weight; the
// analysis service owns the richer model.
//
// The 1993 and 2002 cut-offs follow the IS 1893 (Criteria for Earthquake
// Resistant Design of Structures) revisions. Stilt apartments are penalised for
// their open ground storey, the soft-storey mechanism behind most RC collapses
// in Indian earthquakes.
//
// # Retrofit Recommendations
//
// Rules are evaluated in a fixed order and each appends at most one option:
//
//	StiltApartment              Ground Floor Stiffness  (bracing, 60%)
//	KutchaHouse                 Seismic Bands           (jacketing, 75%)
//	score > 50                  RC Jacketing            (jacketing, 40%)
//	score > 70, not KutchaHouse Shear Wall Addition     (bracing, 60%)
//
// Cost estimates are display strings in lakh rupees and are never parsed.
//
// # Live Health
//
// Each dashboard tick draws a synthetic [Sample] biased by the [SeismicLevel]
// and folds it into a [LiveState] with [Tick]:
//
//	riskFactor    = score / 100
//	stressPenalty = stress/100 * 20 * (1 + riskFactor)
//	health        = clamp(100 - score - stressPenalty, 0, 100)
//	threshold     = 5 * (1 - riskFactor)   g
//
// Vibration above the threshold trips emergency mode. Tick never clears it;
// only the operator or a fresh assessment does.
package domain
