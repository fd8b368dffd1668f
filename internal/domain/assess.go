package domain

import "fmt"

const (
	baseScore = 30

	minScore = 10
	maxScore = 98

	// Concrete built before these years predates the IS 1893 revisions.
	codeRevision1993 = 1993
	codeRevision2002 = 2002
)

var (
	groundFloorStiffness = RetrofitOption{
		ID:            "r_ogs",
		Name:          "Ground Floor Stiffness",
		Description:   "Adding shear walls or bracing to open parking level.",
		CostEstimate:  "₹15 Lakh - ₹20 Lakh",
		ROI:           9.5,
		RiskReduction: 60,
		Category:      Bracing,
	}
	seismicBands = RetrofitOption{
		ID:            "r_mud",
		Name:          "Seismic Bands",
		Description:   "Installing horizontal timber or RC bands at lintel and roof levels.",
		CostEstimate:  "₹3 Lakh",
		ROI:           9.0,
		RiskReduction: 75,
		Category:      Jacketing,
	}
	rcJacketing = RetrofitOption{
		ID:            "r1",
		Name:          "RC Jacketing",
		Description:   "Increasing column size with additional reinforcement (IS 15988).",
		CostEstimate:  "₹10 Lakh - ₹15 Lakh",
		ROI:           8.5,
		RiskReduction: 40,
		Category:      Jacketing,
	}
	shearWallAddition = RetrofitOption{
		ID:            "r2",
		Name:          "Shear Wall Addition",
		Description:   "New RC walls to resist lateral forces.",
		CostEstimate:  "₹20 Lakh - ₹35 Lakh",
		ROI:           8.0,
		RiskReduction: 60,
		Category:      Bracing,
	}
)

// Assess runs the additive point-scoring heuristic used when no analysis
// service is reachable. It is pure: equal inputs give equal outputs.
func Assess(cfg BuildingConfiguration) AnalysisResult {
	score := clamp(rawScore(cfg), minScore, maxScore)

	return AnalysisResult{
		VulnerabilityScore: score,
		Summary:            summarize(cfg, score),
		CriticalZones:      criticalZones(cfg),
		Recommendations:    recommend(cfg, score),
	}
}

// rawScore sums every contribution before clamping.
func rawScore(cfg BuildingConfiguration) float64 {
	score := float64(baseScore)
	score += typologyPoints(cfg.Typology)
	score += materialPoints(cfg.Material, cfg.Year)
	score += zonePoints(cfg.SeismicZone)
	if cfg.Floors > 3 {
		score += 15
	}
	return score
}

func typologyPoints(t Typology) float64 {
	switch t {
	case StiltApartment:
		return 30 // open ground storey
	case IndustrialShed:
		return -5
	case KutchaHouse:
		return 45
	case Temple:
		return 15
	default:
		return 0
	}
}

// materialPoints treats unreinforced masonry uniformly and ages concrete by
// code revision. Timber has no adjustment.
func materialPoints(m Material, year int) float64 {
	switch m {
	case Concrete:
		switch {
		case year < codeRevision1993:
			return 45
		case year < codeRevision2002:
			return 25
		default:
			return 0
		}
	case Masonry, Stone, MudMortar:
		return 55
	case Steel:
		return -10
	default:
		return 0
	}
}

func zonePoints(z SeismicZone) float64 {
	switch z {
	case ZoneIV:
		return 15
	case ZoneV:
		return 30
	default:
		return 0
	}
}

// recommend evaluates each rule in a fixed order; the order of the returned
// slice is part of the contract.
func recommend(cfg BuildingConfiguration, score float64) []RetrofitOption {
	recs := make([]RetrofitOption, 0, 4)
	if cfg.Typology == StiltApartment {
		recs = append(recs, groundFloorStiffness)
	}
	if cfg.Typology == KutchaHouse {
		recs = append(recs, seismicBands)
	}
	if score > 50 {
		recs = append(recs, rcJacketing)
	}
	if score > 70 && cfg.Typology != KutchaHouse {
		recs = append(recs, shearWallAddition)
	}
	return recs
}

func criticalZones(cfg BuildingConfiguration) []string {
	if cfg.Typology == StiltApartment {
		return []string{"Open Ground Storey (Parking)", "Beam-Column Joints"}
	}
	return []string{"Masonry Infills", "Connections"}
}

func summarize(cfg BuildingConfiguration, score float64) string {
	s := fmt.Sprintf("(Local Simulation) Analysis based on IS 1893 estimates a vulnerability score of %.0f/100.", score)
	if cfg.Typology == StiltApartment {
		s += " Open Ground Storey configuration detected as high risk."
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
