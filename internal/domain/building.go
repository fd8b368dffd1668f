package domain

// Typology is the structural archetype of a building.
type Typology string

const (
	StiltApartment   Typology = "StiltApartment"
	IndianApartment  Typology = "IndianApartment"
	KutchaHouse      Typology = "KutchaHouse"
	ModernHighRise   Typology = "ModernHighRise"
	Temple           Typology = "Temple"
	IndustrialShed   Typology = "IndustrialShed"
	IndependentHouse Typology = "IndependentHouse"
)

// Typologies lists every known typology in display order.
var Typologies = []Typology{
	StiltApartment, IndianApartment, KutchaHouse, ModernHighRise,
	Temple, IndustrialShed, IndependentHouse,
}

// Material is the primary load-bearing material.
type Material string

const (
	Concrete  Material = "Concrete"
	Steel     Material = "Steel"
	Masonry   Material = "Masonry"
	Timber    Material = "Timber"
	MudMortar Material = "MudMortar"
	Stone     Material = "Stone"
)

// Materials lists every known material.
var Materials = []Material{Concrete, Steel, Masonry, Timber, MudMortar, Stone}

// SeismicZone follows the IS 1893 zoning, in increasing hazard.
type SeismicZone string

const (
	ZoneII  SeismicZone = "Zone II"
	ZoneIII SeismicZone = "Zone III"
	ZoneIV  SeismicZone = "Zone IV"
	ZoneV   SeismicZone = "Zone V"
)

// SeismicZones lists the zones from lowest to highest hazard.
var SeismicZones = []SeismicZone{ZoneII, ZoneIII, ZoneIV, ZoneV}

// Rank orders zones by hazard (II=2 ... V=5). Unknown zones rank 0.
func (z SeismicZone) Rank() int {
	switch z {
	case ZoneII:
		return 2
	case ZoneIII:
		return 3
	case ZoneIV:
		return 4
	case ZoneV:
		return 5
	default:
		return 0
	}
}

// Occupancy is the primary use of the building.
type Occupancy string

const (
	Residential   Occupancy = "Residential"
	Commercial    Occupancy = "Commercial"
	Industrial    Occupancy = "Industrial"
	Religious     Occupancy = "Religious"
	Institutional Occupancy = "Institutional"
)

// Occupancies lists every known occupancy.
var Occupancies = []Occupancy{Residential, Commercial, Industrial, Religious, Institutional}

// BuildingConfiguration is the structural profile submitted for assessment.
// It serializes as the flat record expected by the analysis service.
type BuildingConfiguration struct {
	Year        int         `json:"year"`
	Typology    Typology    `json:"typology"`
	Material    Material    `json:"material"`
	Floors      int         `json:"floors"`
	SeismicZone SeismicZone `json:"seismicZone"`
	Occupancy   Occupancy   `json:"occupancy"`

	// Forwarded to the analysis service; the local heuristic ignores them.
	LastInspection    string `json:"lastInspection,omitempty"`
	ConcreteStrength  *int   `json:"concreteStrength,omitempty"`  // psi
	SteelGrade        *int   `json:"steelGrade,omitempty"`        // ksi
	ElasticityModulus *int   `json:"elasticityModulus,omitempty"` // GPa
}

// DefaultConfiguration returns the profile a new dashboard starts from.
func DefaultConfiguration() BuildingConfiguration {
	concreteStrength := 2500
	elasticity := 25
	return BuildingConfiguration{
		Year:              1998,
		Typology:          StiltApartment,
		Material:          Concrete,
		Floors:            5,
		SeismicZone:       ZoneIV,
		Occupancy:         Residential,
		LastInspection:    "2023-01-15",
		ConcreteStrength:  &concreteStrength,
		ElasticityModulus: &elasticity,
	}
}

// RetrofitCategory groups retrofit interventions by mechanism.
type RetrofitCategory string

const (
	Bracing   RetrofitCategory = "bracing"
	Isolation RetrofitCategory = "isolation"
	Jacketing RetrofitCategory = "jacketing"
	Damping   RetrofitCategory = "damping"
)

// RetrofitCategories lists every known category.
var RetrofitCategories = []RetrofitCategory{Bracing, Isolation, Jacketing, Damping}

// Valid reports whether c is one of the four known categories.
func (c RetrofitCategory) Valid() bool {
	switch c {
	case Bracing, Isolation, Jacketing, Damping:
		return true
	default:
		return false
	}
}

// RetrofitOption is a single recommended intervention.
type RetrofitOption struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	CostEstimate  string           `json:"costEstimate"` // display-only range, e.g. "₹3 Lakh"
	ROI           float64          `json:"roi"`
	RiskReduction float64          `json:"riskReduction"`
	Category      RetrofitCategory `json:"type"`
}

// AnalysisResult is the outcome of one assessment. Recommendations is never nil.
type AnalysisResult struct {
	VulnerabilityScore float64          `json:"vulnerabilityScore"`
	Summary            string           `json:"summary"`
	CriticalZones      []string         `json:"criticalZones"`
	Recommendations    []RetrofitOption `json:"recommendations"`
}

// RiskLevel buckets a vulnerability score for display.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "SAFE"
	RiskModerate RiskLevel = "MODERATE"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevelFor maps a vulnerability score to a display bucket.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score < 40:
		return RiskSafe
	case score < 70:
		return RiskModerate
	default:
		return RiskCritical
	}
}
