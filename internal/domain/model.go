package domain

// BuildingModel describes how the dashboard should draw a building. The
// renderer itself lives in the browser; this is the data it is driven by.
type BuildingModel struct {
	Variant     string `json:"variant"`
	Storeys     int    `json:"storeys"`
	OpenGround  bool   `json:"openGround"`  // soft storey drawn without infill
	PitchedRoof bool   `json:"pitchedRoof"` // sloped or shikara roof
}

type modelBuilder func(floors int) BuildingModel

// modelBuilders is resolved once per snapshot instead of switching on the
// typology wherever a model is needed.
var modelBuilders = map[Typology]modelBuilder{
	StiltApartment: func(floors int) BuildingModel {
		return BuildingModel{Variant: "stilt-apartment", Storeys: floors, OpenGround: true}
	},
	IndianApartment: func(floors int) BuildingModel {
		return BuildingModel{Variant: "apartment", Storeys: floors}
	},
	KutchaHouse: func(int) BuildingModel {
		return BuildingModel{Variant: "kutcha-house", Storeys: 1, PitchedRoof: true}
	},
	ModernHighRise: func(floors int) BuildingModel {
		return BuildingModel{Variant: "high-rise", Storeys: floors}
	},
	Temple: func(int) BuildingModel {
		return BuildingModel{Variant: "temple", Storeys: 1, PitchedRoof: true}
	},
	IndustrialShed: func(int) BuildingModel {
		return BuildingModel{Variant: "industrial-shed", Storeys: 1, PitchedRoof: true}
	},
	IndependentHouse: func(floors int) BuildingModel {
		return BuildingModel{Variant: "house", Storeys: min(floors, 3)}
	},
}

// ModelFor returns the model for cfg, falling back to a generic block for
// unknown typologies.
func ModelFor(cfg BuildingConfiguration) BuildingModel {
	floors := max(cfg.Floors, 1)
	if build, ok := modelBuilders[cfg.Typology]; ok {
		return build(floors)
	}
	return BuildingModel{Variant: "generic", Storeys: floors}
}
