package models

// Phase is the qualitative regime label of the manifold.
type Phase string

const (
	PhaseImpulseLegSharpening Phase = "impulse_leg_sharpening"
	PhaseSingularityForming   Phase = "singularity_forming"
	PhaseRicciFlowSmoothing   Phase = "ricci_flow_smoothing"
	PhaseAttractorConvergence Phase = "attractor_convergence"
	PhaseStableEquilibrium    Phase = "stable_equilibrium"
	PhaseCompressionBuilding  Phase = "compression_building"
)

// ConductorReading is the macro flow perspective over the whole composition.
type ConductorReading string

const (
	Crescendo        ConductorReading = "crescendo"
	Decrescendo      ConductorReading = "decrescendo"
	SustainedTension ConductorReading = "sustained_tension"
	RestPhase        ConductorReading = "rest_phase"
	Transitional     ConductorReading = "transitional"
)

// SingerReading is the micro flow perspective, the felt geometry of a phrase.
type SingerReading string

const (
	ResonantStable   SingerReading = "resonant_stable"
	TensionCrackling SingerReading = "tension_crackling"
	HarmoniousFlow   SingerReading = "harmonious_flow"
	DissonantStrain  SingerReading = "dissonant_strain"
)

// AttractorRef points at the attractor nearest the current price.
type AttractorRef struct {
	Price       float64
	Description string
}

// Interpretation is the complete qualitative reading of one metrics snapshot.
type Interpretation struct {
	Phase      Phase
	Confidence float64 // in (0,1]

	Conductor ConductorReading
	Singer    SingerReading

	CurvatureState     string
	TensionDescription string
	EntropyState       string

	WavePosition string

	NearestAttractor *AttractorRef
	PullStrength     float64

	Narrative string
	Warning   string // empty when no warning applies

	// Instantaneous inputs the diagnosis was made from.
	CurvatureValue float64
	EntropyValue   float64
	TensionValue   float64
}
