// Package interpreter turns a metrics snapshot into a qualitative
// reading: a phase diagnosis, dual conductor/singer perspectives,
// banded descriptions, attractor pull, narrative and warning. It is a
// pure overlay over the engine output and never fails; any finite
// input yields a best-effort interpretation.
package interpreter

import (
	"fmt"
	"math"

	"ManifoldPulse/internal/domain/models"
)

// Thresholds calibrated for the manifold methodology. They have no
// derivation from data; treat them as tunable constants.
const (
	SingularityThreshold = 2.0 // curvature "too tight"
	HighTensionThreshold = 1.5 // tension needs release
	HighEntropyThreshold = 6.0 // market is "frothy"

	impulseCurvature   = 0.5
	impulseTension     = 0.7
	impulseFlowCeiling = 0.3
	smoothingFlow      = 0.5
	smoothingTension   = 0.5
	compressionTension = 1.0
	calmCurvature      = 0.3
	calmTension        = 0.5
	calmEntropy        = 4.0

	trendWindow      = 20
	confidenceWindow = 10
)

type Interpreter struct{}

func New() *Interpreter { return &Interpreter{} }

// Interpret reads the latest state of a snapshot and returns the full
// diagnosis. It never returns an error; degenerate inputs fall through
// to the default attractor-convergence reading.
func (in *Interpreter) Interpret(m *models.ManifoldMetrics) *models.Interpretation {
	curvature := last(m.Curvature)
	entropy := last(m.LocalEntropy)
	tension := last(m.Tension)
	flow := last(m.RicciFlow)
	price := m.LastPrice()

	phase := diagnosePhase(curvature, entropy, tension, flow)
	conductor := conductorPerspective(m)
	singer := singerPerspective(curvature, tension, entropy)

	curvatureState := describeCurvature(curvature, m.Curvature)
	tensionDesc := describeTension(tension)
	entropyState := describeEntropy(entropy)

	nearest, pull := analyzeAttractorPull(price, m.Attractors)

	out := &models.Interpretation{
		Phase:              phase,
		Confidence:         confidence(m),
		Conductor:          conductor,
		Singer:             singer,
		CurvatureState:     curvatureState,
		TensionDescription: tensionDesc,
		EntropyState:       entropyState,
		WavePosition:       estimateWavePosition(phase),
		NearestAttractor:   nearest,
		PullStrength:       pull,
		Narrative:          composeNarrative(phase, conductor, singer, curvatureState, tensionDesc, entropyState),
		Warning:            generateWarning(phase, tension, len(m.Singularities)),
		CurvatureValue:     curvature,
		EntropyValue:       entropy,
		TensionValue:       tension,
	}
	return out
}

// diagnosePhase is the ordered precedence cascade; the first matching
// rule wins, so threshold tuning stays auditable in isolation.
func diagnosePhase(curvature, entropy, tension, flow float64) models.Phase {
	absCurv := math.Abs(curvature)
	absTens := math.Abs(tension)
	absFlow := math.Abs(flow)

	switch {
	case absCurv > SingularityThreshold && absTens > HighTensionThreshold:
		return models.PhaseSingularityForming
	case absFlow > smoothingFlow && absTens > smoothingTension:
		return models.PhaseRicciFlowSmoothing
	case absCurv > impulseCurvature && absTens > impulseTension && absFlow < impulseFlowCeiling:
		return models.PhaseImpulseLegSharpening
	case absTens > compressionTension && absCurv < impulseCurvature:
		return models.PhaseCompressionBuilding
	case absCurv < calmCurvature && absTens < calmTension && entropy < calmEntropy:
		return models.PhaseStableEquilibrium
	default:
		return models.PhaseAttractorConvergence
	}
}

// conductorPerspective reads the macro flow of the whole composition
// from the trailing trend of tension and curvature.
func conductorPerspective(m *models.ManifoldMetrics) models.ConductorReading {
	tensionTrend := trailingDiffMean(m.Tension, trendWindow)
	curvatureTrend := trailingDiffMean(m.Curvature, trendWindow)

	currentTension := math.Abs(last(m.Tension))
	currentEntropy := last(m.LocalEntropy)

	switch {
	case tensionTrend > 0 && curvatureTrend > 0:
		return models.Crescendo
	case tensionTrend < 0 && currentTension > 1.0:
		return models.Decrescendo
	case currentTension > 1.0 && math.Abs(tensionTrend) < 0.1:
		return models.SustainedTension
	case currentTension < 0.5 && currentEntropy < calmEntropy:
		return models.RestPhase
	default:
		return models.Transitional
	}
}

// singerPerspective is the felt sense of the current phrase: resonance
// versus a note about to crack.
func singerPerspective(curvature, tension, entropy float64) models.SingerReading {
	absCurv := math.Abs(curvature)
	absTens := math.Abs(tension)

	switch {
	case absTens > HighTensionThreshold || absCurv > SingularityThreshold:
		return models.TensionCrackling
	case absTens > 1.0 && entropy > HighEntropyThreshold:
		return models.DissonantStrain
	case absCurv < 0.5 && absTens < 0.7 && entropy < 5.0:
		return models.HarmoniousFlow
	case absTens < 0.5 && entropy < calmEntropy:
		return models.ResonantStable
	default:
		return models.HarmoniousFlow
	}
}

func describeCurvature(current float64, history []float64) string {
	absCurrent := math.Abs(current)
	recentTrend := trailingDiffMean(history, 10)

	switch {
	case absCurrent > 1.5:
		return "tight - singularity imminent"
	case absCurrent > 0.8:
		if recentTrend > 0 {
			return "sharpening - psychological heat accumulating"
		}
		return "loosening - tension releasing"
	case absCurrent > 0.3:
		return "moderate - normal flow"
	default:
		return "gentle - calm surface"
	}
}

func describeTension(tension float64) string {
	absTension := math.Abs(tension)
	switch {
	case absTension > 2.0:
		return "extreme - structure cannot hold"
	case absTension > 1.5:
		return "critical - collapse imminent"
	case absTension > 1.0:
		return "high - pressure building"
	case absTension > 0.5:
		return "accumulating - directional pressure"
	default:
		return "minimal - relaxed state"
	}
}

func describeEntropy(entropy float64) string {
	switch {
	case entropy > 7.0:
		return "chaotic - panic/euphoria"
	case entropy > 6.0:
		return "frothy - unstable belief"
	case entropy > 4.0:
		return "elevated - active movement"
	case entropy > 2.0:
		return "calm - stable belief"
	default:
		return "crystalline - locked structure"
	}
}

// analyzeAttractorPull finds the attractor nearest the current price.
// Pull weakens with percentage distance: strength / (1 + pct).
func analyzeAttractorPull(price float64, attractors []models.Attractor) (*models.AttractorRef, float64) {
	if len(attractors) == 0 || price == 0 {
		return nil, 0
	}
	nearest := attractors[0]
	for _, a := range attractors[1:] {
		if math.Abs(a.Price-price) < math.Abs(nearest.Price-price) {
			nearest = a
		}
	}
	distancePct := math.Abs(nearest.Price-price) / price * 100
	pull := nearest.Strength * (1.0 / (1.0 + distancePct))

	var description string
	switch {
	case distancePct < 1.0:
		description = fmt.Sprintf("converging on basin at $%.2f", nearest.Price)
	case price > nearest.Price:
		description = fmt.Sprintf("above attractor at $%.2f (%.1f%% away)", nearest.Price, distancePct)
	default:
		description = fmt.Sprintf("below attractor at $%.2f (%.1f%% away)", nearest.Price, distancePct)
	}
	return &models.AttractorRef{Price: nearest.Price, Description: description}, pull
}

// estimateWavePosition names the Elliott wave context for a phase.
// Waves are the names given to different phases of curvature.
func estimateWavePosition(phase models.Phase) string {
	switch phase {
	case models.PhaseImpulseLegSharpening:
		return "Impulse wave (1, 3, or 5) - curvature sharpening"
	case models.PhaseRicciFlowSmoothing:
		return "Corrective wave (2, 4, or A-B-C) - Ricci flow smoothing"
	case models.PhaseSingularityForming:
		return "Wave peak - singularity forming"
	case models.PhaseStableEquilibrium:
		return "Wave 4 consolidation or end of correction"
	default:
		return "Transitional - between wave structures"
	}
}

func composeNarrative(phase models.Phase, conductor models.ConductorReading, singer models.SingerReading, curvatureState, tensionDesc, entropyState string) string {
	switch phase {
	case models.PhaseImpulseLegSharpening:
		return fmt.Sprintf(
			"The manifold is in an impulse leg. Curvature is %s, with tension %s. "+
				"The Conductor senses a %s, while the Singer feels the note is %s. "+
				"Psychological heat is accumulating as the surface sharpens.",
			curvatureState, tensionDesc, conductor, singer)
	case models.PhaseSingularityForming:
		return fmt.Sprintf(
			"A singularity is forming. The manifold has reached %s tension with %s curvature. "+
				"The structure cannot hold this shape - a collapse and Ricci flow smoothing are imminent. "+
				"The Singer feels the note %s.",
			tensionDesc, curvatureState, singer)
	case models.PhaseRicciFlowSmoothing:
		return fmt.Sprintf(
			"The manifold is undergoing Ricci flow - a smoothing process where tension redistributes "+
				"across the surface. Entropy is %s as the structure 'burns off' excess psychological heat. "+
				"The Conductor reads this as %s.",
			entropyState, conductor)
	case models.PhaseAttractorConvergence:
		return fmt.Sprintf(
			"The manifold is converging toward a natural attractor. Curvature is %s with %s tension. "+
				"The surface is settling into a gravitational basin, seeking equilibrium.",
			curvatureState, tensionDesc)
	case models.PhaseStableEquilibrium:
		return fmt.Sprintf(
			"The manifold rests in stable equilibrium. Entropy is %s, tension is %s, and curvature is %s. "+
				"The Singer feels %s. This is a rest phase between movements.",
			entropyState, tensionDesc, curvatureState, singer)
	case models.PhaseCompressionBuilding:
		return fmt.Sprintf(
			"Compression is building. The manifold shows %s tension without high curvature - "+
				"directional pressure is accumulating before the next sharp movement. "+
				"The Conductor senses %s.",
			tensionDesc, conductor)
	default:
		return "The manifold is in transition between states."
	}
}

// generateWarning is an independent side channel evaluated after the
// phase diagnosis; first match wins.
func generateWarning(phase models.Phase, tension float64, singularityCount int) string {
	switch {
	case phase == models.PhaseSingularityForming:
		return "SINGULARITY FORMING: The manifold cannot sustain this curvature. Expect sharp Ricci flow (correction) as tension redistributes."
	case math.Abs(tension) > HighTensionThreshold:
		return "HIGH TENSION: The structure is stretched. Watch for singularity formation or sudden release."
	case singularityCount > 2:
		return "MULTIPLE SINGULARITIES: The manifold has experienced repeated extreme events. Structure may be unstable."
	default:
		return ""
	}
}

// confidence rises when the recent signal is consistent: the mean of
// two reciprocal-variance terms over the trailing 10 samples of
// curvature and tension. Always in (0,1].
func confidence(m *models.ManifoldMetrics) float64 {
	curvStd := trailingStd(m.Curvature, confidenceWindow)
	tensStd := trailingStd(m.Tension, confidenceWindow)
	return (1.0/(1.0+curvStd) + 1.0/(1.0+tensStd)) / 2
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}

// trailingDiffMean returns the mean of successive differences over the
// last `window` samples, or NaN with fewer than two samples so trend
// comparisons fall through (never-fail policy, not an error).
func trailingDiffMean(xs []float64, window int) float64 {
	if len(xs) > window {
		xs = xs[len(xs)-window:]
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	sum := 0.0
	for i := 1; i < len(xs); i++ {
		sum += xs[i] - xs[i-1]
	}
	return sum / float64(len(xs)-1)
}

// trailingStd is the population standard deviation of the last
// `window` samples; zero for an empty slice.
func trailingStd(xs []float64, window int) float64 {
	if len(xs) > window {
		xs = xs[len(xs)-window:]
	}
	if len(xs) == 0 {
		return 0
	}
	m := 0.0
	for _, x := range xs {
		m += x
	}
	m /= float64(len(xs))
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
