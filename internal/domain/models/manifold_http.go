package models

// JSON payload forms for the manifold types. Kept next to the domain types
// so every transport (HTTP, Kafka alerts, cache) serializes identically.

type AttractorPayload struct {
	Price    float64 `json:"price"`
	Strength float64 `json:"strength"`
}

type MetricsPayload struct {
	Symbol        string             `json:"symbol,omitempty"`
	Timestamps    []float64          `json:"timestamps"`
	Prices        []float64          `json:"prices"`
	Curvature     []float64          `json:"curvature"`
	Entropy       float64            `json:"entropy"`
	LocalEntropy  []float64          `json:"local_entropy"`
	Singularities []int              `json:"singularities"`
	Attractors    []AttractorPayload `json:"attractors"`
	RicciFlow     []float64          `json:"ricci_flow"`
	Tension       []float64          `json:"tension"`
	Timescale     string             `json:"timescale"`
}

// ToPayload converts a snapshot to its serializable form.
func (m *ManifoldMetrics) ToPayload(symbol string) *MetricsPayload {
	attractors := make([]AttractorPayload, len(m.Attractors))
	for i, a := range m.Attractors {
		attractors[i] = AttractorPayload{Price: a.Price, Strength: a.Strength}
	}
	return &MetricsPayload{
		Symbol:        symbol,
		Timestamps:    m.Timestamps,
		Prices:        m.Prices,
		Curvature:     m.Curvature,
		Entropy:       m.Entropy,
		LocalEntropy:  m.LocalEntropy,
		Singularities: m.Singularities,
		Attractors:    attractors,
		RicciFlow:     m.RicciFlow,
		Tension:       m.Tension,
		Timescale:     m.Timescale,
	}
}

// Metrics rebuilds the domain snapshot from a payload.
func (p *MetricsPayload) Metrics() *ManifoldMetrics {
	attractors := make([]Attractor, len(p.Attractors))
	for i, a := range p.Attractors {
		attractors[i] = Attractor{Price: a.Price, Strength: a.Strength}
	}
	return &ManifoldMetrics{
		Timestamps:    p.Timestamps,
		Prices:        p.Prices,
		Curvature:     p.Curvature,
		Entropy:       p.Entropy,
		LocalEntropy:  p.LocalEntropy,
		Singularities: p.Singularities,
		Attractors:    attractors,
		RicciFlow:     p.RicciFlow,
		Tension:       p.Tension,
		Timescale:     p.Timescale,
	}
}

type AttractorRefPayload struct {
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

type InterpretationPayload struct {
	Symbol             string               `json:"symbol,omitempty"`
	Phase              string               `json:"phase"`
	Confidence         float64              `json:"confidence"`
	Conductor          string               `json:"conductor_reading"`
	Singer             string               `json:"singer_reading"`
	CurvatureState     string               `json:"curvature_state"`
	TensionDescription string               `json:"tension_description"`
	EntropyState       string               `json:"entropy_state"`
	WavePosition       string               `json:"wave_position,omitempty"`
	NearestAttractor   *AttractorRefPayload `json:"nearest_attractor,omitempty"`
	PullStrength       float64              `json:"attractor_pull_strength"`
	Narrative          string               `json:"narrative"`
	Warning            string               `json:"warning,omitempty"`
	CurvatureValue     float64              `json:"curvature_value"`
	EntropyValue       float64              `json:"entropy_value"`
	TensionValue       float64              `json:"tension_value"`
}

// ToPayload converts an interpretation to its serializable form.
func (in *Interpretation) ToPayload(symbol string) *InterpretationPayload {
	p := &InterpretationPayload{
		Symbol:             symbol,
		Phase:              string(in.Phase),
		Confidence:         in.Confidence,
		Conductor:          string(in.Conductor),
		Singer:             string(in.Singer),
		CurvatureState:     in.CurvatureState,
		TensionDescription: in.TensionDescription,
		EntropyState:       in.EntropyState,
		WavePosition:       in.WavePosition,
		PullStrength:       in.PullStrength,
		Narrative:          in.Narrative,
		Warning:            in.Warning,
		CurvatureValue:     in.CurvatureValue,
		EntropyValue:       in.EntropyValue,
		TensionValue:       in.TensionValue,
	}
	if in.NearestAttractor != nil {
		p.NearestAttractor = &AttractorRefPayload{
			Price:       in.NearestAttractor.Price,
			Description: in.NearestAttractor.Description,
		}
	}
	return p
}
