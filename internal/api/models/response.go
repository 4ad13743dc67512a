package models

// SolveResponse is the response body for POST /api/v1/solve.
type SolveResponse struct {
	Status         string             `json:"status"` // "optimal", "time_limit"
	ObjectiveValue float64            `json:"objective_value"`
	Investment     InvestmentSummary  `json:"investment"`
	Dispatch       *DispatchSummary   `json:"dispatch,omitempty"`
	Trace          *IterativeTrace    `json:"trace,omitempty"`
}

// InvestmentSummary carries the resolved *_nom_opt decisions.
type InvestmentSummary struct {
	GeneratorPNomOpt   map[string]float64 `json:"generator_p_nom_opt,omitempty"`
	LineSNomOpt        map[string]float64 `json:"line_s_nom_opt,omitempty"`
	LinkPNomOpt        map[string]float64 `json:"link_p_nom_opt,omitempty"`
	StorageUnitPNomOpt map[string]float64 `json:"storage_unit_p_nom_opt,omitempty"`
	StoreENomOpt       map[string]float64 `json:"store_e_nom_opt,omitempty"`
}

// DispatchSummary carries per-snapshot operation values, keyed by asset ID
// then snapshot index. Omitted for Benders master-only responses, where the
// operation values live on the slave models instead of the returned
// Solution (spec's Open Question on Benders storage/operation scope).
type DispatchSummary struct {
	Generation map[string]map[int]float64 `json:"generation,omitempty"`
	LineFlow   map[string]map[int]float64 `json:"line_flow,omitempty"`
	LinkFlow   map[string]map[int]float64 `json:"link_flow,omitempty"`
	SOC        map[string]map[int]float64 `json:"soc,omitempty"`
	Prices     map[string]map[int]float64 `json:"prices,omitempty"`
}

// IterativeTrace reports the per-iteration history when the iterative
// reactance-update runner was used.
type IterativeTrace struct {
	Objectives []float64            `json:"objectives"`
	Capacities []map[string]float64 `json:"capacities"`
	Reactances []map[string]float64 `json:"reactances"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
