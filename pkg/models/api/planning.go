package api

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Envelope is the uniform response wrapper: {"success": true, "data": ...} on
// success, {"success": false, "message": ...} on failure.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// SalesRecord mirrors the dashboard's sales-history rows. Dates travel as
// plain "2006-01-02" strings.
type SalesRecord struct {
	Date           string  `json:"date"`
	Category       string  `json:"category"`
	SalesPrice     float64 `json:"sales_price"`
	QuantitySold   float64 `json:"quantity_sold"`
	WholesalePrice float64 `json:"wholesale_price,omitempty"`
}

type SalesHistory struct {
	Records    []SalesRecord `json:"records"`
	Categories []string      `json:"categories"`
	Days       int           `json:"days"`
}

type ForecastRequest struct {
	SalesData  []SalesRecord `json:"sales_data"`
	Categories []string      `json:"categories,omitempty"`
	Horizon    int           `json:"horizon_days,omitempty"`
}

type ForecastPoint struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predicted_price"`
	Lower          float64 `json:"lower"`
	Upper          float64 `json:"upper"`
}

type CategoryForecast struct {
	Points        []ForecastPoint `json:"points"`
	Method        string          `json:"method"`
	LowConfidence bool            `json:"low_confidence"`
}

type ElasticityRequest struct {
	SalesData  []SalesRecord `json:"sales_data"`
	Categories []string      `json:"categories,omitempty"`
}

type ElasticityParams struct {
	Elasticity     float64 `json:"elasticity"`
	Intercept      float64 `json:"intercept"`
	ReferencePrice float64 `json:"reference_price"`
	BaseDemand     float64 `json:"base_demand"`
	RSquared       float64 `json:"r_squared"`
	LowConfidence  bool    `json:"low_confidence"`
}

// AlgorithmParams carries the annealing knobs. Pointer fields distinguish
// "absent, use the default" from an explicit zero; max_iterations = 0 is a
// legal request that returns the baseline schedule.
type AlgorithmParams struct {
	MaxIterations *int     `json:"max_iterations,omitempty"`
	InitialTemp   *float64 `json:"initial_temp,omitempty"`
	CoolingRate   *float64 `json:"cooling_rate,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
}

type PriceConstraints struct {
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	LossRate *float64 `json:"loss_rate,omitempty"`
}

type OptimizeRequest struct {
	WholesalePredictions map[string]CategoryForecast `json:"wholesale_predictions"`
	ElasticityParams     map[string]ElasticityParams `json:"elasticity_params"`
	AlgorithmParams      *AlgorithmParams            `json:"algorithm_params,omitempty"`
	PriceConstraints     *PriceConstraints           `json:"price_constraints,omitempty"`
}

type DailyResult struct {
	Date          string             `json:"date"`
	OptimalPrices map[string]float64 `json:"optimal_prices"`
	Demands       map[string]float64 `json:"demands"`
	Profits       map[string]float64 `json:"profits"`
	TotalProfit   float64            `json:"total_profit"`
}

type ConvergenceInfo struct {
	Iterations       int     `json:"iterations"`
	FinalTemperature float64 `json:"final_temperature"`
	ImprovementRate  float64 `json:"improvement_rate"`
}

type OptimizeResponse struct {
	DailyResults  []DailyResult   `json:"daily_results"`
	TotalProfit   float64         `json:"total_profit"`
	AverageMarkup float64         `json:"average_markup"`
	ProfitHistory []float64       `json:"profit_history"`
	Convergence   ConvergenceInfo `json:"convergence_info"`
}

// RunRequest starts a full pipeline execution. Sales data comes either inline
// or from a configured source profile.
type RunRequest struct {
	Profile          string            `json:"profile,omitempty"`
	Days             int               `json:"days,omitempty"`
	Horizon          int               `json:"horizon_days,omitempty"`
	Categories       []string          `json:"categories,omitempty"`
	SalesData        []SalesRecord     `json:"sales_data,omitempty"`
	AlgorithmParams  *AlgorithmParams  `json:"algorithm_params,omitempty"`
	PriceConstraints *PriceConstraints `json:"price_constraints,omitempty"`
}

type StageResult struct {
	Stage      string `json:"stage"`
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type Run struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Stages   []StageResult     `json:"stages"`
	Plan     *OptimizeResponse `json:"plan,omitempty"`
	Error    string            `json:"error,omitempty"`
	Duration int64             `json:"duration_ms"`
}

type Source struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
