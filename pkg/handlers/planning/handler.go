package planning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"

	"github.com/warehouse-tools/priceplan/pkg/adapters"
	"github.com/warehouse-tools/priceplan/pkg/models/api"
	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"github.com/warehouse-tools/priceplan/pkg/services/elasticity"
	"github.com/warehouse-tools/priceplan/pkg/services/forecast"
	"github.com/warehouse-tools/priceplan/pkg/services/history"
	"github.com/warehouse-tools/priceplan/pkg/services/optimizer"
	"github.com/warehouse-tools/priceplan/pkg/services/planner"
)

// Services are the planning components the handler exposes over HTTP.
// Scheduler may be nil when scheduled refresh is disabled.
type Services struct {
	Forecaster forecast.Forecaster
	Estimator  elasticity.Estimator
	Optimizer  optimizer.Optimizer
	Planner    planner.Planner
	Explorer   history.Explorer
	Scheduler  *planner.Scheduler
}

type Settings struct {
	DefaultProfile string
	HistoryDays    int
	HorizonDays    int
}

type Handler struct {
	services Services
	settings Settings
}

func NewHandler(services Services, settings Settings) *Handler {
	return &Handler{
		services: services,
		settings: settings,
	}
}

// PredictWholesalePrices forecasts wholesale acquisition costs per category
// from the posted sales history.
func (h *Handler) PredictWholesalePrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	grouped, err := groupRecords(req.SalesData)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	horizon := req.Horizon
	if horizon == 0 {
		horizon = h.settings.HorizonDays
	}

	response := make(map[string]api.CategoryForecast)
	for _, category := range selectCategories(req.Categories, grouped) {
		fc, err := h.services.Forecaster.Forecast(ctx, category, grouped[category], horizon)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		response[category] = adapters.MapCategoryForecastDomainToApi(fc)
	}

	writeData(ctx, w, http.StatusOK, response)
}

// EstimatePriceElasticity fits the demand curve per category from the posted
// sales history.
func (h *Handler) EstimatePriceElasticity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ElasticityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	grouped, err := groupRecords(req.SalesData)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	response := make(map[string]api.ElasticityParams)
	for _, category := range selectCategories(req.Categories, grouped) {
		params, err := h.services.Estimator.Estimate(ctx, category, grouped[category])
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		response[category] = adapters.MapElasticityParamsDomainToApi(params)
	}

	writeData(ctx, w, http.StatusOK, response)
}

// RunOptimization runs the annealing search over caller-supplied forecasts
// and elasticities and returns the synthesized plan.
func (h *Handler) RunOptimization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	forecasts := make(map[string]domain.CategoryForecast, len(req.WholesalePredictions))
	for category, fc := range req.WholesalePredictions {
		mapped, err := adapters.MapCategoryForecastApiToDomain(category, fc)
		if err != nil {
			writeMessage(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		forecasts[category] = mapped
	}

	elasticities := make(map[string]domain.ElasticityParams, len(req.ElasticityParams))
	for category, params := range req.ElasticityParams {
		elasticities[category] = adapters.MapElasticityParamsApiToDomain(category, params)
	}

	constraints := adapters.MapPriceConstraintsApiToDomain(req.PriceConstraints, optimizer.DefaultConstraints())
	params := adapters.MapAlgorithmParamsApiToDomain(req.AlgorithmParams, optimizer.DefaultParams())

	result, err := h.services.Optimizer.Optimize(ctx, optimizer.Inputs{
		Forecasts:    forecasts,
		Elasticities: elasticities,
		Constraints:  constraints,
		Params:       params,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if result.Interrupted {
		writeError(ctx, w, &domain.OptimizationTimeoutError{
			Stage: domain.RunStageOptimize,
			Trace: result.Trace,
		})
		return
	}

	plan, err := planner.Synthesize(result, forecasts, elasticities, constraints)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeData(ctx, w, http.StatusOK, adapters.MapPlanDomainToApi(plan, result.Trace))
}

// ExecuteRun runs the whole pipeline, from sales history to plan, in one
// call.
func (h *Handler) ExecuteRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	spec := planner.RunSpec{
		Categories:  req.Categories,
		Days:        req.Days,
		Horizon:     req.Horizon,
		Constraints: adapters.MapPriceConstraintsApiToDomain(req.PriceConstraints, optimizer.DefaultConstraints()),
		Params:      adapters.MapAlgorithmParamsApiToDomain(req.AlgorithmParams, optimizer.DefaultParams()),
	}

	if len(req.SalesData) > 0 {
		records, err := adapters.MapSalesRecordsApiToDomain(req.SalesData)
		if err != nil {
			writeMessage(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		spec.Records = records
	} else {
		provider, err := h.provider(r, req.Profile)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		spec.Provider = provider
	}

	run, err := h.services.Planner.Execute(ctx, spec)
	if err != nil {
		// failed runs still expose their stage log and error
		writeEnvelope(ctx, w, statusFor(err), api.Envelope{
			Success: false,
			Message: err.Error(),
			Data:    adapters.MapRunDomainToApi(run),
		})
		return
	}

	writeData(ctx, w, http.StatusOK, adapters.MapRunDomainToApi(run))
}

// GetLatestRun serves the scheduler's most recent completed run.
func (h *Handler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.services.Scheduler == nil {
		writeMessage(ctx, w, http.StatusNotFound, "scheduled planning is disabled")
		return
	}
	run := h.services.Scheduler.Latest()
	if run == nil {
		writeMessage(ctx, w, http.StatusNotFound, "no plan computed yet")
		return
	}

	writeData(ctx, w, http.StatusOK, adapters.MapRunDomainToApi(run))
}

// GetSalesHistory serves the trailing sales window from a configured source.
func (h *Handler) GetSalesHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := h.settings.HistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeMessage(ctx, w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	provider, err := h.provider(r, r.URL.Query().Get("profile"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	records, err := provider.GetSalesHistory(ctx, days)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	response := api.SalesHistory{
		Records: make([]api.SalesRecord, 0, len(records)),
		Days:    days,
	}
	seen := make(map[string]bool)
	for _, rec := range records {
		response.Records = append(response.Records, adapters.MapSalesRecordDomainToApi(rec))
		if !seen[rec.Category] {
			seen[rec.Category] = true
			response.Categories = append(response.Categories, rec.Category)
		}
	}
	sort.Strings(response.Categories)

	writeData(ctx, w, http.StatusOK, response)
}

// ListSources lists the configured sales-history source profiles.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profiles, err := h.services.Explorer.ListSources(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	response := make([]api.Source, 0, len(profiles))
	for _, profile := range profiles {
		response = append(response, adapters.MapSourceProfileDomainToApi(profile))
	}

	writeData(ctx, w, http.StatusOK, response)
}

func (h *Handler) provider(r *http.Request, profile string) (history.Provider, error) {
	if profile == "" {
		profile = h.settings.DefaultProfile
	}
	return h.services.Explorer.GetProvider(r.Context(), profile)
}

func groupRecords(records []api.SalesRecord) (map[string][]domain.SalesRecord, error) {
	grouped := make(map[string][]domain.SalesRecord)
	for _, rec := range records {
		mapped, err := adapters.MapSalesRecordApiToDomain(rec)
		if err != nil {
			return nil, &domain.InvalidDataError{Category: rec.Category, Reason: err.Error()}
		}
		grouped[mapped.Category] = append(grouped[mapped.Category], mapped)
	}
	return grouped, nil
}

// selectCategories returns the explicit request categories, or every
// category present in the data, sorted either way.
func selectCategories(requested []string, grouped map[string][]domain.SalesRecord) []string {
	if len(requested) > 0 {
		out := append([]string(nil), requested...)
		sort.Strings(out)
		return out
	}
	out := maps.Keys(grouped)
	sort.Strings(out)
	return out
}

func statusFor(err error) int {
	var (
		invalidParam *domain.InvalidParameterError
		invalidData  *domain.InvalidDataError
		insufficient *domain.DataInsufficientError
		timeout      *domain.OptimizationTimeoutError
	)
	switch {
	case errors.As(err, &invalidParam), errors.As(err, &invalidData):
		return http.StatusBadRequest
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeData(ctx context.Context, w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(ctx, w, status, api.Envelope{Success: true, Data: data})
}

func writeMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeEnvelope(ctx, w, status, api.Envelope{Success: false, Message: message})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	writeEnvelope(ctx, w, statusFor(err), api.Envelope{Success: false, Message: err.Error()})
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, status int, envelope api.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}
