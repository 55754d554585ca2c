package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/warehouse-tools/priceplan/pkg/handlers/planning"
	"github.com/warehouse-tools/priceplan/pkg/models/api"
	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"github.com/warehouse-tools/priceplan/pkg/services/history"
	"github.com/warehouse-tools/priceplan/pkg/services/optimizer"
	"github.com/warehouse-tools/priceplan/pkg/services/planner"
)

type mockForecaster struct {
	mock.Mock
}

func (m *mockForecaster) Forecast(
	ctx context.Context,
	category string,
	records []domain.SalesRecord,
	horizon int,
) (domain.CategoryForecast, error) {
	args := m.Called(ctx, category, records, horizon)
	return args.Get(0).(domain.CategoryForecast), args.Error(1)
}

type mockEstimator struct {
	mock.Mock
}

func (m *mockEstimator) Estimate(
	ctx context.Context,
	category string,
	records []domain.SalesRecord,
) (domain.ElasticityParams, error) {
	args := m.Called(ctx, category, records)
	return args.Get(0).(domain.ElasticityParams), args.Error(1)
}

type mockOptimizer struct {
	mock.Mock
}

func (m *mockOptimizer) Optimize(ctx context.Context, inputs optimizer.Inputs) (domain.OptimizationResult, error) {
	args := m.Called(ctx, inputs)
	return args.Get(0).(domain.OptimizationResult), args.Error(1)
}

type mockPlanner struct {
	mock.Mock
}

func (m *mockPlanner) Execute(ctx context.Context, spec planner.RunSpec) (*domain.OptimizationRun, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(*domain.OptimizationRun), args.Error(1)
}

type mockExplorer struct {
	mock.Mock
}

func (m *mockExplorer) ListSources(ctx context.Context) ([]domain.SourceProfile, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SourceProfile), args.Error(1)
}

func (m *mockExplorer) GetProvider(ctx context.Context, profile string) (history.Provider, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(history.Provider), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GetSalesHistory(ctx context.Context, days int) ([]domain.SalesRecord, error) {
	args := m.Called(ctx, days)
	return args.Get(0).([]domain.SalesRecord), args.Error(1)
}

func newTestServer(t *testing.T, services planning.Services) *httptest.Server {
	t.Helper()

	logger := zerolog.New(zerolog.NewTestWriter(t))
	router := ConfigureRouter(&logger, Config{
		Addr: ":8080",
		Defaults: planning.Settings{
			DefaultProfile: "local",
			HistoryDays:    90,
			HorizonDays:    7,
		},
		Dependencies: Dependencies{Planning: services},
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestWebAPI_Endpoints(t *testing.T) {
	mockFc := new(mockForecaster)
	mockEst := new(mockEstimator)
	mockExp := new(mockExplorer)
	mockProv := new(mockProvider)

	server := newTestServer(t, planning.Services{
		Forecaster: mockFc,
		Estimator:  mockEst,
		Explorer:   mockExp,
	})

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	salesBody := api.ForecastRequest{
		SalesData: []api.SalesRecord{
			{Date: "2026-01-05", Category: "beverages", SalesPrice: 12, QuantitySold: 30},
		},
		Horizon: 3,
	}

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		setupMocks     func()
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:   "ListSources",
			method: http.MethodGet,
			path:   "/api/v1/planning/sources",
			setupMocks: func() {
				mockExp.On("ListSources", mock.Anything).
					Return([]domain.SourceProfile{{Name: "local", Type: domain.SourceTypeDuckDB}}, nil)
			},
			expectedStatus: http.StatusOK,
			expected:       []api.Source{{Name: "local", Type: "duckdb"}},
			parseResponse:  unmarshalData[[]api.Source](),
		},
		{
			name:   "GetSalesHistory",
			method: http.MethodGet,
			path:   "/api/v1/planning/sales-history?profile=warehouse&days=30",
			setupMocks: func() {
				mockExp.On("GetProvider", mock.Anything, "warehouse").Return(mockProv, nil)
				mockProv.On("GetSalesHistory", mock.Anything, 30).
					Return([]domain.SalesRecord{
						{Date: day, Category: "beverages", Quantity: 30, UnitPrice: 12, WholesalePrice: 9.6},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expected: api.SalesHistory{
				Records: []api.SalesRecord{
					{Date: "2026-01-05", Category: "beverages", SalesPrice: 12, QuantitySold: 30, WholesalePrice: 9.6},
				},
				Categories: []string{"beverages"},
				Days:       30,
			},
			parseResponse: unmarshalData[api.SalesHistory](),
		},
		{
			name:   "GetSalesHistory_BadDays",
			method: http.MethodGet,
			path:   "/api/v1/planning/sales-history?days=nope",
			setupMocks: func() {
			},
			expectedStatus: http.StatusBadRequest,
			expected:       "days must be a positive integer",
			parseResponse:  unmarshalMessage(),
		},
		{
			name:   "PredictWholesalePrices",
			method: http.MethodPost,
			path:   "/api/v1/planning/wholesale-forecast",
			body:   salesBody,
			setupMocks: func() {
				mockFc.On("Forecast", mock.Anything, "beverages", mock.Anything, 3).
					Return(domain.CategoryForecast{
						Category: "beverages",
						Points: []domain.ForecastPoint{
							{Date: day.AddDate(0, 0, 1), Predicted: 9.5, Lower: 9, Upper: 10},
						},
						Method: domain.ForecastMethodDecomposition,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expected: map[string]api.CategoryForecast{
				"beverages": {
					Points: []api.ForecastPoint{
						{Date: "2026-01-06", PredictedPrice: 9.5, Lower: 9, Upper: 10},
					},
					Method: "decomposition",
				},
			},
			parseResponse: unmarshalData[map[string]api.CategoryForecast](),
		},
		{
			name:   "EstimatePriceElasticity",
			method: http.MethodPost,
			path:   "/api/v1/planning/price-elasticity",
			body: api.ElasticityRequest{
				SalesData: salesBody.SalesData,
			},
			setupMocks: func() {
				mockEst.On("Estimate", mock.Anything, "beverages", mock.Anything).
					Return(domain.ElasticityParams{
						Category:       "beverages",
						Elasticity:     -1.4,
						Intercept:      5.1,
						ReferencePrice: 12,
						BaseDemand:     30,
						RSquared:       0.82,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expected: map[string]api.ElasticityParams{
				"beverages": {
					Elasticity:     -1.4,
					Intercept:      5.1,
					ReferencePrice: 12,
					BaseDemand:     30,
					RSquared:       0.82,
				},
			},
			parseResponse: unmarshalData[map[string]api.ElasticityParams](),
		},
		{
			name:   "GetLatestRun_SchedulerDisabled",
			method: http.MethodGet,
			path:   "/api/v1/planning/runs/latest",
			setupMocks: func() {
			},
			expectedStatus: http.StatusNotFound,
			expected:       "scheduled planning is disabled",
			parseResponse:  unmarshalMessage(),
		},
		{
			name:   "Healthz",
			method: http.MethodGet,
			path:   "/healthz",
			setupMocks: func() {
			},
			expectedStatus: http.StatusOK,
			expected:       `{"status":"ok"}`,
			parseResponse: func(data []byte) (interface{}, error) {
				return string(data), nil
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMocks()

			resp := doRequest(t, server, tc.method, tc.path, tc.body)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(raw)
			require.NoError(t, err, "Failed to parse response")

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestWebAPI_RunOptimization(t *testing.T) {
	mockOpt := new(mockOptimizer)
	server := newTestServer(t, planning.Services{Optimizer: mockOpt})

	result := domain.OptimizationResult{
		Schedule: domain.PriceSchedule{
			Days:       1,
			Categories: []string{"beverages"},
			Prices:     [][]float64{{12.5}},
		},
		BestObjective:    80,
		InitialObjective: 60,
		Trace: []domain.TracePoint{
			{Iteration: 0, Objective: 60},
			{Iteration: 1, Objective: 80},
		},
		Iterations: 50,
		FinalTemp:  7.69,
	}
	mockOpt.On("Optimize", mock.Anything, mock.MatchedBy(func(in optimizer.Inputs) bool {
		return in.Params.MaxIterations == 50 && in.Params.Seed == 7 &&
			in.Constraints.MinPrice == 0.1 && in.Constraints.MaxPrice == 50
	})).Return(result, nil)

	body := api.OptimizeRequest{
		WholesalePredictions: map[string]api.CategoryForecast{
			"beverages": {
				Points: []api.ForecastPoint{
					{Date: "2026-01-06", PredictedPrice: 10, Lower: 9, Upper: 11},
				},
				Method: "decomposition",
			},
		},
		ElasticityParams: map[string]api.ElasticityParams{
			"beverages": {Elasticity: -1.2, Intercept: 4.6, ReferencePrice: 12, BaseDemand: 100, RSquared: 0.8},
		},
		AlgorithmParams: &api.AlgorithmParams{
			MaxIterations: intPtr(50),
			Seed:          int64Ptr(7),
		},
	}

	resp := doRequest(t, server, http.MethodPost, "/api/v1/planning/optimize", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	parsed, err := unmarshalData[api.OptimizeResponse]()(raw)
	require.NoError(t, err)
	plan := parsed.(api.OptimizeResponse)

	require.Len(t, plan.DailyResults, 1)
	daily := plan.DailyResults[0]
	assert.Equal(t, "2026-01-06", daily.Date)
	assert.Equal(t, 12.5, daily.OptimalPrices["beverages"])

	// demand and profit come from re-evaluating the schedule against the
	// posted curve: 100 * (12.5/12)^-1.2 units at a 2.5 margin less 4% loss
	assert.InDelta(t, 95.23, daily.Demands["beverages"], 0.05)
	assert.InDelta(t, daily.Demands["beverages"]*2.5*0.96, daily.Profits["beverages"], 1e-9)
	assert.InDelta(t, daily.TotalProfit, plan.TotalProfit, 1e-9)

	assert.Equal(t, []float64{60, 80}, plan.ProfitHistory)
	assert.Equal(t, 50, plan.Convergence.Iterations)
	assert.InDelta(t, 7.69, plan.Convergence.FinalTemperature, 1e-9)
	assert.InDelta(t, 80.0/60.0-1, plan.Convergence.ImprovementRate, 1e-9)
}

func TestWebAPI_ExecuteRun(t *testing.T) {
	mockPln := new(mockPlanner)
	server := newTestServer(t, planning.Services{Planner: mockPln})

	t.Run("inline sales data", func(t *testing.T) {
		run := &domain.OptimizationRun{
			ID:     "run-1",
			Status: domain.RunStatusDone,
			Stages: []domain.StageResult{
				{Stage: domain.RunStageCollect, StartedAt: time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC)},
			},
		}
		mockPln.On("Execute", mock.Anything, mock.MatchedBy(func(spec planner.RunSpec) bool {
			return len(spec.Records) == 1 && spec.Provider == nil && spec.Horizon == 3
		})).Return(run, nil).Once()

		body := api.RunRequest{
			Horizon: 3,
			SalesData: []api.SalesRecord{
				{Date: "2026-01-05", Category: "beverages", SalesPrice: 12, QuantitySold: 30},
			},
		}
		resp := doRequest(t, server, http.MethodPost, "/api/v1/planning/runs", body)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		parsed, err := unmarshalData[api.Run]()(raw)
		require.NoError(t, err)

		view := parsed.(api.Run)
		assert.Equal(t, "run-1", view.ID)
		assert.Equal(t, "done", view.Status)
		require.Len(t, view.Stages, 1)
		assert.Equal(t, "collect_data", view.Stages[0].Stage)
	})

	t.Run("failed run keeps the stage log", func(t *testing.T) {
		failure := &domain.DataInsufficientError{Category: "beverages", Records: 0, Needed: 1}
		run := &domain.OptimizationRun{
			ID:     "run-2",
			Status: domain.RunStatusFailed,
			Stages: []domain.StageResult{
				{Stage: domain.RunStageCollect, StartedAt: time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC), Err: failure},
			},
			Err: failure,
		}
		mockPln.On("Execute", mock.Anything, mock.Anything).Return(run, failure).Once()

		body := api.RunRequest{
			SalesData: []api.SalesRecord{
				{Date: "2026-01-05", Category: "dairy", SalesPrice: 8, QuantitySold: 10},
			},
			Categories: []string{"beverages"},
		}
		resp := doRequest(t, server, http.MethodPost, "/api/v1/planning/runs", body)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var envelope struct {
			Success bool    `json:"success"`
			Message string  `json:"message"`
			Data    api.Run `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.False(t, envelope.Success)
		assert.Equal(t, failure.Error(), envelope.Message)
		assert.Equal(t, "run-2", envelope.Data.ID)
		assert.Equal(t, "failed", envelope.Data.Status)
		require.Len(t, envelope.Data.Stages, 1)
		assert.Equal(t, failure.Error(), envelope.Data.Stages[0].Error)
	})
}

func TestWebAPI_ErrorMapping(t *testing.T) {
	mockEst := new(mockEstimator)
	server := newTestServer(t, planning.Services{Estimator: mockEst})

	tests := []struct {
		name           string
		category       string
		err            error
		expectedStatus int
	}{
		{
			name:           "InvalidParameter",
			category:       "c1",
			err:            &domain.InvalidParameterError{Param: "horizon_days", Reason: "must be positive"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "InvalidData",
			category:       "c2",
			err:            &domain.InvalidDataError{Category: "c2", Reason: "non-positive price"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "DataInsufficient",
			category:       "c3",
			err:            &domain.DataInsufficientError{Category: "c3", Records: 2, Needed: 5},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "OptimizationTimeout",
			category:       "c4",
			err:            &domain.OptimizationTimeoutError{Stage: domain.RunStageOptimize},
			expectedStatus: http.StatusGatewayTimeout,
		},
		{
			name:           "NumericInstability",
			category:       "c5",
			err:            &domain.NumericInstabilityError{Category: "c5", Reason: "non-finite slope"},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockEst.On("Estimate", mock.Anything, tc.category, mock.Anything).
				Return(domain.ElasticityParams{}, tc.err)

			body := api.ElasticityRequest{
				SalesData: []api.SalesRecord{
					{Date: "2026-01-05", Category: tc.category, SalesPrice: 12, QuantitySold: 30},
				},
			}
			resp := doRequest(t, server, http.MethodPost, "/api/v1/planning/price-elasticity", body)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var envelope api.Envelope
			require.NoError(t, json.Unmarshal(raw, &envelope))
			assert.False(t, envelope.Success)
			assert.Equal(t, tc.err.Error(), envelope.Message)
		})
	}
}

func doRequest(t *testing.T, server *httptest.Server, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err, "Failed to encode request body")
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err, "Failed to build request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "Failed to send request")
	return resp
}

func unmarshalData[T any]() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response struct {
			Success bool `json:"success"`
			Data    T    `json:"data"`
		}
		err := json.Unmarshal(data, &response)
		return response.Data, err
	}
}

func unmarshalMessage() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response struct {
			Message string `json:"message"`
		}
		err := json.Unmarshal(data, &response)
		return response.Message, err
	}
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }
