package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"lopf/internal/api/handlers"
	"lopf/internal/api/models"
	"lopf/internal/network"
)

func newSolveRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := handlers.NewSolveHandler()
	router.POST("/api/v1/solve", h.RunSolve)
	return router
}

func postSolve(t *testing.T, router *gin.Engine, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/solve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func meritOrderRequest() models.SolveRequest {
	return models.SolveRequest{
		Network: &models.NetworkDoc{
			Buses: []network.Bus{{ID: "bus0", Name: "bus0"}},
			Generators: []network.Generator{
				{ID: "cheap", Bus: "bus0", PNom: 30, MarginalCost: 10, PMinPu: []float64{0}, PMaxPu: []float64{1}},
				{ID: "expensive", Bus: "bus0", PNom: 1000, MarginalCost: 50, PMinPu: []float64{0}, PMaxPu: []float64{1}},
			},
			Loads:     []network.Load{{ID: "load0", Bus: "bus0", P: []float64{50}}},
			Snapshots: []network.Snapshot{{Index: 0, Weighting: 1}},
		},
		Config: models.SolveConfig{
			Formulation:    "angles_linear",
			InvestmentType: "continuous",
		},
	}
}

func TestRunSolveRejectsMalformedJSON(t *testing.T) {
	router := newSolveRouter()
	rec := postSolve(t, router, []byte("{not json"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestRunSolveRejectsMissingNetwork(t *testing.T) {
	router := newSolveRouter()
	req := models.SolveRequest{Config: models.SolveConfig{Formulation: "angles_linear", InvestmentType: "continuous"}}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := postSolve(t, router, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "INVALID_NETWORK", resp.Error.Code)
}

func TestRunSolveRejectsBilinearFormulation(t *testing.T) {
	router := newSolveRouter()
	req := meritOrderRequest()
	req.Config.Formulation = "angles_bilinear"
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := postSolve(t, router, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "INVALID_CONFIG", resp.Error.Code)
}

func TestRunSolveSolvesMonolithicMeritOrder(t *testing.T) {
	router := newSolveRouter()
	body, err := json.Marshal(meritOrderRequest())
	require.NoError(t, err)

	rec := postSolve(t, router, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "optimal", resp.Status)
	require.InDelta(t, 1300.0, resp.ObjectiveValue, 1e-6)
	require.InDelta(t, 30.0, resp.Dispatch.Generation["cheap"][0], 1e-6)
}

func TestRunSolveRunsIterativeWhenIterationsRequested(t *testing.T) {
	router := newSolveRouter()
	req := meritOrderRequest()
	req.Config.Iterative.Iterations = 2
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := postSolve(t, router, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Trace)
	require.Len(t, resp.Trace.Objectives, 2)
}
