package handlers

import (
	"context"
	"fmt"
	"net/http"

	"lopf/internal/api/models"
	"lopf/internal/lopf"
	"lopf/internal/lopf/benders"
	"lopf/internal/lopf/iterative"
	"lopf/internal/lopf/monolithic"
	"lopf/internal/netio"
	"lopf/internal/network"
	"lopf/internal/rescale"
	"lopf/internal/solver"
	"lopf/internal/solver/refsolver"

	"github.com/gin-gonic/gin"
)

// SolveHandler handles POST /api/v1/solve.
type SolveHandler struct{}

// NewSolveHandler creates a new solve handler.
func NewSolveHandler() *SolveHandler {
	return &SolveHandler{}
}

// RunSolve handles POST /api/v1/solve: build a Network + Options from the
// request, run the requested runner (monolithic, iterative, or Benders),
// and respond with the resolved investment/dispatch.
func (h *SolveHandler) RunSolve(c *gin.Context) {
	var req models.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	net, err := resolveNetwork(req)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_NETWORK", err.Error())
		return
	}

	opts, err := lopfOptions(req.Config)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	ctx := c.Request.Context()
	backend := refsolver.New()

	var solve iterative.Solve = monolithicSolve
	if req.Config.Decomposition == "benders" {
		bOpts := bendersOptions(req.Config.Benders)
		solve = func(ctx context.Context, net *network.Network, backend solver.Backend, opts lopf.Options) (*lopf.Solution, error) {
			res, err := benders.Run(ctx, net, backend, opts, bOpts)
			if err != nil {
				return nil, err
			}
			return res.Solution, nil
		}
	}

	iterate := req.Config.Iterative.Iterations > 0 ||
		req.Config.Iterative.PostDiscretization ||
		req.Config.Iterative.SeqDiscretization

	if !iterate {
		sol, err := solve(ctx, net, backend, opts)
		if err != nil {
			respondSolveError(c, err)
			return
		}
		c.JSON(http.StatusOK, solveResponse(solver.StatusOptimal, sol.ObjectiveValue, sol, nil))
		return
	}

	iterOpts := iterativeOptions(req.Config.Iterative)
	res, err := iterative.Run(ctx, net, backend, opts, iterOpts, solve)
	if err != nil {
		respondSolveError(c, err)
		return
	}
	c.JSON(http.StatusOK, solveResponse(solver.StatusOptimal, res.Solution.ObjectiveValue, res.Solution, &res.Trace))
}

// monolithicSolve adapts monolithic.Run to iterative.Solve's signature,
// discarding the wrapping Result; the returned Solution carries the
// objective value but not the solve status.
func monolithicSolve(ctx context.Context, net *network.Network, backend solver.Backend, opts lopf.Options) (*lopf.Solution, error) {
	res, err := monolithic.Run(ctx, net, backend, opts)
	if err != nil {
		return nil, err
	}
	return res.Solution, nil
}

func resolveNetwork(req models.SolveRequest) (*network.Network, error) {
	switch {
	case req.Network != nil:
		net := req.Network.ToNetwork()
		if err := net.Validate(); err != nil {
			return nil, err
		}
		return net, nil
	case req.NetworkFile != "":
		return netio.Load(req.NetworkFile)
	default:
		return nil, fmt.Errorf("request must set either network or network_file")
	}
}

func lopfOptions(cfg models.SolveConfig) (lopf.Options, error) {
	table := rescale.Default()
	table.Enabled = cfg.Rescaling
	for k, v := range cfg.Coefficients {
		table.Coefficients[rescale.Family(k)] = v
	}

	formulation := cfg.Formulation
	if formulation == "" {
		formulation = string(lopf.AnglesLinear)
	}
	investmentType := cfg.InvestmentType
	if investmentType == "" {
		investmentType = string(lopf.Continuous)
	}

	opts := lopf.Options{
		Formulation:    lopf.Formulation(formulation),
		InvestmentType: lopf.InvestmentType(investmentType),
		Role:           lopf.RoleMonolithic,
		Snapshots:      lopf.AllSnapshots(),
		Rescaling:      table,
		BigM:           cfg.Benders.BigM,
	}
	if err := opts.Validate(); err != nil {
		return lopf.Options{}, err
	}
	return opts, nil
}

func bendersOptions(cfg models.BendersConfig) benders.Options {
	bOpts := benders.DefaultOptions()
	bOpts.SplitSubproblems = cfg.SplitSubproblems
	bOpts.IndividualCuts = cfg.IndividualCuts
	bOpts.UpdateX = cfg.UpdateX
	if cfg.Tolerance != 0 {
		bOpts.Tolerance = cfg.Tolerance
	}
	if cfg.MIPGap != 0 {
		bOpts.MIPGap = cfg.MIPGap
	}
	if cfg.BigM != 0 {
		bOpts.BigM = cfg.BigM
	}
	return bOpts
}

func iterativeOptions(cfg models.IterativeConfig) iterative.Options {
	iterOpts := iterative.DefaultOptions()
	if cfg.Iterations != 0 {
		iterOpts.Iterations = cfg.Iterations
	}
	iterOpts.PostDiscretization = cfg.PostDiscretization
	iterOpts.SeqDiscretization = cfg.SeqDiscretization
	if cfg.SeqDiscretizationThreshold != 0 {
		iterOpts.SeqDiscretizationThreshold = cfg.SeqDiscretizationThreshold
	}
	if len(cfg.DiscretizationThresholds) != 0 {
		iterOpts.DiscretizationThresholds = cfg.DiscretizationThresholds
	}
	return iterOpts
}

func solveResponse(status solver.Status, objective float64, sol *lopf.Solution, trace *iterative.Trace) models.SolveResponse {
	resp := models.SolveResponse{
		Status:         status.String(),
		ObjectiveValue: objective,
	}
	if sol != nil {
		resp.Investment = models.InvestmentSummary{
			GeneratorPNomOpt:   sol.GPNomOpt,
			LineSNomOpt:        sol.LNSNomOpt,
			LinkPNomOpt:        sol.LKPNomOpt,
			StorageUnitPNomOpt: sol.SUPNomOpt,
			StoreENomOpt:       sol.STENomOpt,
		}
		if len(sol.G) > 0 || len(sol.LN) > 0 {
			resp.Dispatch = &models.DispatchSummary{
				Generation: sol.G,
				LineFlow:   sol.LN,
				LinkFlow:   sol.LK,
				SOC:        sol.SOC,
				Prices:     sol.Prices,
			}
		}
	}
	if trace != nil {
		resp.Trace = &models.IterativeTrace{
			Objectives: trace.Objectives,
			Capacities: trace.Capacities,
			Reactances: trace.Reactances,
		}
	}
	return resp
}

func respondError(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, models.ErrorResponse{Error: models.ErrorDetail{Code: errCode, Message: message}})
}

func respondSolveError(c *gin.Context, err error) {
	switch err.(type) {
	case *lopf.ConfigurationError, *lopf.UnsupportedFeatureError:
		respondError(c, http.StatusBadRequest, "UNSUPPORTED_CONFIGURATION", err.Error())
	default:
		respondError(c, http.StatusUnprocessableEntity, "SOLVE_FAILED", err.Error())
	}
}
