package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mfenwick/oncall-roster/pkg/core/engine"
	"github.com/mfenwick/oncall-roster/pkg/export"
	"github.com/mfenwick/oncall-roster/pkg/history"
	"github.com/mfenwick/oncall-roster/pkg/roster"
)

type uploadRosterRequest struct {
	Users []string `json:"users" binding:"required"`
}

// uploadRoster replaces the staged roster for one tier
func (s *Server) uploadRoster(c *gin.Context) {
	tier := engine.Tier(c.Param("tier"))

	var req uploadRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, fmt.Errorf("invalid roster payload: %w", err))
		return
	}
	if len(req.Users) == 0 {
		s.error(c, http.StatusBadRequest, fmt.Errorf("no users provided"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch tier {
	case engine.TierTwo:
		s.rosters.Tier2 = req.Users
	case engine.TierThree:
		s.rosters.Tier3 = req.Users
	case engine.TierUpgrade:
		s.rosters.Upgrade = req.Users
	default:
		s.error(c, http.StatusBadRequest, fmt.Errorf("unknown tier %q", tier))
		return
	}

	s.logger.Info("Roster staged", zap.String("tier", string(tier)), zap.Int("count", len(req.Users)))
	c.JSON(http.StatusOK, gin.H{"tier": tier, "count": len(req.Users)})
}

type ptoRequest struct {
	User string `json:"user" binding:"required"`
	// Ranges is a comma-separated list of DD/MM/YYYY-DD/MM/YYYY ranges
	Ranges string `json:"ranges" binding:"required"`
}

// addPTO stages PTO ranges for a user, validating them up front
func (s *Server) addPTO(c *gin.Context) {
	var req ptoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, fmt.Errorf("invalid pto payload: %w", err))
		return
	}

	dates, err := roster.ParseDateRanges(req.Ranges)
	if err != nil {
		s.error(c, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.pto[req.User]; ok {
		s.pto[req.User] = existing + "," + req.Ranges
	} else {
		s.pto[req.User] = req.Ranges
	}

	s.logger.Info("PTO staged", zap.String("user", req.User), zap.Int("days", len(dates)))
	c.JSON(http.StatusOK, gin.H{"user": req.User, "days": len(dates)})
}

type generateRequest struct {
	// Month is the target month in MM/YYYY form
	Month string `json:"month" binding:"required"`
	Seed  *int64 `json:"seed,omitempty"`
	// DryRun skips committing cumulative history
	DryRun bool `json:"dryRun,omitempty"`
}

type generateResponse struct {
	RunID     string                 `json:"runId"`
	Year      int                    `json:"year"`
	Month     string                 `json:"month"`
	Rows      [][]string             `json:"rows"`
	Summary   [][]string             `json:"summary"`
	Notes     []string               `json:"notes"`
	Fallbacks []engine.FallbackEvent `json:"fallbacks"`
	Report    engine.Report          `json:"report"`
}

// generate runs the engine over the staged inputs
func (s *Server) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, fmt.Errorf("invalid generate payload: %w", err))
		return
	}

	year, month, err := roster.ParseMonth(req.Month)
	if err != nil {
		s.error(c, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	rosters := s.rosters
	pto := make(map[string]string, len(s.pto))
	for user, ranges := range s.pto {
		pto[user] = ranges
	}
	s.mu.Unlock()

	unavail, err := roster.BuildUnavailable(pto, nil, year, month)
	if err != nil {
		s.error(c, http.StatusBadRequest, err)
		return
	}

	s.genMu.Lock()
	defer s.genMu.Unlock()

	state, err := s.store.Load(c.Request.Context())
	if err != nil {
		s.error(c, http.StatusInternalServerError, err)
		return
	}

	result, err := engine.Generate(engine.Input{
		Rosters:      rosters,
		Unavailable:  unavail,
		Year:         year,
		Month:        month,
		Continuation: engine.ContinuationState{LastWeekly: state.LastWeekly},
		Cumulative:   state.Cumulative,
		Seed:         req.Seed,
	})
	if err != nil {
		s.error(c, http.StatusBadRequest, err)
		return
	}

	if !req.DryRun {
		err = s.store.Save(c.Request.Context(), history.State{
			Cumulative: result.Cumulative,
			LastWeekly: result.Continuation.LastWeekly,
		})
		if err != nil {
			s.error(c, http.StatusInternalServerError, err)
			return
		}
	}

	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	s.logger.Info("Schedule generated via API",
		zap.String("run_id", result.RunID),
		zap.Int("critical", len(result.Report.Critical)))

	c.JSON(http.StatusOK, generateResponse{
		RunID:     result.RunID,
		Year:      result.Year,
		Month:     result.Month.String(),
		Rows:      export.ScheduleRows(result),
		Summary:   export.SummaryRows(result),
		Notes:     result.Notes,
		Fallbacks: result.Fallbacks,
		Report:    result.Report,
	})
}

// exportCSV downloads the most recently generated schedule
func (s *Server) exportCSV(c *gin.Context) {
	s.mu.Lock()
	result := s.lastResult
	s.mu.Unlock()

	if result == nil {
		s.error(c, http.StatusNotFound, fmt.Errorf("no schedule generated yet"))
		return
	}

	filename := fmt.Sprintf("oncall_schedule_%d_%02d.csv", result.Year, int(result.Month))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := export.WriteCSV(c.Writer, result); err != nil {
		s.logger.Error("CSV export failed", zap.Error(err))
	}
}
