package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/store"
)

func (s *Server) handleIndicators(c *gin.Context) {
	out, err := s.query.Indicators()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"indicators": out})
}

func (s *Server) handleScores(c *gin.Context) {
	preset := c.DefaultQuery("preset", model.PresetEqual)
	set, err := s.query.Scores(preset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, set)
}

// handleSimulate computes a one-off score set for caller-supplied weights
// without persisting anything.
func (s *Server) handleSimulate(c *gin.Context) {
	var body struct {
		Weights map[model.Category]float64 `json:"weights" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set, err := s.query.ScoresCustom(body.Weights)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, set)
}

func (s *Server) handleSnapshots(c *gin.Context) {
	to := time.Now().UTC()
	from := to.AddDate(0, -3, 0)

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from: " + err.Error()})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to: " + err.Error()})
			return
		}
		to = t
	}

	snaps, err := s.query.Snapshots(from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}

func (s *Server) handleLatestSnapshot(c *gin.Context) {
	snap, err := s.query.LatestSnapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"snapshot": nil, "insufficient": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snap})
}

func (s *Server) handleTakeSnapshot(c *gin.Context) {
	preset := c.DefaultQuery("preset", model.PresetEqual)
	snap, err := s.engine.Snapshot(preset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.query.Invalidate()
	c.JSON(http.StatusCreated, gin.H{"snapshot": snap})
}

func (s *Server) handleClaims(c *gin.Context) {
	filter := store.ClaimFilter{Limit: 50}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = n
	}
	if v := c.Query("tier"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !model.Tier(n).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tier"})
			return
		}
		filter.Tier = model.Tier(n)
	}
	filter.IncludeRetracted = c.Query("include_retracted") == "true"

	claims, err := s.query.RecentClaims(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

func (s *Server) handleSearch(c *gin.Context) {
	q := c.Query("q")
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	claims, err := s.query.SearchClaims(q, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

func (s *Server) handleClaim(c *gin.Context) {
	claim, links, err := s.query.ClaimLinks(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "claim not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": claim, "links": links})
}

func (s *Server) handleIngest(c *gin.Context) {
	var body struct {
		Claims []model.RawClaim `json:"claims" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body.Claims) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "claims list is empty"})
		return
	}

	results := s.batchFromRaws(c.Request.Context(), body.Claims)
	s.query.Invalidate()

	var ingested, duplicates, failed int
	type failure struct {
		Title string `json:"title"`
		Error string `json:"error"`
	}
	var failures []failure
	for _, r := range results {
		switch {
		case r.Error != nil:
			failed++
			failures = append(failures, failure{Title: r.Raw.Title, Error: r.Error.Error()})
		case r.Outcome.Duplicate:
			duplicates++
		default:
			ingested++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ingested":   ingested,
		"duplicates": duplicates,
		"failed":     failed,
		"failures":   failures,
	})
}

func (s *Server) handleRetract(c *gin.Context) {
	var body struct {
		Reason      string `json:"reason" binding:"required"`
		EvidenceURL string `json:"evidence_url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if body.EvidenceURL != "" {
		if err := s.checker.CheckURL(c.Request.Context(), body.EvidenceURL); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "evidence URL: " + err.Error()})
			return
		}
	}

	if err := s.store.Retract(c.Param("id"), body.Reason, body.EvidenceURL); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "claim not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.query.Invalidate()
	c.JSON(http.StatusOK, gin.H{"retracted": true})
}

func (s *Server) handleCorroborate(c *gin.Context) {
	promoted, err := s.scanner.ScanOnce()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	violations, err := s.scanner.Audit()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.query.Invalidate()
	c.JSON(http.StatusOK, gin.H{"promoted": promoted, "integrity_violations": violations})
}

func (s *Server) handleBudget(c *gin.Context) {
	c.JSON(http.StatusOK, s.query.BudgetStatus())
}

func (s *Server) handleAudit(c *gin.Context) {
	entries, err := s.store.AuditTrail(c.Param("entity"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
