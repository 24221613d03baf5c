package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/catalise/fundingest/internal/models"
	"github.com/catalise/fundingest/internal/services"
	"github.com/catalise/fundingest/internal/util"
)

// RunHandler exposes the run trigger and the latest report.
type RunHandler struct {
	svc *services.RunService
}

// NewRunHandler creates a new RunHandler
func NewRunHandler(svc *services.RunService) *RunHandler {
	return &RunHandler{svc: svc}
}

// TriggerRunRequest selects the dates and extract types of a run. With no
// date at all, the run covers the previous business day.
type TriggerRunRequest struct {
	Date     string   `json:"date"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Extracts []string `json:"extracts"`
}

// Trigger handles POST /runs: it executes a full run synchronously and
// returns the frozen summary.
func (h *RunHandler) Trigger(c *gin.Context) {
	var req TriggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	dates, err := resolveDates(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var extracts []models.ExtractType
	for _, name := range req.Extracts {
		e, err := models.ParseExtractType(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		extracts = append(extracts, e)
	}

	summary, err := h.svc.Execute(c.Request.Context(), services.RunRequest{Dates: dates, Extracts: extracts})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Latest handles GET /runs/latest.
func (h *RunHandler) Latest(c *gin.Context) {
	summary, err := h.svc.Latest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run recorded yet"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func resolveDates(req TriggerRunRequest) ([]string, error) {
	switch {
	case req.Start != "" || req.End != "":
		return util.BusinessDaysBetween(req.Start, req.End)
	case req.Date != "":
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			return nil, err
		}
		return []string{req.Date}, nil
	default:
		return []string{util.PreviousBusinessDay(time.Now())}, nil
	}
}
