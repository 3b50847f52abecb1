package handlers

import (
	"errors"
	"net/http"
	"time"

	"keytrace/internal/aggregate"
	"keytrace/internal/models"
	"keytrace/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
)

// Summary states shown by the dashboard.
const (
	stateNoData = "no_data"
	stateEmpty  = "empty"
	stateReady  = "ready"
)

type SummariesHandler struct {
	log     *zap.Logger
	service *aggregate.Service
}

func NewSummariesHandler(log *zap.Logger, service *aggregate.Service) *SummariesHandler {
	return &SummariesHandler{log: log, service: service}
}

// All returns every task summary for the caller's session.
func (h *SummariesHandler) All(c *gin.Context) {
	summaries, ok := h.load(c)
	if !ok {
		return
	}
	ordered := make([]aggregate.Summary, 0, len(models.SummaryTaskTypes))
	for _, t := range models.SummaryTaskTypes {
		if s, found := aggregate.Select(summaries, t); found {
			ordered = append(ordered, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{"summaries": ordered})
}

// One returns a single task's summary with its presentation state.
func (h *SummariesHandler) One(c *gin.Context) {
	taskType, err := models.ParseTaskType(c.Param("task"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"state": stateNoData})
		return
	}

	summaries, ok := h.load(c)
	if !ok {
		return
	}
	s, found := aggregate.Select(summaries, taskType)
	switch {
	case !found:
		c.JSON(http.StatusOK, gin.H{"state": stateNoData})
	case s.Empty():
		c.JSON(http.StatusOK, gin.H{"state": stateEmpty, "summary": s})
	default:
		c.JSON(http.StatusOK, gin.H{"state": stateReady, "summary": s})
	}
}

// Chart returns ECharts options for one task's keystroke or pointer series.
func (h *SummariesHandler) Chart(c *gin.Context) {
	taskType, err := models.ParseTaskType(c.Param("task"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind := c.DefaultQuery("kind", "keystroke")
	if kind != "keystroke" && kind != "pointer" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be keystroke or pointer"})
		return
	}

	summaries, ok := h.load(c)
	if !ok {
		return
	}
	s, found := aggregate.Select(summaries, taskType)
	if !found {
		c.JSON(http.StatusOK, gin.H{"state": stateNoData})
		return
	}

	var line *charts.Line
	if kind == "pointer" {
		line = pointerChart(s)
	} else {
		line = keystrokeChart(s)
	}
	c.JSON(http.StatusOK, line.JSON())
}

func (h *SummariesHandler) load(c *gin.Context) (map[models.TaskType]aggregate.Summary, bool) {
	sessionID := session.ID(c)
	summaries, err := h.service.Summaries(c.Request.Context(), sessionID)
	if err == nil {
		return summaries, true
	}

	var fetchErr *aggregate.FetchError
	switch {
	case errors.Is(err, models.ErrMissingSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &fetchErr):
		h.log.Error("Failed to load statistics", zap.String("collection", fetchErr.Collection), zap.Error(fetchErr.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
	default:
		h.log.Error("Failed to load statistics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
	}
	return nil, false
}

func newTimeline(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time"}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Name:  yName,
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	return line
}

func point(ts models.Millis, v float64) opts.LineData {
	return opts.LineData{Value: []interface{}{ts.Time().Format(time.RFC3339Nano), v}}
}

func keystrokeChart(s aggregate.Summary) *charts.Line {
	line := newTimeline("Keystroke Patterns", s.TaskType.String(), "ms")
	dwell := make([]opts.LineData, 0, len(s.KeystrokePatterns))
	flight := make([]opts.LineData, 0, len(s.KeystrokePatterns))
	for _, p := range s.KeystrokePatterns {
		dwell = append(dwell, point(p.Timestamp, p.DwellTime))
		flight = append(flight, point(p.Timestamp, p.FlightTime))
	}
	line.AddSeries("Dwell Time", dwell).
		AddSeries("Flight Time", flight).
		SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}

func pointerChart(s aggregate.Summary) *charts.Line {
	line := newTimeline("Pointer Movements", s.TaskType.String(), "px/ms")
	speed := make([]opts.LineData, 0, len(s.PointerMovements))
	accel := make([]opts.LineData, 0, len(s.PointerMovements))
	for _, m := range s.PointerMovements {
		speed = append(speed, point(m.Timestamp, m.Speed))
		accel = append(accel, point(m.Timestamp, m.Acceleration))
	}
	line.AddSeries("Speed", speed).
		AddSeries("Acceleration", accel).
		SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}
