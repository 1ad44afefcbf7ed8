package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"TradeTerminal/internal/calculator"
	"TradeTerminal/internal/collector"
	"TradeTerminal/internal/config"
	"TradeTerminal/internal/scanner"

	"github.com/gin-gonic/gin"
	"github.com/guregu/null/v6"
)

const defaultHistoryLimit = 50

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// statusFor maps collector errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, collector.ErrUnknownSector),
		errors.Is(err, collector.ErrUnknownInstrument),
		errors.Is(err, collector.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, calculator.ErrInsufficientData):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// paramsFromQuery reads dashboard controls. Absent values stay unset so the
// collector applies its defaults.
func (s *Server) paramsFromQuery(c *gin.Context) (collector.Params, error) {
	p := collector.Params{
		Sector: c.Query("sector"),
		Asset:  c.Query("asset"),
		Range:  c.Query("range"),
		Style:  collector.ChartStyle(c.Query("style")),
	}
	if v, ok := c.GetQuery("ma"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("ma must be a boolean, got %q", v)
		}
		p.ShowMA = null.BoolFrom(b)
	}
	if v, ok := c.GetQuery("ma_period"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("ma_period must be an integer, got %q", v)
		}
		p.MAPeriod = n
	}
	return p, nil
}

// rangeFromQuery returns the range query param or the default.
func (s *Server) rangeFromQuery(c *gin.Context) (string, error) {
	r := c.DefaultQuery("range", s.Collector.Defaults.Range)
	if err := config.ValidateRange(r); err != nil {
		return "", err
	}
	return r, nil
}

func (s *Server) getHealth(c *gin.Context) {
	resp := gin.H{
		"status":      "ok",
		"provider":    s.Collector.Fetcher.Name(),
		"connections": s.Hub.ClientCount(),
	}
	if snap := s.Hub.Latest(); snap != nil {
		resp["latest_update"] = snap.GeneratedAt
		resp["provider_error"] = snap.ProviderError
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sectors": s.Catalog.Sectors,
		"macro":   s.Catalog.Macro,
		"ranges":  config.Ranges,
		"defaults": gin.H{
			"range":     s.Collector.Defaults.Range,
			"style":     s.Collector.Defaults.Style,
			"show_ma":   s.Collector.Defaults.ShowMA,
			"ma_period": s.Collector.Defaults.MAPeriod,
		},
		"ma_period_bounds": gin.H{
			"min":  config.MinMAPeriod,
			"max":  config.MaxMAPeriod,
			"step": config.MAPeriodStep,
		},
	})
}

func (s *Server) getDashboard(c *gin.Context) {
	p, err := s.paramsFromQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	snap, err := s.Collector.Build(c.Request.Context(), p)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) getChart(c *gin.Context) {
	p, err := s.paramsFromQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	view, err := s.Collector.Chart(c.Request.Context(), p)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) getMacro(c *gin.Context) {
	r, err := s.rangeFromQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	ticks, err := s.Collector.Macro(c.Request.Context(), r)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"range": r, "macro": ticks})
}

func (s *Server) getScanner(c *gin.Context) {
	r, err := s.rangeFromQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	desc := false
	switch sort := c.Query("sort"); sort {
	case "", "change":
	case "-change":
		desc = true
	default:
		badRequest(c, fmt.Errorf("sort must be change or -change, got %q", sort))
		return
	}

	results, err := s.Collector.Scanner(c.Request.Context(), r)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	rows := scanner.Rows(results)
	if c.Query("sort") != "" {
		rows = scanner.SortByChange(rows, desc)
	}

	skipped := make([]gin.H, 0)
	for _, res := range scanner.Skipped(results) {
		skipped = append(skipped, gin.H{
			"sector":     res.Sector,
			"instrument": res.Instrument,
			"symbol":     res.Symbol,
			"reason":     res.Skip,
		})
	}
	c.JSON(http.StatusOK, gin.H{"range": r, "rows": rows, "skipped": skipped})
}

func (s *Server) getSourcing(c *gin.Context) {
	entry, ok := s.Catalog.Find(c.Param("asset"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown instrument %q", c.Param("asset"))})
		return
	}
	c.JSON(http.StatusOK, s.Catalog.Sourcing(entry.Instrument.Name))
}

func (s *Server) historyLimit(c *gin.Context) (int, error) {
	v := c.Query("limit")
	if v == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", v)
	}
	return n, nil
}

func (s *Server) getRuns(c *gin.Context) {
	limit, err := s.historyLimit(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	runs, err := s.Recorder.RecentRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getHistory(c *gin.Context) {
	limit, err := s.historyLimit(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	points, err := s.Recorder.InstrumentHistory(c.Param("symbol"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": c.Param("symbol"), "points": points})
}
