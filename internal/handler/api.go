package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memetracker/internal/analyzer"
	"memetracker/internal/models"
	"memetracker/internal/repository"
	"memetracker/internal/stats"
	"memetracker/internal/tracker"
)

// API is the thin HTTP surface over the analyzer, repository, and stats
// services. Handlers translate and delegate; domain rules live below.
type API struct {
	Analyzer   *analyzer.Service
	Repo       repository.Repository
	Stats      *stats.Service
	DeadLetter *tracker.DeadLetter
	Logger     *zap.Logger
}

func (a *API) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/calls", a.createCall)
		v1.GET("/calls", a.listCalls)
		v1.GET("/calls/:address/history", a.callHistory)

		v1.POST("/decisions", a.createDecision)
		v1.POST("/decisions/:address/convert", a.convertWatch)
		v1.POST("/decisions/:address/demote", a.demoteWatch)
		v1.POST("/decisions/:address/exit", a.recordExit)

		v1.GET("/positions", a.listPositions)
		v1.GET("/watchlist", a.watchlist)

		v1.GET("/sources", a.listSources)
		v1.GET("/wallets", a.listWallets)
		v1.POST("/wallets", a.addWallet)
		v1.POST("/wallets/import", a.importWallets)
		v1.DELETE("/wallets/:address", a.removeWallet)

		v1.GET("/deadletter", a.deadLetter)
		v1.POST("/stats/rebuild", a.rebuildStats)
	}
}

type createCallRequest struct {
	ContractAddress string   `json:"contract_address" binding:"required"`
	TokenSymbol     string   `json:"token_symbol"`
	TokenName       string   `json:"token_name"`
	Blockchain      string   `json:"blockchain"`
	Sources         []string `json:"sources" binding:"required,min=1"`
}

func (a *API) createCall(c *gin.Context) {
	var req createCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	analysis, err := a.Analyzer.AnalyzeCall(c.Request.Context(), analyzer.CallRequest{
		ContractAddress: req.ContractAddress,
		TokenSymbol:     req.TokenSymbol,
		TokenName:       req.TokenName,
		Blockchain:      req.Blockchain,
		Sources:         req.Sources,
	})
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{
		"call":          analysis.Call,
		"snapshot":      analysis.Snapshot,
		"duplicate":     analysis.Duplicate,
		"data_known":    analysis.DataKnown,
		"safety_score":  analysis.SafetyScore,
		"momentum":      analysis.Momentum,
		"honeypot_risk": analysis.HoneypotRisk,
		"distribution":  analysis.Distribution,
		"red_flags":     analysis.RedFlags,
		"smart_money":   analysis.SmartMoney,
	}, nil)
}

func (a *API) listCalls(c *gin.Context) {
	params := repository.ListCallsParams{
		Limit:  queryInt(c, "limit", 100),
		Offset: queryInt(c, "offset", 0),
	}
	if src := c.Query("source"); src != "" {
		params.Source = &src
	}
	items, err := a.Repo.ListCalls(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (a *API) callHistory(c *gin.Context) {
	call, err := a.Repo.GetCallByAddress(c.Request.Context(), c.Param("address"))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if call == nil {
		Error(c, http.StatusNotFound, "unknown call", nil)
		return
	}
	points, err := a.Repo.ListHistory(c.Request.Context(), call.ID, queryInt(c, "limit", 500))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, points, map[string]any{"count": len(points)})
}

type createDecisionRequest struct {
	ContractAddress string   `json:"contract_address" binding:"required"`
	Status          string   `json:"status" binding:"required"`
	TradeSizeUSD    *float64 `json:"trade_size_usd"`
	EntryPrice      *float64 `json:"entry_price"`
	Reasoning       string   `json:"reasoning"`
	Confidence      int      `json:"confidence"`
	EmotionalState  string   `json:"emotional_state"`
	ChartAssessment string   `json:"chart_assessment"`
}

func (a *API) createDecision(c *gin.Context) {
	var req createDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := a.Analyzer.RecordDecision(c.Request.Context(), analyzer.DecisionRequest{
		ContractAddress: req.ContractAddress,
		Status:          req.Status,
		TradeSizeUSD:    req.TradeSizeUSD,
		EntryPrice:      req.EntryPrice,
		Reasoning:       req.Reasoning,
		Confidence:      req.Confidence,
		EmotionalState:  req.EmotionalState,
		ChartAssessment: req.ChartAssessment,
	})
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

type convertRequest struct {
	EntryPrice   *float64 `json:"entry_price"`
	TradeSizeUSD *float64 `json:"trade_size_usd"`
}

func (a *API) convertWatch(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := a.Analyzer.ConvertToTrade(c.Request.Context(), c.Param("address"), req.EntryPrice, req.TradeSizeUSD)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (a *API) demoteWatch(c *gin.Context) {
	item, err := a.Analyzer.DemoteWatch(c.Request.Context(), c.Param("address"))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

type exitRequest struct {
	ExitPrice float64 `json:"exit_price" binding:"required,gt=0"`
}

func (a *API) recordExit(c *gin.Context) {
	var req exitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := a.Analyzer.RecordExit(c.Request.Context(), c.Param("address"), req.ExitPrice)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (a *API) listPositions(c *gin.Context) {
	items, err := a.Repo.ListOpenPositions(c.Request.Context(), repository.OpenPositionsParams{
		Limit: queryInt(c, "limit", 200),
	})
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (a *API) watchlist(c *gin.Context) {
	items, err := a.Repo.ListOpenPositions(c.Request.Context(), repository.OpenPositionsParams{
		Limit:    queryInt(c, "limit", 200),
		Statuses: []string{models.DecisionWatch},
	})
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (a *API) listSources(c *gin.Context) {
	params := repository.ListStatsParams{
		Limit:  queryInt(c, "limit", 100),
		Offset: queryInt(c, "offset", 0),
	}
	if tier := c.Query("tier"); tier != "" {
		params.Tier = &tier
	}
	items, err := a.Repo.ListSourceStats(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (a *API) listWallets(c *gin.Context) {
	items, err := a.Repo.ListWallets(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

type addWalletRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	WalletName    string `json:"wallet_name"`
	Notes         string `json:"notes"`
}

func (a *API) addWallet(c *gin.Context) {
	var req addWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := a.Analyzer.AddWallet(c.Request.Context(), req.WalletAddress, req.WalletName, req.Notes)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (a *API) importWallets(c *gin.Context) {
	var req []analyzer.WalletImport
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	added, err := a.Analyzer.ImportWallets(c.Request.Context(), req)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), map[string]any{"added": added})
		return
	}
	Ok(c, gin.H{"added": added}, nil)
}

func (a *API) removeWallet(c *gin.Context) {
	if err := a.Analyzer.RemoveWallet(c.Request.Context(), c.Param("address")); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"removed": true}, nil)
}

func (a *API) deadLetter(c *gin.Context) {
	entries, err := a.DeadLetter.Entries()
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, entries, map[string]any{"count": len(entries)})
}

func (a *API) rebuildStats(c *gin.Context) {
	if err := a.Stats.RebuildAll(c.Request.Context()); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"rebuilt": true}, nil)
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
