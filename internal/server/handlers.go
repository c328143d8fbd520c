// Package server exposes a constellation instance over HTTP and WebSocket for
// diagnostic clients: geometry, live decisions, soft-decision heatmaps, and
// link simulations with streamed progress.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeongseonghan/constel/constellation"
	"github.com/jeongseonghan/constel/internal/sim"
)

// Handlers holds the HTTP API handlers for one constellation instance.
type Handlers struct {
	name    string
	decider constellation.Decider
	soft    *constellation.SoftDecider
	wsHub   *WSHub
	logger  *log.Logger
	mu      sync.Mutex // serializes simulation runs
}

// NewHandlers creates handlers around a built decider and soft decider.
func NewHandlers(name string, decider constellation.Decider, soft *constellation.SoftDecider, logger *log.Logger) *Handlers {
	return &Handlers{
		name:    name,
		decider: decider,
		soft:    soft,
		wsHub:   NewWSHub(logger),
		logger:  logger,
	}
}

// HandleWebSocket upgrades a telemetry connection.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade", "err", err)
		return
	}

	h.wsHub.AddClient(conn)

	go func() {
		defer h.wsHub.RemoveClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

type pointJSON struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

// HandleConstellation returns the constellation geometry.
func (h *Handlers) HandleConstellation(w http.ResponseWriter, r *http.Request) {
	ps := h.decider.PointSet()

	points := make([][]pointJSON, ps.Arity())
	for i := range points {
		tuple := ps.MapToPoint(i)
		points[i] = make([]pointJSON, len(tuple))
		for d, p := range tuple {
			points[i][d] = pointJSON{Re: real(p), Im: imag(p)}
		}
	}

	b := ps.BoundingBox()
	json.NewEncoder(w).Encode(map[string]interface{}{
		"name":               h.name,
		"arity":              ps.Arity(),
		"dimensionality":     ps.Dimensionality(),
		"rotationalSymmetry": ps.RotationalSymmetry(),
		"scaleFactor":        ps.ScaleFactor(),
		"bitsPerSymbol":      ps.BitsPerSymbol(),
		"preDiffCode":        ps.PreDiffCode(),
		"points":             points,
		"bounds": map[string]float64{
			"reMin": b.ReMin, "reMax": b.ReMax,
			"imMin": b.ImMin, "imMax": b.ImMax,
		},
	})
}

// HandleDecide decides a batch of samples, returning the hard symbol index,
// phase error and LLR vector per sample.
func (h *Handlers) HandleDecide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Samples [][]pointJSON `json:"samples"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Parse request: %v", err), http.StatusBadRequest)
		return
	}

	ps := h.decider.PointSet()
	type decision struct {
		Symbol     int       `json:"symbol"`
		PhaseError float64   `json:"phaseError"`
		LLR        []float64 `json:"llr,omitempty"`
	}

	out := make([]decision, 0, len(req.Samples))
	for i, s := range req.Samples {
		if len(s) != ps.Dimensionality() {
			http.Error(w, fmt.Sprintf("sample %d has %d components, want %d", i, len(s), ps.Dimensionality()),
				http.StatusBadRequest)
			return
		}
		sample := make([]complex128, len(s))
		for d, p := range s {
			sample[d] = complex(p.Re, p.Im)
		}

		symbol, phaseError := constellation.DecideWithPhaseError(h.decider, sample)
		d := decision{Symbol: symbol, PhaseError: phaseError}
		if h.soft != nil && ps.Dimensionality() == 1 {
			llr, err := h.soft.SoftDecision(sample[0])
			if err != nil {
				http.Error(w, fmt.Sprintf("soft decision: %v", err), http.StatusUnprocessableEntity)
				return
			}
			d.LLR = llr
		}
		out = append(out, d)
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"decisions": out})
}

// HandleSimulate starts a link simulation in the background; progress and the
// final result stream over the WebSocket hub.
func (h *Handlers) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		NoisePower float64 `json:"noisePower"`
		Symbols    int     `json:"symbols"`
		Seed       int64   `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Parse request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Symbols <= 0 {
		req.Symbols = 100000
	}
	if req.NoisePower <= 0 {
		if h.soft == nil {
			http.Error(w, "noisePower must be positive", http.StatusBadRequest)
			return
		}
		req.NoisePower = h.soft.NoisePower()
	}

	go func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		h.wsHub.BroadcastStatus("running", fmt.Sprintf("Simulating %d symbols at noise power %g", req.Symbols, req.NoisePower))

		res, err := sim.Run(sim.Params{
			Decider:    h.decider,
			Soft:       h.soft,
			NoisePower: req.NoisePower,
			Symbols:    req.Symbols,
			Seed:       req.Seed,
			Progress: func(done, total int) {
				h.wsHub.BroadcastProgress("running", "simulating", float64(done)/float64(total), done, total)
			},
		})
		if err != nil {
			h.logger.Error("simulation failed", "err", err)
			h.wsHub.BroadcastStatus("error", err.Error())
			return
		}

		payload := ResultPayload{
			Symbols:      res.Symbols,
			SymbolErrors: res.SymbolErrors,
			BitErrors:    res.BitErrors,
			SER:          res.SER(),
			BER:          res.BER(),
		}
		if h.soft != nil {
			payload.SoftBER = res.SoftBER()
		}
		h.logger.Info("simulation finished", "symbols", res.Symbols, "ser", res.SER(), "ber", res.BER())
		h.wsHub.BroadcastResult(payload)
	}()

	json.NewEncoder(w).Encode(map[string]string{"status": "running"})
}

// HandleHeatmap builds a soft-decision table and returns the raster of LLR
// vectors for visualization.
func (h *Handlers) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Precision  int     `json:"precision"`
		NoisePower float64 `json:"noisePower"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Parse request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Precision <= 0 || req.Precision > 10 {
		http.Error(w, "precision must be in [1, 10]", http.StatusBadRequest)
		return
	}
	if req.NoisePower <= 0 && h.soft != nil {
		req.NoisePower = h.soft.NoisePower()
	}
	if req.NoisePower <= 0 {
		http.Error(w, "noisePower must be positive", http.StatusBadRequest)
		return
	}

	ps := h.decider.PointSet()
	if ps.Dimensionality() != 1 {
		http.Error(w, "heatmaps require a dimensionality-1 constellation", http.StatusUnprocessableEntity)
		return
	}

	table := ps.BuildSoftDecisionTable(req.Precision, req.NoisePower)
	b := table.Bounds()
	json.NewEncoder(w).Encode(map[string]interface{}{
		"gridSize":   1 << req.Precision,
		"precision":  req.Precision,
		"noisePower": req.NoisePower,
		"bounds": map[string]float64{
			"reMin": b.ReMin, "reMax": b.ReMax,
			"imMin": b.ImMin, "imMax": b.ImMax,
		},
		"cells": table.Values(),
	})
}
