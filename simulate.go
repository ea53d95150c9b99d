package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/charmbracelet/log"
)

// Simulation statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var ErrSimulator = errors.New("simulator failed")

// MeasureToggle selects whether a qubit takes part in the reported
// distribution. Toggle is 1 when it does.
type MeasureToggle struct {
	Qubit  int `json:"qubit"`
	Toggle int `json:"toggle"`
}

// SimulateRequest carries a circuit snapshot and the measurement mask.
type SimulateRequest struct {
	Circuit   Document        `json:"circuit"`
	ToMeasure []MeasureToggle `json:"to_measure"`
}

// ProbeValue is the probability of |1> observed by the probe at (Row, Col).
type ProbeValue struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Value float64 `json:"value"`
}

// SimulateResponse is the outcome of one simulation.
type SimulateResponse struct {
	Status       string       `json:"status"`
	StateVector  []float64    `json:"state_vector,omitempty"`
	ProbedValues []ProbeValue `json:"probed_values,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// Simulator runs a circuit and reports measurement probabilities.
type Simulator interface {
	Simulate(ctx context.Context, req SimulateRequest) (SimulateResponse, error)
}

// NewSimulateRequest snapshots c together with a per-qubit measurement mask.
func NewSimulateRequest(c *Circuit, measure []bool) SimulateRequest {
	req := SimulateRequest{Circuit: c.Document()}
	for q := range c.NumQubits() {
		toggle := 0
		if q < len(measure) && measure[q] {
			toggle = 1
		}
		req.ToMeasure = append(req.ToMeasure, MeasureToggle{Qubit: q, Toggle: toggle})
	}
	return req
}

// measured returns the toggled qubits that exist in a register of n qubits.
func (r SimulateRequest) measured(n int) []int {
	var qubits []int
	for _, m := range r.ToMeasure {
		if m.Toggle == 1 && m.Qubit >= 0 && m.Qubit < n {
			qubits = append(qubits, m.Qubit)
		}
	}
	return qubits
}

// LocalSimulator runs circuits in process on a state vector.
type LocalSimulator struct{}

// Simulate applies the circuit column by column. Each probe reports the
// probability of its row reading |1> after all columns to its left; the
// state vector is the distribution over the measured qubits at the end.
func (l LocalSimulator) Simulate(ctx context.Context, req SimulateRequest) (SimulateResponse, error) {
	grid := Grid(req.Circuit.Gates)
	state, probes, err := l.Run(ctx, grid)
	if err != nil {
		return SimulateResponse{Status: StatusError, Message: err.Error()}, err
	}
	return SimulateResponse{
		Status:       StatusOK,
		StateVector:  state.Marginal(req.measured(len(grid))),
		ProbedValues: probes,
	}, nil
}

// Run evolves |0...0> through every column of grid and returns the final
// state together with the probe readings.
func (LocalSimulator) Run(ctx context.Context, grid Grid) (*StateVector, []ProbeValue, error) {
	n := len(grid)
	if n == 0 || n > MaxQubits {
		return nil, nil, fmt.Errorf("%d qubits: %w", n, ErrInvalidQubits)
	}

	state := NewStateVector(n)
	var probes []ProbeValue
	c := &Circuit{Grid: grid}
	for col := range grid.Width() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		column := c.Column(col)
		for row, t := range column {
			if t.Kind == KindProbe {
				probes = append(probes, ProbeValue{Row: row, Col: col, Value: state.ProbOne(row)})
			}
		}
		state.ApplyColumn(column)
	}
	return state, probes, nil
}

// HTTPSimulator posts requests to a remote simulate endpoint.
type HTTPSimulator struct {
	URL      string
	Client   *http.Client
	Attempts uint
	Logger   *log.Logger

	// NewBackOff returns the retry schedule for one call. Nil means
	// exponential backoff with the library defaults.
	NewBackOff func() backoff.BackOff
}

// NewHTTPSimulator returns a client for the simulate endpoint at url.
func NewHTTPSimulator(url string, timeout time.Duration, attempts uint, logger *log.Logger) *HTTPSimulator {
	return &HTTPSimulator{
		URL:      url,
		Client:   &http.Client{Timeout: timeout},
		Attempts: max(attempts, 1),
		Logger:   logger,
	}
}

// Simulate posts req and decodes the reply. Transport failures and 5xx
// replies are retried with exponential backoff; anything else fails at once.
func (h *HTTPSimulator) Simulate(ctx context.Context, req SimulateRequest) (SimulateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return SimulateResponse{Status: StatusError, Message: err.Error()}, err
	}

	schedule := backoff.BackOff(backoff.NewExponentialBackOff())
	if h.NewBackOff != nil {
		schedule = h.NewBackOff()
	}

	attempt := 0
	resp, err := backoff.Retry(ctx, func() (SimulateResponse, error) {
		attempt++
		resp, err := h.post(ctx, body)
		if err != nil && h.Logger != nil {
			h.Logger.Debug("simulate attempt failed", "url", h.URL, "attempt", attempt, "err", err)
		}
		return resp, err
	},
		backoff.WithBackOff(schedule),
		backoff.WithMaxTries(h.Attempts),
	)
	if err != nil {
		return SimulateResponse{Status: StatusError, Message: err.Error()}, fmt.Errorf("%w: %w", ErrSimulator, err)
	}
	if resp.Status != StatusOK {
		return resp, fmt.Errorf("%w: %s", ErrSimulator, resp.Message)
	}
	return resp, nil
}

func (h *HTTPSimulator) post(ctx context.Context, body []byte) (SimulateResponse, error) {
	var out SimulateResponse

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return out, backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(httpReq)
	if err != nil {
		return out, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return out, err
	}
	if res.StatusCode >= http.StatusInternalServerError {
		return out, fmt.Errorf("simulate: %s", res.Status)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, backoff.Permanent(fmt.Errorf("decode simulate response: %w", err))
	}
	return out, nil
}
