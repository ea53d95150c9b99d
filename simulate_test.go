package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulateGrid(t *testing.T, g Grid, measure ...int) SimulateResponse {
	t.Helper()
	mask := make([]bool, len(g))
	for _, q := range measure {
		mask[q] = true
	}
	resp, err := LocalSimulator{}.Simulate(context.Background(), NewSimulateRequest(&Circuit{Grid: g}, mask))
	require.NoError(t, err)
	require.Equal(t, StatusOK, resp.Status)
	return resp
}

func TestNewSimulateRequest(t *testing.T) {
	c := NewCircuit(3)
	c.AddGate(0, 0, GateH)

	req := NewSimulateRequest(c, []bool{false, true})
	assert.Equal(t, []MeasureToggle{{0, 0}, {1, 1}, {2, 0}}, req.ToMeasure)
	assert.Equal(t, 3, req.Circuit.Qubits)

	// The request holds a snapshot.
	c.AddGate(1, 0, GateX)
	assert.True(t, req.Circuit.Gates[1][0].IsEmpty())
}

func TestLocalSimulatorBell(t *testing.T) {
	resp := simulateGrid(t, mustGrid(t, "H c 0", "0 X 0", "0 0 0"), 0, 1)
	assert.InDeltaSlice(t, []float64{0.5, 0, 0, 0.5}, resp.StateVector, eps)
	assert.Empty(t, resp.ProbedValues)
}

func TestLocalSimulatorNoMeasuredQubits(t *testing.T) {
	resp := simulateGrid(t, mustGrid(t, "H 0", "0 0", "0 0"))
	assert.InDeltaSlice(t, []float64{1}, resp.StateVector, eps)
}

func TestLocalSimulatorProbes(t *testing.T) {
	resp := simulateGrid(t, mustGrid(t,
		"M H M X M 0",
		"0 0 0 0 0 0",
		"0 0 0 0 0 0",
	), 0)

	require.Len(t, resp.ProbedValues, 3)
	want := []ProbeValue{{0, 0, 0}, {0, 2, 0.5}, {0, 4, 0.5}}
	for i, pv := range resp.ProbedValues {
		assert.Equal(t, want[i].Row, pv.Row)
		assert.Equal(t, want[i].Col, pv.Col)
		assert.InDelta(t, want[i].Value, pv.Value, eps)
	}
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, resp.StateVector, eps)
}

func TestLocalSimulatorProbeInGateColumn(t *testing.T) {
	// The probe reads the state before its own column acts.
	resp := simulateGrid(t, mustGrid(t, "X 0", "M 0", "X 0"))
	require.Len(t, resp.ProbedValues, 1)
	assert.InDelta(t, 0.0, resp.ProbedValues[0].Value, eps)
}

func TestLocalSimulatorBarrierAndInvalidSwap(t *testing.T) {
	resp := simulateGrid(t, mustGrid(t, "X b Esw 0", "0 b 0 0", "0 b 0 0"), 0, 1)
	assert.InDeltaSlice(t, []float64{0, 0, 1, 0}, resp.StateVector, eps)
}

func TestLocalSimulatorRejectsEmptyGrid(t *testing.T) {
	resp, err := LocalSimulator{}.Simulate(context.Background(), SimulateRequest{})
	assert.ErrorIs(t, err, ErrInvalidQubits)
	assert.Equal(t, StatusError, resp.Status)
}

func fastBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(time.Millisecond)
}

func TestHTTPSimulatorRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		var req SimulateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, _ := LocalSimulator{}.Simulate(r.Context(), req)
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	sim := NewHTTPSimulator(srv.URL, time.Second, 5, nil)
	sim.NewBackOff = fastBackOff

	c := NewCircuit(3)
	c.AddGate(0, 0, GateX)
	resp, err := sim.Simulate(context.Background(), NewSimulateRequest(c, []bool{true}))
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.InDeltaSlice(t, []float64{0, 1}, resp.StateVector, eps)
}

func TestHTTPSimulatorGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sim := NewHTTPSimulator(srv.URL, time.Second, 2, nil)
	sim.NewBackOff = fastBackOff

	resp, err := sim.Simulate(context.Background(), NewSimulateRequest(NewCircuit(3), nil))
	assert.ErrorIs(t, err, ErrSimulator)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPSimulatorBadReplyIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	sim := NewHTTPSimulator(srv.URL, time.Second, 5, nil)
	sim.NewBackOff = fastBackOff

	_, err := sim.Simulate(context.Background(), NewSimulateRequest(NewCircuit(3), nil))
	assert.ErrorIs(t, err, ErrSimulator)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPSimulatorErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SimulateResponse{Status: StatusError, Message: "boom"})
	}))
	defer srv.Close()

	sim := NewHTTPSimulator(srv.URL, time.Second, 1, nil)
	resp, err := sim.Simulate(context.Background(), NewSimulateRequest(NewCircuit(3), nil))
	assert.ErrorIs(t, err, ErrSimulator)
	assert.Equal(t, "boom", resp.Message)
}
