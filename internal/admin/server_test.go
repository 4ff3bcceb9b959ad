package admin

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"relaychain-sim/internal/chain"
	"relaychain-sim/internal/environment"
	"relaychain-sim/internal/propagation"
	"relaychain-sim/internal/sim"
	"relaychain-sim/internal/telemetry"
)

func newTestSim(t *testing.T, ticks int) *sim.Simulator {
	t.Helper()
	m, err := chain.NewManager(chain.ManagerConfig{
		Channel: propagation.DefaultChannelParameters(),
		Policy:  chain.DistancePolicy{MaxHopM: 1000},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	s := sim.NewSimulator("admin-test", sim.Config{Step: chain.Position{X: 10, Y: 10}}, m, sim.Writers{}, nil, nil)
	for i := 0; i < ticks; i++ {
		if _, err := s.Step(context.Background()); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	return s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHandleStatus(t *testing.T) {
	server := NewServer(newTestSim(t, 80), nil, nil)
	rr := get(t, server.Handler(), "/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var st telemetry.StatusRow
	if err := json.NewDecoder(rr.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Tick != 80 || st.RelayCount != 1 || st.RunID != "admin-test" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestHandleLinksAndEntities(t *testing.T) {
	server := NewServer(newTestSim(t, 80), nil, nil)
	h := server.Handler()

	var links []telemetry.LinkRow
	if err := json.NewDecoder(get(t, h, "/links").Body).Decode(&links); err != nil {
		t.Fatalf("decode links: %v", err)
	}
	if len(links) != 2 || links[0].From != "mobile" || links[1].To != "operator" {
		t.Fatalf("unexpected links %+v", links)
	}

	var entities []chain.Drone
	if err := json.NewDecoder(get(t, h, "/entities").Body).Decode(&entities); err != nil {
		t.Fatalf("decode entities: %v", err)
	}
	if len(entities) != 3 || entities[0].Role != chain.RoleMobile || entities[2].Role != chain.RoleOperator {
		t.Fatalf("unexpected entities %+v", entities)
	}
}

func TestHandleEvents(t *testing.T) {
	server := NewServer(newTestSim(t, 80), nil, nil)
	h := server.Handler()

	var events []sim.Event
	if err := json.NewDecoder(get(t, h, "/events").Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].Type != sim.EventRelayDeployed || events[0].Tick != 71 {
		t.Fatalf("unexpected events %+v", events)
	}

	events = nil
	if err := json.NewDecoder(get(t, h, "/events?since=1").Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events after index 1, got %d", len(events))
	}

	if rr := get(t, h, "/events?since=abc"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad since, got %d", rr.Code)
	}
}

func TestHandleGrid(t *testing.T) {
	s := newTestSim(t, 10)
	if rr := get(t, NewServer(s, nil, nil).Handler(), "/grid"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without grid, got %d", rr.Code)
	}

	g, err := environment.NewGridWithSources(environment.GridConfig{Width: 2, Height: 2, CellSizeM: 100}, nil)
	if err != nil {
		t.Fatalf("NewGridWithSources: %v", err)
	}
	rr := get(t, NewServer(s, g, nil).Handler(), "/grid")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	// mobile at (100,100) lands in the upper right cell
	if got := rr.Body.String(); got != ".D\nO.\n" {
		t.Fatalf("unexpected grid %q", got)
	}
}

func TestHandleIndexAndSummary(t *testing.T) {
	server := NewServer(newTestSim(t, 5), nil, nil)
	h := server.Handler()
	rr := get(t, h, "/")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "admin-test") {
		t.Fatalf("unexpected index response %d", rr.Code)
	}
	if rr := get(t, h, "/nope"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	var sum sim.Summary
	if err := json.NewDecoder(get(t, h, "/summary").Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Ticks != 5 || sum.RunID != "admin-test" {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	mw, err := sim.NewMetricsWriter(reg)
	if err != nil {
		t.Fatalf("NewMetricsWriter: %v", err)
	}
	_ = mw.WriteStatus(telemetry.StatusRow{RelayCount: 2})
	server := NewServer(newTestSim(t, 1), nil, mw.Handler())
	rr := get(t, server.Handler(), "/metrics")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "relaysim_relay_count 2") {
		t.Fatalf("unexpected metrics response %d:\n%s", rr.Code, rr.Body.String())
	}
	if rr := get(t, NewServer(newTestSim(t, 1), nil, nil).Handler(), "/metrics"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected no metrics route without handler, got %d", rr.Code)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	server := NewServer(newTestSim(t, 1), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx, "127.0.0.1:0", func(a net.Addr) { addrCh <- a }) }()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("Start returned early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not start")
	}
	resp, err := http.Get("http://" + addr.String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("server did not stop")
	}
}
