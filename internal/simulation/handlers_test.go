package simulation

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/brianbtrfld/sram-ebike/internal/ride"
	"github.com/brianbtrfld/sram-ebike/internal/telemetry"
	"github.com/brianbtrfld/sram-ebike/internal/upload"

	"github.com/gofiber/fiber/v2"
)

type recordingHub struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (h *recordingHub) Broadcast(topic string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.messages == nil {
		h.messages = map[string][][]byte{}
	}
	h.messages[topic] = append(h.messages[topic], payload)
}

func (h *recordingHub) count(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages[topic])
}

type stubUploader struct {
	got ride.Ride
	err error
}

func (u *stubUploader) Upload(r ride.Ride) (upload.Receipt, error) {
	u.got = r
	if u.err != nil {
		return upload.Receipt{}, u.err
	}
	return upload.Receipt{StatusCode: http.StatusCreated}, nil
}

func newTestApp() (*fiber.App, *recordingHub, *stubUploader) {
	hub := &recordingHub{}
	up := &stubUploader{}
	app := fiber.New()
	RegisterRoutes(app.Group("/simulation"), newTestService(), hub, up)
	return app, hub, up
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func get(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestSimulationHandlersLifecycle(t *testing.T) {
	app, hub, _ := newTestApp()

	resp := get(t, app, "/simulation/telemetry")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 before start, got %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/simulation/start", StartRequest{RideType: "chill"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status %d", resp.StatusCode)
	}
	var msg map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&msg)
	if msg["message"] != StartedMessage {
		t.Fatalf("unexpected start message %v", msg)
	}

	for i := 0; i < 3; i++ {
		resp = get(t, app, "/simulation/telemetry")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("telemetry %d status %d", i, resp.StatusCode)
		}
		var frame telemetry.Frame
		if err := json.NewDecoder(resp.Body).Decode(&frame); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if frame.BatteryPercentage >= 100 {
			t.Fatalf("expected battery drain")
		}
	}

	resp = get(t, app, "/simulation/telemetry")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 after exhaustion, got %d", resp.StatusCode)
	}

	resp = get(t, app, "/simulation/status")
	var st Status
	_ = json.NewDecoder(resp.Body).Decode(&st)
	if st.State != StateExhausted || st.Cursor != 3 {
		t.Fatalf("unexpected status %+v", st)
	}

	resp = postJSON(t, app, "/simulation/stop", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status %d", resp.StatusCode)
	}
	_ = json.NewDecoder(resp.Body).Decode(&msg)
	if msg["message"] != StoppedMessage {
		t.Fatalf("unexpected stop message %v", msg)
	}

	if hub.count(TopicFrames) != 3 {
		t.Fatalf("expected 3 frames broadcast, got %d", hub.count(TopicFrames))
	}
	if hub.count(TopicEvents) != 2 {
		t.Fatalf("expected start and stop events, got %d", hub.count(TopicEvents))
	}
}

func TestSimulationHandlersStartErrors(t *testing.T) {
	app, hub, _ := newTestApp()

	resp := postJSON(t, app, "/simulation/start", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing ride_type, got %d", resp.StatusCode)
	}

	resp = postJSON(t, app, "/simulation/start", StartRequest{RideType: "downhill"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown ride type, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("downhill")) {
		t.Fatalf("expected ride type in message, got %s", body)
	}
	if hub.count(TopicEvents) != 0 {
		t.Fatalf("failed start should not broadcast")
	}
}

func TestSimulationHandlersRide(t *testing.T) {
	app, _, _ := newTestApp()

	if resp := get(t, app, "/simulation/ride"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 when idle, got %d", resp.StatusCode)
	}

	postJSON(t, app, "/simulation/start", StartRequest{RideType: "hardcore"})
	resp := get(t, app, "/simulation/ride")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ride status %d", resp.StatusCode)
	}
	var r ride.Ride
	_ = json.NewDecoder(resp.Body).Decode(&r)
	if r.Name != "hardcore" || len(r.Waypoints) != 5 {
		t.Fatalf("unexpected ride %+v", r)
	}

	resp = get(t, app, "/simulation/status")
	var st Status
	_ = json.NewDecoder(resp.Body).Decode(&st)
	if st.Cursor != 0 {
		t.Fatalf("ride snapshot advanced cursor")
	}
}

func TestSimulationHandlersRideTypes(t *testing.T) {
	app, _, _ := newTestApp()
	resp := get(t, app, "/simulation/ride-types")
	var body map[string][]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if len(body["ride_types"]) != 2 {
		t.Fatalf("unexpected ride types %v", body)
	}
}

func TestSimulationHandlersUpload(t *testing.T) {
	app, _, up := newTestApp()

	if resp := postJSON(t, app, "/simulation/upload", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 when idle, got %d", resp.StatusCode)
	}

	postJSON(t, app, "/simulation/start", StartRequest{RideType: "chill"})
	get(t, app, "/simulation/telemetry")

	resp := postJSON(t, app, "/simulation/upload", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status %d", resp.StatusCode)
	}
	if up.got.Name != "chill" || len(up.got.Waypoints) != 3 {
		t.Fatalf("uploaded unexpected ride %+v", up.got)
	}

	up.err = errors.New("remote down")
	resp = postJSON(t, app, "/simulation/upload", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestSimulationHandlersPoisoned(t *testing.T) {
	svc := newTestService()
	func() {
		defer func() { _ = recover() }()
		_ = svc.withLock(func() { panic("boom") })
	}()

	app := fiber.New()
	RegisterRoutes(app.Group("/simulation"), svc, nil, &stubUploader{})

	for _, path := range []string{"/simulation/telemetry", "/simulation/status", "/simulation/ride"} {
		if resp := get(t, app, path); resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, resp.StatusCode)
		}
	}
	if resp := postJSON(t, app, "/simulation/stop", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("stop: expected 503, got %d", resp.StatusCode)
	}
	if resp := postJSON(t, app, "/simulation/start", StartRequest{RideType: "chill"}); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("start: expected 503, got %d", resp.StatusCode)
	}
}
