package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/capture"
	"github.com/mamadbah2/avicola/internal/config"
	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/server/handlers"
	"github.com/mamadbah2/avicola/internal/service/alerts"
	"github.com/mamadbah2/avicola/internal/service/board"
	"github.com/mamadbah2/avicola/internal/service/catalog"
	"github.com/mamadbah2/avicola/internal/service/records"
	"github.com/mamadbah2/avicola/internal/service/reporting"
	"github.com/mamadbah2/avicola/internal/service/stock"
)

// memoryStore implements every repository interface in memory.
type memoryStore struct {
	mu        sync.Mutex
	seq       int
	zones     []models.Zone
	clients   []models.Client
	orders    []models.Order
	records   []models.WeighingRecord
	photos    map[string][]byte
	settings  models.Settings
	openings  map[string]models.DailyOpening
	movements []models.InventoryMovement
	reports   []models.DailyReport
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		zones:    []models.Zone{{ID: "z1", Name: "Norte", Priority: 1}},
		clients:  []models.Client{{ID: "c1", Name: "Pollería Norte", ZoneID: "z1", DefaultPrice: 6.5}},
		photos:   map[string][]byte{},
		settings: models.Settings{ContainerTareWeight: 3, MinimumStockThreshold: 1000},
		openings: map[string]models.DailyOpening{},
	}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memoryStore) ListZones(context.Context) ([]models.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Zone(nil), m.zones...), nil
}

func (m *memoryStore) SaveZone(_ context.Context, z models.Zone) (models.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z.ID = m.nextID("z")
	m.zones = append(m.zones, z)
	return z, nil
}

func (m *memoryStore) DeleteZone(context.Context, string) error { return nil }

func (m *memoryStore) ListClients(context.Context) ([]models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Client(nil), m.clients...), nil
}

func (m *memoryStore) GetClient(_ context.Context, id string) (models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Client{}, apperr.ErrNotFound
}

func (m *memoryStore) SaveClient(_ context.Context, c models.Client) (models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID("c")
	m.clients = append(m.clients, c)
	return c, nil
}

func (m *memoryStore) DeleteClient(context.Context, string) error { return nil }

func (m *memoryStore) GetSettings(context.Context) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *memoryStore) SaveSettings(_ context.Context, s models.Settings) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return s, nil
}

func (m *memoryStore) ListOrdersByDate(_ context.Context, date string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.Date == date {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryStore) GetOrder(_ context.Context, id string) (models.Order, error) {
	return models.Order{}, apperr.ErrNotFound
}

func (m *memoryStore) CreateOrder(_ context.Context, o models.Order) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.nextID("o")
	o.Status = models.OrderPending
	m.orders = append(m.orders, o)
	return o, nil
}

func (m *memoryStore) CompleteOrder(_ context.Context, id string) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.orders {
		if o.ID == id {
			m.orders[i].Status = models.OrderCompleted
			return m.orders[i], nil
		}
	}
	return models.Order{}, apperr.ErrNotFound
}

func (m *memoryStore) DeleteOrder(context.Context, string) error { return nil }

func (m *memoryStore) CreateRecord(_ context.Context, r models.WeighingRecord) (models.WeighingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID("r")
	m.records = append(m.records, r)
	return r, nil
}

func (m *memoryStore) ListRecords(context.Context, models.RecordFilter) ([]models.WeighingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.WeighingRecord(nil), m.records...), nil
}

func (m *memoryStore) DeleteRecord(context.Context, string) error { return nil }

func (m *memoryStore) SavePhoto(_ context.Context, _, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := m.nextID("p")
	m.photos[ref] = data
	return ref, nil
}

func (m *memoryStore) LoadPhoto(_ context.Context, ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.photos[ref]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return data, nil
}

func (m *memoryStore) DeletePhoto(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.photos, ref)
	return nil
}

func (m *memoryStore) GetOpening(_ context.Context, date string) (*models.DailyOpening, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.openings[date]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *memoryStore) CreateOpening(_ context.Context, o models.DailyOpening) (models.DailyOpening, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.openings[o.Date]; ok {
		return models.DailyOpening{}, apperr.ErrConflict
	}
	m.openings[o.Date] = o
	return o, nil
}

func (m *memoryStore) AppendMovement(_ context.Context, mv models.InventoryMovement) (models.InventoryMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, mv)
	return mv, nil
}

func (m *memoryStore) ListMovements(context.Context, string) ([]models.InventoryMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.InventoryMovement(nil), m.movements...), nil
}

func (m *memoryStore) SaveDailyReport(_ context.Context, r models.DailyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

func newTestEngine(t *testing.T) (*gin.Engine, *memoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemoryStore()
	registry := capture.NewRegistry(time.Minute, capture.DefaultQuality, nil)
	t.Cleanup(registry.CloseAll)

	boardSvc := board.NewService(store, store, time.UTC, nil)
	stockSvc := stock.NewService(store, store, time.UTC, nil)
	recordSvc := records.NewService(store, store, store, store, nil, nil)
	reportSvc := reporting.NewService(store, boardSvc, stockSvc, store, store, time.UTC, nil)
	alertSvc := alerts.NewMetaWhatsAppService(config.WhatsAppConfig{}, nil, nil)

	engine := New(Handlers{
		Orders:    handlers.NewOrdersHandler(boardSvc, nil),
		Records:   handlers.NewRecordsHandler(recordSvc, registry, time.UTC, nil),
		Capture:   handlers.NewCaptureHandler(registry, nil),
		Catalog:   handlers.NewCatalogHandler(catalog.NewService(store, nil), nil),
		Inventory: handlers.NewInventoryHandler(stockSvc, nil),
		Dashboard: handlers.NewDashboardHandler(reportSvc, alertSvc, nil),
	}, nil)
	return engine, store
}

func do(engine *gin.Engine, method, path string, actor models.Actor, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor.ID != "" {
		req.Header.Set(handlers.HeaderActorID, actor.ID)
	}
	if actor.Role != "" {
		req.Header.Set(handlers.HeaderActorRole, string(actor.Role))
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func pngFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		img.Set(x, x%48, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var (
	admin     = models.Actor{ID: "adm-1", Role: models.RoleAdmin}
	pesador   = models.Actor{ID: "pes-1", Role: models.RolePesador}
	digitador = models.Actor{ID: "dig-1", Role: models.RoleDigitador}
)

func TestHealthz(t *testing.T) {
	engine, _ := newTestEngine(t)
	if w := do(engine, http.MethodGet, "/healthz", models.Actor{}, nil); w.Code != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}
	if w := do(engine, http.MethodGet, "/readyz", models.Actor{}, nil); w.Code != http.StatusOK {
		t.Fatalf("readyz = %d", w.Code)
	}
}

func TestRouteGate(t *testing.T) {
	engine, store := newTestEngine(t)
	entry := mustJSON(t, map[string]interface{}{"record_type": "camal", "client_id": "c1", "gross_weight": 120})

	tests := []struct {
		name   string
		method string
		path   string
		actor  models.Actor
		body   []byte
		want   int
	}{
		{"no identity", http.MethodGet, "/api/dashboard", models.Actor{}, nil, http.StatusUnauthorized},
		{"unknown role", http.MethodGet, "/api/dashboard", models.Actor{ID: "x", Role: "owner"}, nil, http.StatusUnauthorized},
		{"digitador cannot weigh", http.MethodPost, "/api/records", digitador, entry, http.StatusForbidden},
		{"pesador cannot see board", http.MethodGet, "/api/orders", pesador, nil, http.StatusForbidden},
		{"pesador cannot edit settings", http.MethodPut, "/api/settings", pesador, []byte(`{}`), http.StatusForbidden},
		{"digitador cannot capture", http.MethodPost, "/api/capture/sessions", digitador, nil, http.StatusForbidden},
		{"any role reads dashboard", http.MethodGet, "/api/dashboard", pesador, nil, http.StatusOK},
		{"digitador sees board", http.MethodGet, "/api/orders", digitador, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(engine, tt.method, tt.path, tt.actor, tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
	if len(store.records) != 0 {
		t.Error("denied request reached storage")
	}
}

func TestCaptureAndSubmitFlow(t *testing.T) {
	engine, store := newTestEngine(t)

	w := do(engine, http.MethodPost, "/api/capture/sessions", pesador, mustJSON(t, capture.Terminal{HasRearCamera: true}))
	if w.Code != http.StatusCreated {
		t.Fatalf("open = %d: %s", w.Code, w.Body.String())
	}
	var session struct {
		ID    string        `json:"id"`
		State capture.State `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatal(err)
	}
	if session.State != capture.StateStreaming {
		t.Fatalf("state = %s", session.State)
	}

	submit := mustJSON(t, map[string]interface{}{
		"record_type":        "camal",
		"client_id":          "c1",
		"gross_weight":       120,
		"container_count":    3,
		"capture_session_id": session.ID,
	})

	if w := do(engine, http.MethodPost, "/api/records", pesador, submit); w.Code != http.StatusPreconditionFailed {
		t.Fatalf("submit while streaming = %d, want 412", w.Code)
	}
	if len(store.records) != 0 || len(store.photos) != 0 {
		t.Fatal("storage written without a photo")
	}

	if w := do(engine, http.MethodPost, "/api/capture/sessions/"+session.ID+"/shot", pesador, nil); w.Code != http.StatusPreconditionFailed {
		t.Fatalf("shot before any frame = %d, want 412", w.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/capture/sessions/"+session.ID+"/frame", bytes.NewReader(pngFrame(t)))
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set(handlers.HeaderActorID, pesador.ID)
	req.Header.Set(handlers.HeaderActorRole, string(pesador.Role))
	fw := httptest.NewRecorder()
	engine.ServeHTTP(fw, req)
	if fw.Code != http.StatusNoContent {
		t.Fatalf("frame = %d: %s", fw.Code, fw.Body.String())
	}

	if w := do(engine, http.MethodPost, "/api/capture/sessions/"+session.ID+"/shot", pesador, nil); w.Code != http.StatusOK {
		t.Fatalf("shot = %d: %s", w.Code, w.Body.String())
	}
	if w := do(engine, http.MethodGet, "/api/capture/sessions/"+session.ID+"/preview", pesador, nil); w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("preview = %d %s", w.Code, w.Header().Get("Content-Type"))
	}

	if w := do(engine, http.MethodPost, "/api/records", admin, submit); w.Code != http.StatusPreconditionFailed {
		t.Fatalf("submit with another actor's session = %d, want 412", w.Code)
	}

	invalid := mustJSON(t, map[string]interface{}{
		"record_type":        "camal",
		"client_id":          "c1",
		"capture_session_id": session.ID,
	})
	w = do(engine, http.MethodPost, "/api/records", pesador, invalid)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid submit = %d, want 422", w.Code)
	}
	var problem struct {
		Fields map[string]string `json:"fields"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &problem)
	if problem.Fields["gross_weight"] != "must_be_positive" {
		t.Errorf("fields = %v", problem.Fields)
	}

	w = do(engine, http.MethodPost, "/api/records", pesador, submit)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit = %d: %s", w.Code, w.Body.String())
	}
	var record models.WeighingRecord
	if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
		t.Fatal(err)
	}
	if record.NetWeight != 111 || record.PhotoRef == "" {
		t.Errorf("record = %+v", record)
	}

	if w := do(engine, http.MethodGet, "/api/capture/sessions/"+session.ID, pesador, nil); w.Code != http.StatusNotFound {
		t.Errorf("session should be released after submit, got %d", w.Code)
	}
	if w := do(engine, http.MethodGet, "/api/photos/"+record.PhotoRef, digitador, nil); w.Code != http.StatusOK {
		t.Errorf("photo = %d", w.Code)
	}
}

func TestCaptureDeniedTerminal(t *testing.T) {
	engine, _ := newTestEngine(t)

	w := do(engine, http.MethodPost, "/api/capture/sessions", pesador, mustJSON(t, capture.Terminal{PermissionDenied: true}))
	if w.Code != http.StatusCreated {
		t.Fatalf("open = %d", w.Code)
	}
	var session struct {
		ID      string `json:"id"`
		State   string `json:"state"`
		Failure *struct {
			Reason string `json:"reason"`
		} `json:"failure"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatal(err)
	}
	if session.State != "idle" || session.Failure == nil || session.Failure.Reason != "permission-denied" {
		t.Fatalf("session = %s", w.Body.String())
	}

	if w := do(engine, http.MethodPost, "/api/capture/sessions/"+session.ID+"/request", pesador, nil); w.Code != http.StatusForbidden {
		t.Errorf("retry on denied terminal = %d, want 403", w.Code)
	}
	if w := do(engine, http.MethodDelete, "/api/capture/sessions/"+session.ID, pesador, nil); w.Code != http.StatusNoContent {
		t.Errorf("release = %d", w.Code)
	}
}

func TestSubmitWithoutPhotoFailsBeforeValidation(t *testing.T) {
	engine, _ := newTestEngine(t)

	w := do(engine, http.MethodPost, "/api/capture/sessions", pesador, nil)
	var session struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &session)

	w = do(engine, http.MethodPost, "/api/records", pesador, mustJSON(t, map[string]interface{}{
		"record_type":        "camal",
		"capture_session_id": session.ID,
	}))
	if w.Code != http.StatusPreconditionFailed {
		t.Fatalf("status = %d, want 412 before validation", w.Code)
	}
}

func TestOrdersAndCatalogRoutes(t *testing.T) {
	engine, _ := newTestEngine(t)

	w := do(engine, http.MethodPost, "/api/orders", digitador, mustJSON(t, board.CreateOrderRequest{ClientID: "c1", DeadlineTime: "23:59", RequestedQuantity: 20}))
	if w.Code != http.StatusCreated {
		t.Fatalf("create order = %d: %s", w.Code, w.Body.String())
	}

	w = do(engine, http.MethodPost, "/api/orders", digitador, mustJSON(t, board.CreateOrderRequest{ClientID: "c1"}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid order = %d", w.Code)
	}

	w = do(engine, http.MethodGet, "/api/orders", admin, nil)
	var b board.Board
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatal(err)
	}
	if len(b.Entries) != 1 || b.Entries[0].ClientName != "Pollería Norte" {
		t.Errorf("board = %s", w.Body.String())
	}

	if w := do(engine, http.MethodPost, "/api/zones", admin, mustJSON(t, models.Zone{Name: "Sur", Priority: 2})); w.Code != http.StatusCreated {
		t.Errorf("create zone = %d", w.Code)
	}
	if w := do(engine, http.MethodPut, "/api/settings", admin, mustJSON(t, models.Settings{ContainerTareWeight: -1})); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid settings = %d", w.Code)
	}
	if w := do(engine, http.MethodPost, "/api/inventory/movements", admin, mustJSON(t, models.InventoryMovement{Type: models.MovementEntrance, BirdCount: 100, AverageWeightPerBird: 2})); w.Code != http.StatusCreated {
		t.Errorf("movement = %d", w.Code)
	}
	if w := do(engine, http.MethodPost, "/api/send-message", admin, mustJSON(t, models.OutboundMessageRequest{Message: "hola"})); w.Code != http.StatusServiceUnavailable {
		t.Errorf("send-message without whatsapp = %d", w.Code)
	}
	if w := do(engine, http.MethodPost, "/api/reports/daily", admin, nil); w.Code != http.StatusOK {
		t.Errorf("daily report = %d", w.Code)
	}
}

func TestPreviewToleratesTypingNoise(t *testing.T) {
	engine, store := newTestEngine(t)

	tests := []struct {
		name    string
		body    string
		wantNet float64
	}{
		{"letters in gross", `{"record_type":"camal","client_id":"c1","gross_weight":"12a","container_count":3}`, 0},
		{"empty gross", `{"record_type":"camal","client_id":"c1","gross_weight":"","container_count":3}`, 0},
		{"letters in count", `{"record_type":"camal","client_id":"c1","gross_weight":120,"container_count":"x"}`, 120},
		{"well formed", `{"record_type":"camal","client_id":"c1","gross_weight":"120","container_count":3}`, 111},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(engine, http.MethodPost, "/api/records/preview", pesador, []byte(tt.body))
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			var preview struct {
				NetWeight float64 `json:"net_weight"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &preview); err != nil {
				t.Fatal(err)
			}
			if preview.NetWeight != tt.wantNet {
				t.Errorf("net_weight = %v, want %v", preview.NetWeight, tt.wantNet)
			}
		})
	}

	// Submission stays strict.
	w := do(engine, http.MethodPost, "/api/records", pesador, []byte(`{"record_type":"camal","client_id":"c1","gross_weight":"12a"}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("strict submit = %d, want 400", w.Code)
	}
	if len(store.records) != 0 {
		t.Error("record stored from malformed submit")
	}
}
