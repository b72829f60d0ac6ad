package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/stockyard/stockd"
	"github.com/stockyard/stockd/internal/config"
	"github.com/stockyard/stockd/internal/domain"
	"github.com/stockyard/stockd/internal/usecase"
)

// --- mocks ---

type mockBatchRepo struct {
	batches map[string]*domain.Batch
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{batches: map[string]*domain.Batch{}}
}

func (m *mockBatchRepo) Add(ctx context.Context, batch *domain.Batch) error {
	m.batches[batch.Reference] = batch
	return nil
}

func (m *mockBatchRepo) Get(ctx context.Context, ref string) (*domain.Batch, error) {
	batch, ok := m.batches[ref]
	if !ok {
		return nil, domain.NotFoundError{Resource: "batch"}
	}
	return batch, nil
}

func (m *mockBatchRepo) ListBySKU(ctx context.Context, sku string) ([]*domain.Batch, error) {
	var out []*domain.Batch
	for _, batch := range m.batches {
		if batch.SKU == sku {
			out = append(out, batch)
		}
	}
	return out, nil
}

func (m *mockBatchRepo) Sync(ctx context.Context, batch *domain.Batch) error { return nil }

type failingBatchRepo struct{}

func (f *failingBatchRepo) Add(ctx context.Context, batch *domain.Batch) error {
	return errors.New("connection refused")
}

func (f *failingBatchRepo) Get(ctx context.Context, ref string) (*domain.Batch, error) {
	return nil, errors.New("connection refused")
}

func (f *failingBatchRepo) ListBySKU(ctx context.Context, sku string) ([]*domain.Batch, error) {
	return nil, errors.New("connection refused")
}

func (f *failingBatchRepo) Sync(ctx context.Context, batch *domain.Batch) error {
	return errors.New("connection refused")
}

// mockSignal echoes one event back for each subscription request.
type mockSignal struct{}

func (m *mockSignal) Realtime(ctx context.Context, input chan []string, output chan stockd.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case prefixes, ok := <-input:
			if !ok {
				return
			}
			event := stockd.Event{Type: stockd.EventAllocated, SKU: prefixes[0] + "-CHAIR"}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

// --- tests ---

func newTestHandler(repo usecase.BatchRepository) (*Handler, *echo.Echo) {
	uc := usecase.NewAllocationUsecase(repo, nil, nil)
	h := NewHandler(config.Service{FQDN: "stock.example.com"}, uc, &mockSignal{})
	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func TestHandleAllocate(t *testing.T) {
	repo := newMockBatchRepo()
	repo.batches["b1"] = domain.NewBatch("b1", "RED-CHAIR", 100, nil)
	_, e := newTestHandler(repo)

	body, _ := json.Marshal(stockd.OrderLine{OrderID: "o1", SKU: "RED-CHAIR", Qty: 10})
	req := httptest.NewRequest(http.MethodPost, "/allocate", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["batchRef"] != "b1" {
		t.Fatalf("expected batchRef b1, got %s", resp["batchRef"])
	}
}

func TestHandleAllocateOutOfStock(t *testing.T) {
	repo := newMockBatchRepo()
	repo.batches["b1"] = domain.NewBatch("b1", "RED-CHAIR", 1, nil)
	_, e := newTestHandler(repo)

	body, _ := json.Marshal(stockd.OrderLine{OrderID: "o1", SKU: "RED-CHAIR", Qty: 10})
	req := httptest.NewRequest(http.MethodPost, "/allocate", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandleAllocateInvalidBody(t *testing.T) {
	_, e := newTestHandler(newMockBatchRepo())

	req := httptest.NewRequest(http.MethodPost, "/allocate", bytes.NewReader([]byte(`{"qty":-1}`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleDeallocate(t *testing.T) {
	repo := newMockBatchRepo()
	batch := domain.NewBatch("b1", "BLUE-VASE", 10, nil)
	line := stockd.OrderLine{OrderID: "o1", SKU: "BLUE-VASE", Qty: 2}
	batch.Allocate(line)
	repo.batches["b1"] = batch
	_, e := newTestHandler(repo)

	body, _ := json.Marshal(line)
	req := httptest.NewRequest(http.MethodDelete, "/allocate", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if batch.AvailableQuantity() != 10 {
		t.Fatalf("expected availability restored, got %d", batch.AvailableQuantity())
	}
}

func TestHandleAddBatchAndGet(t *testing.T) {
	repo := newMockBatchRepo()
	_, e := newTestHandler(repo)

	body, _ := json.Marshal(stockd.BatchSpec{Reference: "b9", SKU: "TALL-LAMP", Qty: 50})
	req := httptest.NewRequest(http.MethodPost, "/batches", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/batches/b9", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var state stockd.BatchState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to decode batch state: %v", err)
	}
	if state.SKU != "TALL-LAMP" || state.AvailableQuantity != 50 {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestHandleGetBatchNotFound(t *testing.T) {
	_, e := newTestHandler(newMockBatchRepo())

	req := httptest.NewRequest(http.MethodGet, "/batches/missing", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleStockLevel(t *testing.T) {
	repo := newMockBatchRepo()
	repo.batches["b1"] = domain.NewBatch("b1", "SPOON", 20, nil)
	repo.batches["b2"] = domain.NewBatch("b2", "SPOON", 30, nil)
	_, e := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/stock/SPOON", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var level stockd.StockLevel
	if err := json.Unmarshal(rec.Body.Bytes(), &level); err != nil {
		t.Fatalf("failed to decode level: %v", err)
	}
	if level.Available != 50 {
		t.Fatalf("expected 50, got %d", level.Available)
	}
}

func TestHandleAllocateRepoFailure(t *testing.T) {
	_, e := newTestHandler(&failingBatchRepo{})

	body, _ := json.Marshal(stockd.OrderLine{OrderID: "o1", SKU: "RED-CHAIR", Qty: 10})
	req := httptest.NewRequest(http.MethodPost, "/allocate", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for repository failure, got %d", rec.Code)
	}
}

func TestHandleStockLevelRepoFailure(t *testing.T) {
	_, e := newTestHandler(&failingBatchRepo{})

	req := httptest.NewRequest(http.MethodGet, "/stock/SPOON", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for repository failure, got %d", rec.Code)
	}
}

func TestHandleRealtimeStreamsEvents(t *testing.T) {
	_, e := newTestHandler(newMockBatchRepo())
	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/realtime"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	err = conn.WriteJSON(map[string]any{"type": "listen", "prefixes": []string{"RED"}})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event stockd.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if event.SKU != "RED-CHAIR" {
		t.Fatalf("expected RED-CHAIR event, got %s", event.SKU)
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
}

func TestHandleWellKnown(t *testing.T) {
	_, e := newTestHandler(newMockBatchRepo())

	req := httptest.NewRequest(http.MethodGet, "/.well-known/stockd", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var wk stockd.WellKnownStockd
	if err := json.Unmarshal(rec.Body.Bytes(), &wk); err != nil {
		t.Fatalf("failed to decode well-known: %v", err)
	}
	if wk.FQDN != "stock.example.com" {
		t.Fatalf("expected fqdn, got %s", wk.FQDN)
	}
}
