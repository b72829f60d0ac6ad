package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/stockyard/stockd"
	"github.com/stockyard/stockd/internal/config"
	"github.com/stockyard/stockd/internal/domain"
	"github.com/stockyard/stockd/internal/interface/rest/presenter"
	"github.com/stockyard/stockd/internal/usecase"
)

// RealtimeSource streams allocation events filtered by SKU prefixes.
type RealtimeSource interface {
	Realtime(ctx context.Context, input chan []string, output chan stockd.Event)
}

type Handler struct {
	allocation *usecase.AllocationUsecase
	signal     RealtimeSource
	service    config.Service
}

func NewHandler(
	service config.Service,
	allocation *usecase.AllocationUsecase,
	signal RealtimeSource,
) *Handler {
	return &Handler{
		allocation: allocation,
		signal:     signal,
		service:    service,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/stockd", h.handleWellKnown)
	e.POST("/allocate", h.handleAllocate)
	e.DELETE("/allocate", h.handleDeallocate)
	e.POST("/batches", h.handleAddBatch)
	e.GET("/batches/:ref", h.handleGetBatch)
	e.GET("/stock/:sku", h.handleStockLevel)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	wellknown := stockd.WellKnownStockd{
		Version: "1.0",
		FQDN:    h.service.FQDN,
		Endpoints: map[string]string{
			"com.stockyard.allocate": "/allocate",
			"com.stockyard.batches":  "/batches/{ref}",
			"com.stockyard.stock":    "/stock/{sku}",
			"com.stockyard.realtime": "/realtime",
		},
	}
	return presenter.OK(c, wellknown)
}

func (h *Handler) handleAllocate(c echo.Context) error {
	ctx := c.Request().Context()

	var line stockd.OrderLine
	if err := c.Bind(&line); err != nil {
		return presenter.BadRequest(c, err)
	}

	ref, err := h.allocation.Allocate(ctx, line)
	if err != nil {
		if errors.Is(err, domain.ErrOutOfStock) {
			return presenter.Conflict(c, err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, err.Error())
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}

	return presenter.Created(c, echo.Map{"batchRef": ref})
}

func (h *Handler) handleDeallocate(c echo.Context) error {
	ctx := c.Request().Context()

	var line stockd.OrderLine
	if err := c.Bind(&line); err != nil {
		return presenter.BadRequest(c, err)
	}

	ref, err := h.allocation.Deallocate(ctx, line)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, err.Error())
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{"batchRef": ref})
}

func (h *Handler) handleAddBatch(c echo.Context) error {
	ctx := c.Request().Context()

	var spec stockd.BatchSpec
	if err := c.Bind(&spec); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.allocation.AddBatch(ctx, spec); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}

	return presenter.Created(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleGetBatch(c echo.Context) error {
	ctx := c.Request().Context()

	state, err := h.allocation.GetBatch(ctx, c.Param("ref"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "batch not found")
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, state)
}

func (h *Handler) handleStockLevel(c echo.Context) error {
	ctx := c.Request().Context()

	level, err := h.allocation.StockLevel(ctx, c.Param("sku"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "sku not found")
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, level)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type     string   `json:"type"`
	Prefixes []string `json:"prefixes"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	input := make(chan []string)
	output := make(chan stockd.Event)

	go h.signal.Realtime(ctx, input, output)

	// Buffered so the reader can always report its exit, even after the
	// select loop below has already returned.
	quit := make(chan struct{}, 1)

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Prefixes:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Prefixes),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case <-ctx.Done():
			return nil
		case event := <-output:
			if err := ws.WriteJSON(event); err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
