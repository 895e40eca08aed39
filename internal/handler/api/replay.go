package api

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"ZenithCore/internal/domain/models"
	"ZenithCore/internal/usecase"
	xhttp "ZenithCore/pkg/http"
	xlogger "ZenithCore/pkg/logger"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxCommandSize = 4096
	frameBuffer    = 128
)

// ReplayHandler streams one replay engine per websocket connection.
type ReplayHandler struct {
	logger   *xlogger.Logger
	uc       *usecase.ReplayUseCase
	upgrader websocket.Upgrader
}

type replayFrame struct {
	Type   string               `json:"type"`
	Tick   *models.ReplayTick   `json:"tick,omitempty"`
	Status *models.ReplayStatus `json:"status,omitempty"`
	Errors interface{}          `json:"errors,omitempty"`
}

func NewReplayHandler(logger *xlogger.Logger, uc *usecase.ReplayUseCase) *ReplayHandler {
	return &ReplayHandler{
		logger: logger.With("replay_handler"),
		uc:     uc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *ReplayHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/replay/ws", h.Stream)
}

// Stream loads history before upgrading so a missing symbol is still a plain
// HTTP error. After the upgrade, ticks and command replies share one writer.
func (h *ReplayHandler) Stream(c echo.Context) error {
	req := &models.ReplayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.ToUpper(req.Symbol)

	out := make(chan replayFrame, frameBuffer)
	var dropped atomic.Int64
	onTick := func(t models.ReplayTick) {
		select {
		case out <- replayFrame{Type: "tick", Tick: &t}:
		default:
			dropped.Add(1)
		}
	}

	session, err := h.uc.Open(c.Request().Context(), symbol, models.AssetType(req.AssetType), models.HistoryRange(req.Range), onTick)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err, symbol))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		session.Close()
		h.logger.Warn("websocket upgrade failed", xlogger.String("symbol", symbol), xlogger.Error(err))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, out)
	}()

	st := session.Status()
	h.send(out, writerDone, replayFrame{Type: "status", Status: &st})
	h.readLoop(conn, session, out, writerDone)

	// No tick is delivered once Close returns, so out has no other sender.
	session.Close()
	cancel()
	<-writerDone
	_ = conn.Close()

	h.logger.Info("replay session closed",
		xlogger.String("symbol", symbol),
		xlogger.Int64("dropped_ticks", dropped.Load()),
	)
	return nil
}

func (h *ReplayHandler) readLoop(conn *websocket.Conn, session *usecase.ReplaySession, out chan<- replayFrame, writerDone <-chan struct{}) {
	conn.SetReadLimit(maxCommandSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("replay read failed", xlogger.String("symbol", session.Symbol), xlogger.Error(err))
			}
			return
		}

		cmd := models.ReplayCommand{}
		if err := json.Unmarshal(data, &cmd); err != nil {
			if !h.send(out, writerDone, replayFrame{Type: "error", Errors: []*xhttp.AppError{xhttp.BadRequestError("malformed command")}}) {
				return
			}
			continue
		}
		if verr := xhttp.ValidateStruct(context.Background(), &cmd); verr != nil {
			if !h.send(out, writerDone, replayFrame{Type: "error", Errors: verr}) {
				return
			}
			continue
		}

		st, err := session.Apply(cmd)
		frame := replayFrame{Type: "status", Status: &st}
		if err != nil {
			frame.Type = "error"
			frame.Errors = []*xhttp.AppError{xhttp.BadRequestError(err.Error())}
		}
		if !h.send(out, writerDone, frame) {
			return
		}
	}
}

// send queues a frame unless the writer has gone away.
func (h *ReplayHandler) send(out chan<- replayFrame, writerDone <-chan struct{}, f replayFrame) bool {
	select {
	case out <- f:
		return true
	case <-writerDone:
		return false
	}
}

func (h *ReplayHandler) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan replayFrame) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case f := <-out:
			b, err := json.Marshal(f)
			if err != nil {
				h.logger.Error("encode replay frame", xlogger.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = conn.Close()
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
