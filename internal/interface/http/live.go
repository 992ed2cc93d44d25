package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ben-burie/Stryde/internal/domain/page"
	apperrors "github.com/ben-burie/Stryde/pkg/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxEventBytes  = 64 << 10
	outBufferSize  = 16
	msgTypeInit    = "init"
	msgTypeView    = "view"
	msgTypeError   = "error"
	defaultPageArg = "home"
)

type serverMessage struct {
	Type   string     `json:"type"`
	PageID string     `json:"pageId,omitempty"`
	View   *page.View `json:"view,omitempty"`
	Error  *errorBody `json:"error,omitempty"`
}

// Live upgrades to a websocket and binds a fresh page to it for the
// lifetime of the connection.
func (h *Handler) Live(c *gin.Context) {
	kind, err := page.ParseKind(c.DefaultQuery("page", defaultPageArg))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	p, err := h.pages.Create(kind)
	if err != nil {
		_ = conn.Close()
		return
	}

	s := &liveSession{
		conn:    conn,
		page:    p,
		handler: h,
		out:     make(chan serverMessage, outBufferSize),
	}
	s.run(c.Request.Context())
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	return h.origins.permits(r.Header.Get("Origin"))
}

type liveSession struct {
	conn    *websocket.Conn
	page    *page.Page
	handler *Handler
	out     chan serverMessage
}

func (s *liveSession) run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop()
	}()

	s.readLoop(ctx)

	// Removing the page closes its update channel, which ends the write loop.
	s.handler.pages.Remove(s.page.ID)
	<-done
	_ = s.conn.Close()
}

func (s *liveSession) readLoop(ctx context.Context) {
	logger := s.handler.logger.With("page_id", s.page.ID)
	s.conn.SetReadLimit(maxEventBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		var ev page.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.pushError(apperrors.Wrap(apperrors.CodeInvalidEvent, "malformed event", err))
			continue
		}
		if err := s.page.Dispatch(context.WithoutCancel(ctx), ev); err != nil && !page.IsUserFacing(err) {
			s.pushError(err)
		}
	}
}

func (s *liveSession) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	view := s.page.View()
	if !s.write(serverMessage{Type: msgTypeInit, PageID: s.page.ID, View: &view}) {
		s.drain()
		return
	}

	updates := s.page.Updates()
	for {
		select {
		case v, ok := <-updates:
			if !ok {
				_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !s.write(serverMessage{Type: msgTypeView, View: &v}) {
				s.drain()
				return
			}
		case msg := <-s.out:
			if !s.write(msg) {
				s.drain()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.drain()
				return
			}
		}
	}
}

func (s *liveSession) write(msg serverMessage) bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.handler.logger.Debug("websocket write failed", "page_id", s.page.ID, "error", err)
		return false
	}
	return true
}

// drain unblocks the read loop after a write failure and waits for the page to close.
func (s *liveSession) drain() {
	_ = s.conn.Close()
	for range s.page.Updates() {
	}
}

func (s *liveSession) pushError(err error) {
	msg := serverMessage{Type: msgTypeError, Error: &errorBody{Code: apperrors.CodeOf(err), Message: errMessage(err)}}
	select {
	case s.out <- msg:
	default:
	}
}
