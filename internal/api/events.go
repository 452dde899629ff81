package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"trailquest/internal/middleware"
	"trailquest/internal/model"
	"trailquest/internal/service"
	"trailquest/pkg/auth"
	"trailquest/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Message types a hike stream exchanges besides engine events.
const (
	MessagePosition  = "position"
	MessageSnapshot  = "snapshot"
	MessageError     = "error"
	MessageHikeEnded = "hike_ended"
)

type eventRoutes struct {
	hs service.HikeServiceI
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload PositionRequest `json:"payload"`
}

// hikeStream is one websocket connection following one hike.
type hikeStream struct {
	hikeID string
	conn   *websocket.Conn
	mu     sync.Mutex
}

func NewEventRoutes(handler *gin.RouterGroup, hs service.HikeServiceI, a *auth.TelegramAuth, authz *middleware.Authorization) {
	r := &eventRoutes{hs: hs}
	h := handler.Group("/ws")
	h.Use(a.TelegramAuthMiddleware(), authz.HikeOwner())

	h.GET("/:hike_id", r.handleWebSocket)
}

func (er *eventRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	hikeID := c.Param("hike_id")
	events, cancel, err := er.hs.Subscribe(hikeID)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cancel()
		log.Error("websocket upgrade failed", zap.String("hike_id", hikeID), zap.Error(err))
		return
	}

	stream := &hikeStream{hikeID: hikeID, conn: conn}
	go er.pushEvents(stream, events)
	go er.readLoop(stream, cancel)
}

// pushEvents forwards hike events until the subscription closes.
func (er *eventRoutes) pushEvents(s *hikeStream, events <-chan model.Event) {
	for ev := range events {
		if err := s.writeJSON(ev); err != nil {
			logger.Logger().Debug("failed to push event",
				zap.String("hike_id", s.hikeID),
				zap.Error(err))
		}
	}

	_ = s.writeJSON(Message{Type: MessageHikeEnded})
	s.mu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "hike ended"),
		time.Now().Add(writeWait))
	s.mu.Unlock()
}

func (er *eventRoutes) readLoop(s *hikeStream, cancel func()) {
	log := logger.Logger()

	defer func() {
		cancel()
		s.conn.Close()
	}()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("websocket unexpected close", zap.String("hike_id", s.hikeID), zap.Error(err))
			}
			return
		}

		var message inboundMessage
		if err := json.Unmarshal(msg, &message); err != nil {
			log.Debug("failed to unmarshal message", zap.Error(err))
			er.sendError(s, "malformed message")
			continue
		}

		switch message.Type {
		case MessagePosition:
			if message.Payload.Lat == nil || message.Payload.Lng == nil {
				er.sendError(s, "position requires lat and lng")
				continue
			}
			if err := er.hs.PushPosition(context.Background(), s.hikeID, message.Payload.toModel()); err != nil {
				_, text := errorStatus(err)
				er.sendError(s, text)
			}

		case MessageSnapshot:
			snap, err := er.hs.Snapshot(context.Background(), s.hikeID)
			if err != nil {
				_, text := errorStatus(err)
				er.sendError(s, text)
				continue
			}
			if err := s.writeJSON(struct {
				Type    string           `json:"type"`
				Payload SnapshotResponse `json:"payload"`
			}{Type: MessageSnapshot, Payload: toSnapshotResponse(snap)}); err != nil {
				log.Debug("failed to send snapshot", zap.Error(err))
			}

		default:
			er.sendError(s, "unknown message type")
		}
	}
}

func (er *eventRoutes) sendError(s *hikeStream, message string) {
	err := s.writeJSON(Message{
		Type: MessageError,
		Payload: map[string]any{
			"message": message,
		},
	})
	if err != nil {
		logger.Logger().Debug("failed to send error", zap.String("hike_id", s.hikeID), zap.Error(err))
	}
}

func (s *hikeStream) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
