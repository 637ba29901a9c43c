package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Inbound message types.
const (
	TypeCreateSession = "create-session"
	TypeTeacherJoin   = "teacher-join"
	TypeJoin          = "join"
	TypeStart         = "start"
	TypeSubmitAnswer  = "submit-answer"
	TypeNextQuestion  = "next-question"
	TypeFinishSession = "finish-session"
	TypeLeave         = "leave"
	TypeGetState      = "get-state"
)

type WSHandler struct {
	ctrl     *app.Controller
	hub      *Hub
	upgrader websocket.Upgrader
	validate *payloadValidator
	log      zerolog.Logger
}

// NewWSHandler builds the gateway. An empty allowedOrigins accepts any origin.
func NewWSHandler(ctrl *app.Controller, hub *Hub, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		ctrl: ctrl,
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		validate: newPayloadValidator(),
		log:      log.With().Str("component", "ws").Logger(),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(strings.ToLower(origin), "/")]
		return ok
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createSessionPayload struct {
	TopicID int64 `json:"topicId" validate:"required,gt=0"`
}

type teacherJoinPayload struct {
	SessionCode  string `json:"sessionCode" validate:"required,alphanum,max=10"`
	TeacherToken string `json:"teacherToken" validate:"required"`
}

type joinPayload struct {
	SessionCode string `json:"sessionCode" validate:"required,alphanum,max=10"`
	DisplayName string `json:"displayName" validate:"required,max=100"`
}

type sessionPayload struct {
	SessionCode string `json:"sessionCode" validate:"required,alphanum,max=10"`
}

type submitAnswerPayload struct {
	SessionCode string `json:"sessionCode" validate:"required,alphanum,max=10"`
	OptionID    int64  `json:"optionId" validate:"required"`
}

// ServeWS upgrades HTTP requests to websockets. Each connection gets a fresh
// identity; closing the socket is the disconnect event.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	identity := uuid.NewString()
	log := h.log.With().Str("identity", identity).Logger()
	c := h.hub.register(identity)
	log.Debug().Msg("client connected")

	writerDone := make(chan struct{})
	go h.writeLoop(conn, c, log, writerDone)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := context.Background()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("ws read error")
			}
			break
		}
		// A frame that does not decode is the client's mistake, not a disconnect.
		var inbound inboundMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.reject(identity, domain.Invalid("malformed message"))
			continue
		}
		h.handle(ctx, identity, inbound, log)
	}

	h.ctrl.Disconnect(ctx, identity)
	h.hub.unregister(c)
	<-writerDone
	log.Debug().Msg("client disconnected")
}

func (h *WSHandler) writeLoop(conn *websocket.Conn, c *client, log zerolog.Logger, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-c.done:
			h.drain(conn, c)
			return
		}
	}
}

// drain flushes events queued before the client was unregistered.
func (h *WSHandler) drain(conn *websocket.Conn, c *client) {
	for {
		select {
		case ev := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		default:
			return
		}
	}
}

// handle runs one inbound message. A panic is contained to this message so
// other sessions and connections keep running.
func (h *WSHandler) handle(ctx context.Context, identity string, msg inboundMessage, log zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("type", msg.Type).Msg("recovered handler panic")
			h.reject(identity, errors.New("internal error"))
		}
	}()

	if err := h.dispatch(ctx, identity, msg); err != nil {
		if domain.KindOf(err) == domain.KindUpstream {
			log.Error().Err(err).Str("type", msg.Type).Msg("request failed")
		} else {
			log.Debug().Err(err).Str("type", msg.Type).Msg("request rejected")
		}
		h.reject(identity, err)
	}
}

func (h *WSHandler) dispatch(ctx context.Context, identity string, msg inboundMessage) error {
	switch msg.Type {
	case TypeCreateSession:
		var p createSessionPayload
		if err := h.decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.ctrl.CreateSession(ctx, identity, p.TopicID)
		return err
	case TypeTeacherJoin:
		var p teacherJoinPayload
		if err := h.decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.ctrl.TeacherJoin(ctx, identity, p.SessionCode, p.TeacherToken)
		return err
	case TypeJoin:
		var p joinPayload
		if err := h.decode(msg.Payload, &p); err != nil {
			return err
		}
		return h.ctrl.Join(ctx, identity, p.SessionCode, p.DisplayName)
	case TypeSubmitAnswer:
		var p submitAnswerPayload
		if err := h.decode(msg.Payload, &p); err != nil {
			return err
		}
		return h.ctrl.SubmitAnswer(ctx, identity, p.SessionCode, p.OptionID)
	case TypeStart, TypeNextQuestion, TypeFinishSession, TypeLeave, TypeGetState:
		var p sessionPayload
		if err := h.decode(msg.Payload, &p); err != nil {
			return err
		}
		return h.sessionCommand(ctx, identity, msg.Type, p.SessionCode)
	default:
		return domain.Invalid("unsupported message type %q", msg.Type)
	}
}

func (h *WSHandler) sessionCommand(ctx context.Context, identity, typ, code string) error {
	switch typ {
	case TypeStart:
		return h.ctrl.Start(ctx, identity, code)
	case TypeNextQuestion:
		return h.ctrl.NextQuestion(ctx, identity, code)
	case TypeFinishSession:
		return h.ctrl.Finish(ctx, identity, code)
	case TypeLeave:
		return h.ctrl.Leave(ctx, identity, code)
	default:
		_, err := h.ctrl.State(ctx, identity, code)
		return err
	}
}

func (h *WSHandler) decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.Invalid("invalid payload")
	}
	return h.validate.Check(dst)
}

func (h *WSHandler) reject(identity string, err error) {
	h.hub.Notify(identity, domain.Event{
		Type:    domain.EventError,
		Payload: domain.ErrorPayload{Message: domain.ClientMessage(err), Kind: domain.KindOf(err)},
	})
}
