package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/circle-up/internal/application"
	"github.com/oksasatya/circle-up/internal/interface/middleware"
	"github.com/oksasatya/circle-up/internal/observability"
	"github.com/oksasatya/circle-up/pkg/apperror"
	"github.com/oksasatya/circle-up/pkg/helpers"
	"github.com/oksasatya/circle-up/pkg/response"
	"github.com/oksasatya/circle-up/pkg/validation"
)

// Inbound event names.
const (
	EventJoinCommunity      = "joinCommunity"
	EventLeaveCommunity     = "leaveCommunity"
	EventJoinUser           = "joinUser"
	EventSendMessage        = "sendMessage"
	EventSendPrivateMessage = "sendPrivateMessage"
	EventTyping             = "typing"
	EventError              = "error"
)

type joinCommunityData struct {
	CommunityID string `json:"communityId"`
}

type joinUserData struct {
	UserID string `json:"userId"`
}

type sendMessageData struct {
	CommunityID string `json:"communityId"`
	Sender      string `json:"sender"`
	Message     string `json:"message"`
}

type sendPrivateMessageData struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

// typingData is either a community typing notice (communityId, username)
// or a direct one (peerUserId).
type typingData struct {
	CommunityID string `json:"communityId"`
	Username    string `json:"username"`
	PeerUserID  string `json:"peerUserId"`
}

type errorData struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

// Handler upgrades authenticated requests and dispatches their frames.
type Handler struct {
	Hub           *Hub
	Messages      *application.MessageService
	Communities   *application.CommunityService
	TypingTimeout time.Duration
	SendBuffer    int
	Metrics       *observability.Metrics
	Logger        *logrus.Logger
	Upgrader      websocket.Upgrader
}

func NewHandler(hub *Hub, messages *application.MessageService, communities *application.CommunityService,
	typingTimeout time.Duration, sendBuffer int, allowedOrigins []string, m *observability.Metrics, logger *logrus.Logger) *Handler {
	if m == nil {
		m = observability.NewNopMetrics()
	}
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	if typingTimeout <= 0 {
		typingTimeout = 2 * time.Second
	}
	return &Handler{
		Hub:           hub,
		Messages:      messages,
		Communities:   communities,
		TypingTimeout: typingTimeout,
		SendBuffer:    sendBuffer,
		Metrics:       m,
		Logger:        logger,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browsers from allowed. "*" allows every origin.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeWS must run behind middleware.Auth.
func (h *Handler) ServeWS(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
		return
	}
	// Subscribe before the handshake completes so nothing published to the
	// user after the client sees the upgrade is missed.
	s := newSession(nil, userID, h.SendBuffer)
	h.Hub.Join(s, application.UserRoom(userID))
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Hub.Remove(s)
		h.Logger.WithError(err).Warn("ws upgrade failed")
		return
	}
	s.conn = conn
	h.Metrics.WSConnections.Inc()
	log := h.Logger.WithFields(logrus.Fields{"session_id": s.ID, "user_id": userID})
	log.Info("ws connected")

	go s.writePump()
	h.readLoop(c.Request.Context(), s, log)

	h.Hub.Remove(s)
	s.close()
	h.Metrics.WSConnections.Dec()
	log.Info("ws disconnected")
}

func (h *Handler) readLoop(ctx context.Context, s *Session, log *logrus.Entry) {
	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("ws read failed")
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil || f.Event == "" {
			h.reject(s, "", apperror.Validation("Malformed frame"))
			continue
		}
		fctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = h.dispatch(fctx, s, f)
		cancel()
		if err != nil {
			if apperror.KindOf(err) == apperror.KindInternal {
				log.WithError(err).WithField("event", f.Event).Error("ws frame failed")
			}
			h.reject(s, f.Event, err)
		}
	}
}

func (h *Handler) reject(s *Session, event string, err error) {
	frame, mErr := encodeFrame(EventError, errorData{Event: event, Message: apperror.PublicMessage(err)})
	if mErr != nil {
		return
	}
	if !s.enqueue(frame) {
		h.Metrics.FramesDropped.WithLabelValues("buffer_full").Inc()
	}
}

func decode[T any](f Frame) (T, error) {
	var v T
	if len(f.Data) == 0 {
		return v, apperror.Validation("Missing frame data")
	}
	if err := json.Unmarshal(f.Data, &v); err != nil {
		return v, apperror.Validation("Malformed frame data")
	}
	return v, nil
}

// actingAs resolves the sender field of a frame against the session user.
func actingAs(s *Session, sender string) (string, error) {
	if sender == "" || sender == s.UserID {
		return s.UserID, nil
	}
	return "", apperror.Forbidden("Sender does not match the authenticated user")
}

func (h *Handler) dispatch(ctx context.Context, s *Session, f Frame) error {
	switch f.Event {
	case EventJoinCommunity, EventLeaveCommunity:
		d, err := decode[joinCommunityData](f)
		if err != nil {
			return err
		}
		if f.Event == EventLeaveCommunity {
			h.Hub.Leave(s, application.CommunityRoom(d.CommunityID))
			return nil
		}
		if _, err := h.Communities.Get(ctx, d.CommunityID); err != nil {
			return err
		}
		h.Hub.Join(s, application.CommunityRoom(d.CommunityID))
		return nil

	case EventJoinUser:
		d, err := decode[joinUserData](f)
		if err != nil {
			return err
		}
		if d.UserID != s.UserID {
			return apperror.Forbidden("You can only join your own room")
		}
		h.Hub.Join(s, application.UserRoom(d.UserID))
		return nil

	case EventSendMessage:
		d, err := decode[sendMessageData](f)
		if err != nil {
			return err
		}
		sender, err := actingAs(s, d.Sender)
		if err != nil {
			return err
		}
		if err := checkMessage(d.Message); err != nil {
			return err
		}
		_, err = h.Communities.Send(ctx, d.CommunityID, sender, d.Message)
		return err

	case EventSendPrivateMessage:
		d, err := decode[sendPrivateMessageData](f)
		if err != nil {
			return err
		}
		sender, err := actingAs(s, d.Sender)
		if err != nil {
			return err
		}
		if err := checkMessage(d.Message); err != nil {
			return err
		}
		_, err = h.Messages.Send(ctx, sender, d.Receiver, d.Message)
		return err

	case EventTyping:
		d, err := decode[typingData](f)
		if err != nil {
			return err
		}
		return h.typing(ctx, s, d)
	}
	return apperror.Validation("Unknown event " + f.Event)
}

func checkMessage(msg string) error {
	if msg == "" {
		return apperror.Validation("Message is required")
	}
	if err := validation.Message(msg); err != nil {
		return apperror.Validation("Message must be at most 4000 characters")
	}
	return nil
}

func (h *Handler) typing(ctx context.Context, s *Session, d typingData) error {
	switch {
	case d.CommunityID != "":
		return h.Hub.PublishExcept(ctx, application.CommunityRoom(d.CommunityID), application.EventUserTyping, d.Username, s)
	case d.PeerUserID != "":
		payload := application.TypingPayload{UserID: s.UserID, ExpiresInMs: h.TypingTimeout.Milliseconds()}
		return h.Hub.Publish(ctx, application.UserRoom(d.PeerUserID), application.EventTyping, payload)
	}
	return apperror.Validation("Typing needs communityId or peerUserId")
}
