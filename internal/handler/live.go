package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"dogwalk/internal/domain"
	"dogwalk/internal/session"
	"dogwalk/internal/walk"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// gpsBuffer is how many device positions may queue before new ones are dropped.
const gpsBuffer = 16

// LiveHandler serves the realtime WebSocket endpoints.
type LiveHandler struct {
	sessions session.Deps
	registry *walk.Registry
	logger   *slog.Logger
}

// NewLiveHandler creates a new LiveHandler. sessions.OnChange is set per
// connection.
func NewLiveHandler(sessions session.Deps, registry *walk.Registry, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{sessions: sessions, registry: registry, logger: logger}
}

// upgrade switches the request to a WebSocket and clears the deadlines the
// HTTP server left on the hijacked connection.
func upgrade(c *gin.Context) (*websocket.Conn, error) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})
	return conn, nil
}

// liveMessage is every frame the owner stream sends.
type liveMessage struct {
	Type           string             `json:"type"` // state, error
	Phase          session.Phase      `json:"phase,omitempty"`
	Booking        *BookingResponse   `json:"booking,omitempty"`
	Walker         *WalkerResponse    `json:"walker,omitempty"`
	WalkerPosition *domain.Coordinate `json:"walker_position,omitempty"`
	MapCenter      *domain.Coordinate `json:"map_center,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// liveCommand is a frame sent by the owner client.
type liveCommand struct {
	Type   string `json:"type"` // rate
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// gpsMessage is a device position frame.
type gpsMessage struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func toLiveMessage(st session.State) liveMessage {
	msg := liveMessage{Type: "state", Phase: st.Phase, WalkerPosition: st.WalkerPosition}
	center := st.MapCenter
	msg.MapCenter = &center
	if st.Booking != nil {
		b := toBookingResponse(st.Booking)
		msg.Booking = &b
	}
	if st.Walker != nil {
		w := toWalkerResponse(st.Walker)
		msg.Walker = &w
	}
	return msg
}

func errorMessage(err error) liveMessage {
	code := mapErrorToHTTPStatus(err)
	text := err.Error()
	if code == http.StatusInternalServerError {
		text = "something went wrong, please try again"
	}
	return liveMessage{Type: "error", Error: text}
}

// offerLatest replaces any unsent state with st.
func offerLatest(ch chan session.State, st session.State) {
	for {
		select {
		case ch <- st:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// OwnerLive handles GET /v1/owners/:id/live
//
// The stream sends the session state on every change and accepts
// {"type":"rate","rating":n,"review":"..."} once the walk is completed. The
// server closes the socket when the session concludes.
func (h *LiveHandler) OwnerLive(c *gin.Context) {
	conn, err := upgrade(c)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates := make(chan session.State, 1)
	deps := h.sessions
	deps.OnChange = func(st session.State) { offerLatest(updates, st) }

	sess, err := session.Open(ctx, deps, c.Param("id"))
	if err != nil {
		h.logger.Warn("opening live session", slog.String("owner_id", c.Param("id")), slog.String("error", err.Error()))
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer sess.Close()

	outbox := make(chan liveMessage, 4)
	go h.readOwnerCommands(ctx, cancel, conn, sess, outbox)

	for {
		select {
		case st := <-updates:
			if err := conn.WriteJSON(toLiveMessage(st)); err != nil {
				return
			}
		case msg := <-outbox:
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-sess.Done():
			select {
			case st := <-updates:
				_ = conn.WriteJSON(toLiveMessage(st))
			default:
			}
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(sess.State().Phase)))
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *LiveHandler) readOwnerCommands(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *session.Session, outbox chan<- liveMessage) {
	defer cancel()
	for {
		var cmd liveCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}

		var reply *liveMessage
		switch cmd.Type {
		case "rate":
			if err := sess.SubmitRating(ctx, cmd.Rating, cmd.Review); err != nil {
				m := errorMessage(err)
				reply = &m
			}
		default:
			reply = &liveMessage{Type: "error", Error: "unknown command " + cmd.Type}
		}
		if reply == nil {
			continue
		}
		select {
		case outbox <- *reply:
		case <-ctx.Done():
			return
		}
	}
}

// WalkerGPS handles GET /v1/walkers/:id/gps
//
// Each {"lat":..,"lng":..} frame feeds the walker's GPS relay. The relay only
// forwards positions while the walker is online with an active booking.
func (h *LiveHandler) WalkerGPS(c *gin.Context) {
	walkerID := c.Param("id")
	if h.sessions.Walkers != nil {
		if _, err := h.sessions.Walkers.Walker(c.Request.Context(), walkerID); err != nil {
			respondError(c, err)
			return
		}
	}
	ctrl, release := h.registry.Acquire(walkerID)
	defer release()
	if err := ctrl.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	src := make(chan domain.Coordinate, gpsBuffer)
	ctrl.AttachSource(src)
	defer func() {
		ctrl.DetachSource(src)
		close(src)
	}()

	conn, err := upgrade(c)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg gpsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		select {
		case src <- domain.Coordinate{Lat: msg.Lat, Lng: msg.Lng}:
		default:
			h.logger.Debug("gps buffer full, dropping position", slog.String("walker_id", walkerID))
		}
	}
}
