package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"dogwalk/internal/logging"
	"dogwalk/internal/realtime"
	"dogwalk/internal/repository/memory"
	"dogwalk/internal/service"
	"dogwalk/internal/session"
	"dogwalk/internal/walk"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger := logging.Discard()
	store := memory.NewStore()
	hub := realtime.NewHub(16)
	events := service.NewInlineEventSink(service.NewNotificationService(logger))

	payments := service.NewPaymentService(service.NewMockPSP())
	walkers := service.NewWalkerService(store.Walkers(), store.Transactions(), nil, logger)
	owners := service.NewOwnerService(store.Owners())
	bookings := service.NewBookingService(store, store.Bookings(), store.Owners(), store.Locations(), payments, hub, events, logger)
	walks := service.NewWalkService(store, store.Bookings(), store.Walkers(), service.NewLocalLocker(), nil, walkers, payments, hub, events, logger)
	tracking := service.NewTrackingService(store.Bookings(), store.Locations(), nil, hub, events, logger)
	messages := service.NewMessageService(store.Conversations(), store.Owners(), store.Walkers(), hub, logger)

	registry := walk.NewRegistry(walk.Deps{Backend: walks, Fixes: tracking, Presence: walkers, Logger: logger})
	t.Cleanup(registry.Close)

	oh := NewOwnerHandler(owners, bookings)
	wh := NewWalkerHandler(walkers, registry)
	bh := NewBookingHandler(bookings, tracking)
	mh := NewMessageHandler(messages, logger)
	ah := NewAdminHandler(walkers)
	lh := NewLiveHandler(session.Deps{Bookings: bookings, Walkers: walkers, Positions: tracking, Feed: hub, Logger: logger}, registry, logger)

	r := gin.New()
	r.POST("/v1/owners/register", oh.Register)
	r.GET("/v1/owners/:id/current-walk", oh.CurrentWalk)
	r.GET("/v1/owners/:id/live", lh.OwnerLive)
	r.POST("/v1/walkers/register", wh.Register)
	r.GET("/v1/walkers/:id", wh.GetWalker)
	r.GET("/v1/walkers/:id/balance", wh.Balance)
	r.GET("/v1/walkers/:id/claimable", wh.Claimable)
	r.GET("/v1/walkers/:id/active", wh.Active)
	r.POST("/v1/walkers/:id/accept", wh.Accept)
	r.POST("/v1/walkers/:id/online", wh.SetOnline)
	r.POST("/v1/walkers/:id/bookings/:booking_id/start", wh.StartWalk)
	r.POST("/v1/walkers/:id/bookings/:booking_id/finish", wh.FinishWalk)
	r.GET("/v1/walkers/:id/gps", lh.WalkerGPS)
	r.POST("/v1/bookings", bh.CreateBooking)
	r.GET("/v1/bookings/:id", bh.GetBooking)
	r.POST("/v1/bookings/:id/rating", bh.SubmitRating)
	r.GET("/v1/bookings/:id/locations", bh.ListLocations)
	r.POST("/v1/bookings/:id/locations", bh.AppendLocation)
	r.POST("/v1/conversations", mh.OpenConversation)
	r.GET("/v1/conversations", mh.ListConversations)
	r.GET("/v1/conversations/:id/messages", mh.ListMessages)
	r.POST("/v1/conversations/:id/messages", mh.SendMessage)
	r.GET("/v1/conversations/:id/live", mh.Live)
	r.GET("/v1/admin/walkers", ah.ListWalkers)
	r.POST("/v1/admin/walkers/:id/verification", ah.ReviewVerification)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type world struct {
	ownerID   string
	walkerID  string
	bookingID string
}

// approvedWalker registers a walker and approves their verification.
func approvedWalker(t *testing.T, r http.Handler, name string) WalkerResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/v1/walkers/register", RegisterWalkerRequest{Name: name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	walker := decode[WalkerResponse](t, w)
	require.Equal(t, "pending", walker.Verification)

	w = doJSON(t, r, http.MethodPost, "/v1/admin/walkers/"+walker.ID+"/verification", VerificationRequest{Status: "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[WalkerResponse](t, w)
}

func seed(t *testing.T, r http.Handler) world {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/v1/owners/register", RegisterOwnerRequest{Name: "Laura", Email: "Laura@Example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	owner := decode[OwnerResponse](t, w)
	require.Equal(t, "laura@example.com", owner.Email)

	walker := approvedWalker(t, r, "Ana")

	w = doJSON(t, r, http.MethodPost, "/v1/bookings", CreateBookingRequest{
		OwnerID: owner.ID, Address: "Cra 43A #1-50", Lat: 6.2088, Lng: -75.5672,
		ScheduledDate: "2026-10-20", ScheduledTime: "09:00", Duration: "medium",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := decode[BookingResponse](t, w)
	require.Equal(t, int64(55000), booking.TotalPrice)
	require.Equal(t, "pending", booking.Status)

	return world{ownerID: owner.ID, walkerID: walker.ID, bookingID: booking.ID}
}

func TestRegisterOwner_Errors(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/owners/register", RegisterOwnerRequest{Name: "Laura", Email: "not-an-email"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/v1/owners/register", RegisterOwnerRequest{Name: "Laura", Email: "l@example.com"}).Code)
	w = doJSON(t, r, http.MethodPost, "/v1/owners/register", RegisterOwnerRequest{Name: "Laura", Email: "l@example.com"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateBooking_Validation(t *testing.T) {
	r := newTestRouter(t)
	wd := seed(t, r)

	w := doJSON(t, r, http.MethodPost, "/v1/bookings", CreateBookingRequest{
		OwnerID: wd.ownerID, Address: "Cra 43A", Lat: 6.2, Lng: -75.5,
		ScheduledDate: "2026-10-20", ScheduledTime: "09:00", Duration: "marathon",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/bookings", CreateBookingRequest{
		OwnerID: "missing", Address: "Cra 43A", Lat: 6.2, Lng: -75.5,
		ScheduledDate: "2026-10-20", ScheduledTime: "09:00", Duration: "short",
	})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/bookings/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccept_SecondWalkerGetsConflict(t *testing.T) {
	r := newTestRouter(t)
	wd := seed(t, r)

	other := approvedWalker(t, r, "Juan")

	claimable := decode[[]BookingResponse](t, doJSON(t, r, http.MethodGet, "/v1/walkers/"+wd.walkerID+"/claimable", nil))
	require.Len(t, claimable, 1)

	w := doJSON(t, r, http.MethodPost, "/v1/walkers/"+wd.walkerID+"/accept", AcceptBookingRequest{BookingID: wd.bookingID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/v1/walkers/"+other.ID+"/accept", AcceptBookingRequest{BookingID: wd.bookingID})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "booking already taken by another walker", decode[ErrorResponse](t, w).Error)

	active := decode[[]BookingResponse](t, doJSON(t, r, http.MethodGet, "/v1/walkers/"+wd.walkerID+"/active", nil))
	require.Len(t, active, 1)
	require.Equal(t, "accepted", active[0].Status)

	w = doJSON(t, r, http.MethodPost, "/v1/walkers/unknown/accept", AcceptBookingRequest{BookingID: wd.bookingID})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestFinish_ConfirmationAndCommission(t *testing.T) {
	r := newTestRouter(t)
	wd := seed(t, r)
	base := "/v1/walkers/" + wd.walkerID

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, base+"/accept", AcceptBookingRequest{BookingID: wd.bookingID}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, base+"/bookings/"+wd.bookingID+"/start", nil).Code)

	w := doJSON(t, r, http.MethodPost, base+"/bookings/"+wd.bookingID+"/finish", FinishWalkRequest{Confirm: false})
	require.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = doJSON(t, r, http.MethodPost, base+"/bookings/"+wd.bookingID+"/finish", FinishWalkRequest{Confirm: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[FinishWalkResponse](t, w)
	require.Equal(t, "completed", res.Booking.Status)
	require.Equal(t, int64(2200), res.Transaction.GatewayFee)
	require.Equal(t, int64(11000), res.Transaction.PlatformFee)
	require.Equal(t, int64(41800), res.Transaction.NetEarning)
	require.Equal(t, "completed", res.Transaction.Status)

	balance := decode[BalanceResponse](t, doJSON(t, r, http.MethodGet, base+"/balance", nil))
	require.Equal(t, int64(41800), balance.Balance)
	require.Len(t, balance.Earnings, 1)

	w = doJSON(t, r, http.MethodPost, base+"/bookings/"+wd.bookingID+"/finish", FinishWalkRequest{Confirm: true})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRating_FlowAndCurrentWalk(t *testing.T) {
	r := newTestRouter(t)
	wd := seed(t, r)
	base := "/v1/walkers/" + wd.walkerID
	ratingPath := "/v1/bookings/" + wd.bookingID + "/rating"

	current := decode[CurrentWalkResponse](t, doJSON(t, r, http.MethodGet, "/v1/owners/"+wd.ownerID+"/current-walk", nil))
	require.NotNil(t, current.Booking)
	require.Equal(t, wd.bookingID, current.Booking.ID)

	w := doJSON(t, r, http.MethodPost, ratingPath, RatingRequest{OwnerID: wd.ownerID, Rating: 5})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, ratingPath, RatingRequest{Rating: 5})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "owner_id is required", decode[ErrorResponse](t, w).Error)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, base+"/accept", AcceptBookingRequest{BookingID: wd.bookingID}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, base+"/bookings/"+wd.bookingID+"/finish", FinishWalkRequest{Confirm: true}).Code)

	w = doJSON(t, r, http.MethodPost, ratingPath, RatingRequest{Rating: 1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, ratingPath, RatingRequest{OwnerID: "someone-else", Rating: 1})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, ratingPath, RatingRequest{OwnerID: wd.ownerID, Rating: 0})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, ratingPath, RatingRequest{OwnerID: wd.ownerID, Rating: 5, Review: "Muy puntual"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 5, decode[BookingResponse](t, w).Rating)

	current = decode[CurrentWalkResponse](t, doJSON(t, r, http.MethodGet, "/v1/owners/"+wd.ownerID+"/current-walk", nil))
	require.Nil(t, current.Booking)

	walker := decode[WalkerResponse](t, doJSON(t, r, http.MethodGet, base, nil))
	require.Equal(t, 1, walker.Reviews)
	require.InDelta(t, 5.0, walker.Rating, 1e-9)
}

func TestAppendLocation_RequiresActiveAssignedBooking(t *testing.T) {
	r := newTestRouter(t)
	wd := seed(t, r)
	path := "/v1/bookings/" + wd.bookingID + "/locations"

	w := doJSON(t, r, http.MethodPost, path, AppendLocationRequest{WalkerID: wd.walkerID, Lat: 6.24, Lng: -75.58})
	require.Equal(t, http.StatusForbidden, w.Code)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, "/v1/walkers/"+wd.walkerID+"/accept", AcceptBookingRequest{BookingID: wd.bookingID}).Code)

	w = doJSON(t, r, http.MethodPost, path, AppendLocationRequest{WalkerID: wd.walkerID, Lat: 123, Lng: -75.58})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, path, AppendLocationRequest{WalkerID: wd.walkerID, Lat: 6.24, Lng: -75.58})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	fixes := decode[[]LocationResponse](t, doJSON(t, r, http.MethodGet, path, nil))
	require.Len(t, fixes, 1)
	require.Equal(t, 6.24, fixes[0].Lat)
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(liveMessage) bool) liveMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg liveMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func phase(p session.Phase) func(liveMessage) bool {
	return func(m liveMessage) bool { return m.Type == "state" && m.Phase == p }
}

func TestOwnerLive_FollowsWalkAndRates(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()
	wd := seed(t, r)
	base := "/v1/walkers/" + wd.walkerID

	live := dial(t, srv, "/v1/owners/"+wd.ownerID+"/live")
	readUntil(t, live, phase(session.PhasePending))

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, base+"/accept", AcceptBookingRequest{BookingID: wd.bookingID}).Code)
	msg := readUntil(t, live, phase(session.PhaseAccepted))
	require.NotNil(t, msg.Walker)
	require.Equal(t, "Ana", msg.Walker.Name)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, base+"/bookings/"+wd.bookingID+"/start", nil).Code)
	readUntil(t, live, phase(session.PhaseInProgress))

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/v1/bookings/"+wd.bookingID+"/locations",
		AppendLocationRequest{WalkerID: wd.walkerID, Lat: 6.30, Lng: -75.59}).Code)
	msg = readUntil(t, live, func(m liveMessage) bool { return m.WalkerPosition != nil })
	require.Equal(t, 6.30, msg.WalkerPosition.Lat)
	require.Equal(t, 6.30, msg.MapCenter.Lat)

	require.NoError(t, live.WriteJSON(liveCommand{Type: "rate", Rating: 5}))
	msg = readUntil(t, live, func(m liveMessage) bool { return m.Type == "error" })
	require.Equal(t, session.ErrNotCompleted.Error(), msg.Error)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, base+"/bookings/"+wd.bookingID+"/finish", FinishWalkRequest{Confirm: true}).Code)
	readUntil(t, live, phase(session.PhaseCompleted))

	require.NoError(t, live.WriteJSON(liveCommand{Type: "rate", Rating: 0}))
	msg = readUntil(t, live, func(m liveMessage) bool { return m.Type == "error" })
	require.Equal(t, session.ErrInvalidRating.Error(), msg.Error)

	require.NoError(t, live.WriteJSON(liveCommand{Type: "rate", Rating: 4, Review: "Bien"}))
	msg = readUntil(t, live, phase(session.PhaseConcluded))
	require.Equal(t, 4, msg.Booking.Rating)

	var tail liveMessage
	err := live.ReadJSON(&tail)
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected %v", err)
}

func TestOwnerLive_NoWalk(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	live := dial(t, srv, "/v1/owners/nobody/live")
	readUntil(t, live, phase(session.PhaseNoWalk))
}

func TestWalkerGPS_RelaysWhileOnlineWithActiveWalk(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()
	wd := seed(t, r)
	base := "/v1/walkers/" + wd.walkerID

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, base+"/accept", AcceptBookingRequest{BookingID: wd.bookingID}).Code)

	gps := dial(t, srv, base+"/gps")

	w := doJSON(t, r, http.MethodPost, base+"/online", OnlineRequest{Online: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, true, decode[map[string]bool](t, w)["relaying"])

	require.NoError(t, gps.WriteJSON(gpsMessage{Lat: 6.2442, Lng: -75.5812}))
	require.NoError(t, gps.WriteJSON(gpsMessage{Lat: 6.24421, Lng: -75.5812}))
	require.NoError(t, gps.WriteJSON(gpsMessage{Lat: 6.2452, Lng: -75.5812}))

	path := "/v1/bookings/" + wd.bookingID + "/locations"
	require.Eventually(t, func() bool {
		return len(decode[[]LocationResponse](t, doJSON(t, r, http.MethodGet, path, nil))) == 2
	}, 2*time.Second, 20*time.Millisecond)

	w = doJSON(t, r, http.MethodPost, base+"/online", OnlineRequest{Online: false})
	require.Equal(t, false, decode[map[string]bool](t, w)["relaying"])
}

func TestAdmin_VerificationGatesAccept(t *testing.T) {
	r := newTestRouter(t)
	wd := seed(t, r)

	w := doJSON(t, r, http.MethodPost, "/v1/walkers/register", RegisterWalkerRequest{Name: "Pedro"})
	require.Equal(t, http.StatusCreated, w.Code)
	pedro := decode[WalkerResponse](t, w)

	w = doJSON(t, r, http.MethodPost, "/v1/walkers/"+pedro.ID+"/accept", AcceptBookingRequest{BookingID: wd.bookingID})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "walker identity not verified", decode[ErrorResponse](t, w).Error)

	pending := decode[[]WalkerResponse](t, doJSON(t, r, http.MethodGet, "/v1/admin/walkers?status=pending", nil))
	require.Len(t, pending, 1)
	require.Equal(t, pedro.ID, pending[0].ID)

	w = doJSON(t, r, http.MethodGet, "/v1/admin/walkers?status=banned", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	path := "/v1/admin/walkers/" + pedro.ID + "/verification"
	w = doJSON(t, r, http.MethodPost, path, VerificationRequest{Status: "pending"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, path, VerificationRequest{Status: "rejected"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "rejected", decode[WalkerResponse](t, w).Verification)

	w = doJSON(t, r, http.MethodPost, path, VerificationRequest{Status: "approved"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/walkers/"+pedro.ID+"/accept", AcceptBookingRequest{BookingID: wd.bookingID})
	require.Equal(t, http.StatusForbidden, w.Code)

	all := decode[[]WalkerResponse](t, doJSON(t, r, http.MethodGet, "/v1/admin/walkers", nil))
	require.Len(t, all, 2)

	w = doJSON(t, r, http.MethodPost, "/v1/admin/walkers/ghost/verification", VerificationRequest{Status: "approved"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversations_SendListAndLive(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()
	wd := seed(t, r)

	w := doJSON(t, r, http.MethodPost, "/v1/conversations", OpenConversationRequest{OwnerID: wd.ownerID, WalkerID: wd.walkerID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	conv := decode[ConversationResponse](t, w)
	again := decode[ConversationResponse](t, doJSON(t, r, http.MethodPost, "/v1/conversations", OpenConversationRequest{OwnerID: wd.ownerID, WalkerID: wd.walkerID}))
	require.Equal(t, conv.ID, again.ID)

	live := dial(t, srv, "/v1/conversations/"+conv.ID+"/live?user_id="+wd.walkerID)

	msgsPath := "/v1/conversations/" + conv.ID + "/messages"
	w = doJSON(t, r, http.MethodPost, msgsPath, SendMessageRequest{SenderID: wd.ownerID, Text: "Luna is ready at the door"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sent := decode[MessageResponse](t, w)
	require.Equal(t, wd.walkerID, sent.ReceiverID)

	require.NoError(t, live.SetReadDeadline(time.Now().Add(3*time.Second)))
	var pushed MessageResponse
	require.NoError(t, live.ReadJSON(&pushed))
	require.Equal(t, sent.ID, pushed.ID)
	require.Equal(t, "Luna is ready at the door", pushed.Text)

	w = doJSON(t, r, http.MethodPost, msgsPath, SendMessageRequest{SenderID: wd.ownerID, Text: strings.Repeat("a", 2001)})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, msgsPath, SendMessageRequest{SenderID: "stranger", Text: "hola"})
	require.Equal(t, http.StatusForbidden, w.Code)

	history := decode[[]MessageResponse](t, doJSON(t, r, http.MethodGet, msgsPath+"?user_id="+wd.walkerID, nil))
	require.Len(t, history, 1)
	w = doJSON(t, r, http.MethodGet, msgsPath+"?user_id=stranger", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	list := decode[[]ConversationResponse](t, doJSON(t, r, http.MethodGet, "/v1/conversations?user_id="+wd.walkerID, nil))
	require.Len(t, list, 1)
	w = doJSON(t, r, http.MethodGet, "/v1/conversations", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/conversations/"+conv.ID+"/live?user_id=stranger", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}
