package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-reservation/internal/config"
	"github.com/iliyamo/seat-reservation/internal/database/dbtest"
	"github.com/iliyamo/seat-reservation/internal/handler"
	"github.com/iliyamo/seat-reservation/internal/middleware"
	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/notify"
	"github.com/iliyamo/seat-reservation/internal/notify/notifytest"
	"github.com/iliyamo/seat-reservation/internal/repository"
	"github.com/iliyamo/seat-reservation/internal/router"
	"github.com/iliyamo/seat-reservation/internal/service"
	"github.com/iliyamo/seat-reservation/internal/utils"
)

const (
	secret   = "router-secret"
	reviewer = int64(900)
	alice    = int64(1)
	bob      = int64(2)
)

type app struct {
	e   *echo.Echo
	rec *notifytest.Recorder
	res *service.Reservations
}

func newApp(t *testing.T, rdb *redis.Client) *app {
	t.Helper()
	ctx := context.Background()
	db := dbtest.OpenTest(t)

	seats := repository.NewSeatRepo(db)
	events := repository.NewEventRepo(db)
	payments := repository.NewPaymentRepo(db)
	reviewers := repository.NewReviewerRepo(db)
	sessions := repository.NewSessionRepo(db)

	pool := service.NewWorkerPool(4)
	t.Cleanup(pool.Close)

	rec := &notifytest.Recorder{}
	res := service.NewReservations(seats, events, payments, pool)
	approvals := service.NewApprovals(res, reviewers, rec)
	agg := service.NewAggregator(seats, events, payments)

	require.NoError(t, events.Provision(ctx, &model.Event{ID: 1, Title: "Premiere", Rows: 1, Cols: 2}, map[int]int64{1: 150000}, 0))
	require.NoError(t, approvals.EnsureRootReviewer(ctx, reviewer))

	e := echo.New()
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Stats: func() notify.Stats { return notify.Stats{} }})
	cacheCfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, KeyStrategy: "route_query", Prefix: "test:cache", MaxBodyBytes: 1 << 20}
	router.RegisterPublic(e, handler.NewPublicHandler(res), middleware.ResponseCache(cacheCfg, rdb))
	router.RegisterCustomer(e, handler.NewCustomerHandler(res, approvals, sessions, 40*time.Minute), secret,
		middleware.RateLimit(config.RateLimitConfig{}, nil))
	router.RegisterReviewer(e, handler.NewReviewerHandler(approvals, res, agg), secret)
	router.RegisterSessions(e, handler.NewSessionHandler(sessions), secret, approvals.IsReviewer)
	support := service.NewSupport(repository.NewSupportRepo(db), reviewers, rec)
	router.RegisterSupport(e, handler.NewSupportHandler(support, sessions), secret, approvals.IsReviewer)
	return &app{e: e, rec: rec, res: res}
}

func token(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *app) do(t *testing.T, method, path, tok, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthAndPublicBrowse(t *testing.T) {
	a := newApp(t, nil)

	rec := a.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = a.do(t, http.MethodGet, "/v1/events", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events struct {
		Events []model.Event `json:"events"`
	}
	decode(t, rec, &events)
	require.Len(t, events.Events, 1)
	assert.Equal(t, "Premiere", events.Events[0].Title)

	rec = a.do(t, http.MethodGet, "/v1/events/1/seats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "reserved_by")
	var seats struct {
		Seats []struct {
			SeatID string `json:"seat_id"`
			Status string `json:"status"`
			Price  int64  `json:"price"`
		} `json:"seats"`
	}
	decode(t, rec, &seats)
	require.Len(t, seats.Seats, 2)
	assert.Equal(t, "R1C1", seats.Seats[0].SeatID)
	assert.Equal(t, "FREE", seats.Seats[0].Status)
	assert.Equal(t, int64(150000), seats.Seats[0].Price)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/events/99/seats", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/events/x/seats", "", "").Code)
}

func TestEventListIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	a := newApp(t, rdb)

	first := a.do(t, http.MethodGet, "/v1/events", "", "")
	require.Equal(t, http.StatusOK, first.Code)
	second := a.do(t, http.MethodGet, "/v1/events", "", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestClaimFlow(t *testing.T) {
	a := newApp(t, nil)
	aliceTok := token(t, alice, middleware.RoleCustomer)
	bobTok := token(t, bob, middleware.RoleCustomer)

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/v1/events/1/seats/R1C1/claim", "", "").Code)
	assert.Equal(t, http.StatusForbidden,
		a.do(t, http.MethodPost, "/v1/events/1/seats/R1C1/claim", token(t, reviewer, middleware.RoleReviewer), "").Code)

	rec := a.do(t, http.MethodPost, "/v1/events/1/seats/r1c1/claim", aliceTok, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var claimed struct {
		SeatID    string     `json:"seat_id"`
		Status    string     `json:"status"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	decode(t, rec, &claimed)
	assert.Equal(t, "R1C1", claimed.SeatID)
	assert.Equal(t, "RESERVED", claimed.Status)
	assert.NotNil(t, claimed.ExpiresAt)

	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, "/v1/events/1/seats/R1C1/claim", bobTok, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/v1/events/1/seats/R9C9/claim", bobTok, "").Code)

	rec = a.do(t, http.MethodGet, "/v1/me/reservation", aliceTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"seat_id":"R1C1"`)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/me/reservation", bobTok, "").Code)

	rec = a.do(t, http.MethodGet, "/v1/me/session", aliceTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"awaiting_evidence"`)
}

func TestEvidenceAndApproval(t *testing.T) {
	a := newApp(t, nil)
	aliceTok := token(t, alice, middleware.RoleCustomer)
	revTok := token(t, reviewer, middleware.RoleReviewer)

	assert.Equal(t, http.StatusConflict,
		a.do(t, http.MethodPost, "/v1/evidence", aliceTok, `{"evidence_ref":"photo-1"}`).Code)

	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/v1/events/1/seats/R1C2/claim", aliceTok, "").Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/v1/evidence", aliceTok, `{"evidence_ref":"  "}`).Code)

	rec := a.do(t, http.MethodPost, "/v1/evidence", aliceTok, `{"evidence_ref":"photo-1"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "pending_review")
	requested := a.rec.OfKind(notify.KindReviewRequested)
	require.Len(t, requested, 1)
	assert.Equal(t, reviewer, requested[0].Recipient)
	assert.Equal(t, "photo-1", requested[0].EvidenceRef)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/me/session", aliceTok, "").Code)

	// Customers cannot decide.
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/v1/reviews/1/R1C2/1/approve", aliceTok, "").Code)
	// A REVIEWER token for someone outside the directory is refused.
	assert.Equal(t, http.StatusForbidden,
		a.do(t, http.MethodPost, "/v1/reviews/1/R1C2/1/approve", token(t, 55, middleware.RoleReviewer), "").Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/v1/reviews/1/R1C2/1/maybe", revTok, "").Code)

	rec = a.do(t, http.MethodPost, "/v1/reviews/1/R1C2/1/approve", revTok, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)

	seat, err := a.res.GetSeat(context.Background(), 1, "R1C2")
	require.NoError(t, err)
	assert.Equal(t, model.SeatSold, seat.Status)
	assert.Len(t, a.rec.OfKind(notify.KindPaymentApproved), 1)

	// Rejecting a sold seat is a stale decision.
	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, "/v1/reviews/1/R1C2/1/reject", revTok, "").Code)

	rec = a.do(t, http.MethodGet, "/v1/admin/reports?event_id=1", revTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rep service.Report
	decode(t, rec, &rep)
	assert.Equal(t, int64(1), rep.Totals.SoldCount)
	assert.Equal(t, int64(150000), rep.Totals.SoldIncome)
	assert.Equal(t, int64(1), rep.Totals.FreeCount)
	assert.Equal(t, int64(1), rep.Totals.PaidCount)
}

func TestRejectFreesSeat(t *testing.T) {
	a := newApp(t, nil)
	aliceTok := token(t, alice, middleware.RoleCustomer)
	revTok := token(t, reviewer, middleware.RoleReviewer)

	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/v1/events/1/seats/R1C1/claim", aliceTok, "").Code)
	rec := a.do(t, http.MethodPost, "/v1/reviews/1/R1C1/1/reject", revTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"rejected"`)
	assert.Len(t, a.rec.OfKind(notify.KindPaymentRejected), 1)

	rec = a.do(t, http.MethodPost, "/v1/events/1/seats/R1C1/claim", token(t, bob, middleware.RoleCustomer), "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	a := newApp(t, nil)
	revTok := token(t, reviewer, middleware.RoleReviewer)

	rec := a.do(t, http.MethodPut, "/v1/admin/events/1/seats/R1C1/price", revTok, `{"price":250000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":250000`)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPut, "/v1/admin/events/1/seats/R1C1/price", revTok, `{"price":0}`).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPut, "/v1/admin/events/1/seats/R5C5/price", revTok, `{"price":10}`).Code)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/admin/reports?event_id=42", revTok, "").Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/admin/reports?event_id=abc", revTok, "").Code)

	rec = a.do(t, http.MethodPost, "/v1/admin/reviewers", revTok, `{"user_id":77,"username":"kim"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/admin/reviewers", revTok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Reviewers []model.Reviewer `json:"reviewers"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Reviewers, 2)

	// The new reviewer can now act.
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/v1/admin/reviewers", token(t, 77, middleware.RoleReviewer), "").Code)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodDelete, "/v1/admin/reviewers/900", revTok, "").Code)
	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, "/v1/admin/reviewers/77", revTok, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, "/v1/admin/reviewers/77", revTok, "").Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/v1/admin/reviewers", token(t, 77, middleware.RoleReviewer), "").Code)
}

func TestSessionEndpoints(t *testing.T) {
	a := newApp(t, nil)
	tok := token(t, alice, middleware.RoleCustomer)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/me/session", tok, "").Code)
	assert.Equal(t, http.StatusBadRequest,
		a.do(t, http.MethodPut, "/v1/me/session", tok, `{"kind":"awaiting_evidence"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		a.do(t, http.MethodPut, "/v1/me/session", tok, `{"kind":"bogus"}`).Code)

	rec := a.do(t, http.MethodPut, "/v1/me/session", tok, `{"kind":"awaiting_support_message"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/v1/me/session", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"awaiting_support_message"`)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, "/v1/me/session", tok, "").Code)
	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, "/v1/me/session", tok, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/me/session", tok, "").Code)
}

func TestSessionKindsFollowRole(t *testing.T) {
	a := newApp(t, nil)
	cust := token(t, alice, middleware.RoleCustomer)
	staff := token(t, reviewer, middleware.RoleReviewer)

	for _, body := range []string{
		`{"kind":"awaiting_reviewer_add"}`,
		`{"kind":"awaiting_reviewer_remove"}`,
		`{"kind":"awaiting_price","event_id":1,"seat_id":"R1C1"}`,
		`{"kind":"awaiting_support_reply","message_id":3}`,
	} {
		rec := a.do(t, http.MethodPut, "/v1/me/session", cust, body)
		assert.Equal(t, http.StatusForbidden, rec.Code, body)

		rec = a.do(t, http.MethodPut, "/v1/admin/session", staff, body)
		assert.Equal(t, http.StatusOK, rec.Code, body+" "+rec.Body.String())
	}

	for _, body := range []string{
		`{"kind":"awaiting_evidence","event_id":1,"seat_id":"R1C1"}`,
		`{"kind":"awaiting_support_message"}`,
	} {
		assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPut, "/v1/admin/session", staff, body).Code, body)
		assert.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/v1/me/session", cust, body).Code, body)
	}

	rec := a.do(t, http.MethodGet, "/v1/admin/session", staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"awaiting_support_reply"`)
	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, "/v1/admin/session", staff, "").Code)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/v1/admin/session", cust, "").Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/v1/admin/session", token(t, 77, middleware.RoleReviewer), "").Code,
		"reviewer role without a directory entry")
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/v1/me/session", staff, "").Code)
}

func TestSupportInbox(t *testing.T) {
	a := newApp(t, nil)
	cust := token(t, alice, middleware.RoleCustomer)
	staff := token(t, reviewer, middleware.RoleReviewer)

	require.Equal(t, http.StatusOK,
		a.do(t, http.MethodPut, "/v1/me/session", cust, `{"kind":"awaiting_support_message"}`).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/v1/support", cust, `{"text":"  "}`).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/v1/support", staff, `{"text":"hi"}`).Code)

	rec := a.do(t, http.MethodPost, "/v1/support", cust, `{"text":"my QR code is blank"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var msg model.SupportMessage
	decode(t, rec, &msg)
	assert.Equal(t, alice, msg.UserID)
	assert.Equal(t, model.SupportPending, msg.Status)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/me/session", cust, "").Code, "session cleared")

	sent := a.rec.OfKind(notify.KindSupportMessage)
	require.Len(t, sent, 1)
	assert.Equal(t, reviewer, sent[0].Recipient)
	assert.Equal(t, msg.ID, sent[0].MessageID)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/v1/admin/support", cust, "").Code)
	rec = a.do(t, http.MethodGet, "/v1/admin/support?page=0&size=10", staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page service.SupportPage
	decode(t, rec, &page)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "my QR code is blank", page.Messages[0].Text)

	path := "/v1/admin/support/" + strconv.FormatInt(msg.ID, 10)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, path, staff, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/admin/support/999", staff, "").Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/admin/support/x", staff, "").Code)

	replyState := `{"kind":"awaiting_support_reply","message_id":` + strconv.FormatInt(msg.ID, 10) + `}`
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/v1/admin/session", staff, replyState).Code)

	rec = a.do(t, http.MethodPost, path+"/reply", staff, `{"text":"resent to your inbox"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &msg)
	assert.Equal(t, model.SupportHandled, msg.Status)
	assert.Equal(t, "resent to your inbox", msg.Reply)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/admin/session", staff, "").Code, "session cleared")

	replies := a.rec.OfKind(notify.KindSupportReply)
	require.Len(t, replies, 1)
	assert.Equal(t, alice, replies[0].Recipient)
	assert.Equal(t, "resent to your inbox", replies[0].Text)

	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, path+"/resolve", staff, "").Code)

	rec = a.do(t, http.MethodGet, "/v1/admin/support/users/1", staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []model.SupportMessage
	decode(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, model.SupportHandled, history[0].Status)
}
