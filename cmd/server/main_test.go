package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepeer/tradepeer-api/internal/auth"
	"github.com/tradepeer/tradepeer-api/internal/database"
	"github.com/tradepeer/tradepeer-api/internal/ratings"
	"github.com/tradepeer/tradepeer-api/internal/social"
	"github.com/tradepeer/tradepeer-api/internal/stats"
	"github.com/tradepeer/tradepeer-api/internal/trades"
	"github.com/tradepeer/tradepeer-api/internal/types"
)

const testSecret = "test-secret"

// newTestRouter wires the full API against a temporary database
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	authService := auth.NewService(testSecret, db)
	router := gin.New()
	setupRoutes(router, testSecret,
		auth.NewGinHandlers(authService),
		trades.NewGinHandlers(trades.NewService(db)),
		ratings.NewGinHandlers(ratings.NewService(db)),
		social.NewGinHandlers(social.NewService(db)),
		stats.NewGinHandlers(stats.NewService(db), authService),
	)
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func registerAndSignIn(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()

	w, _ := doRequest(t, router, http.MethodPost, "/api/v1/auth/signup", "", auth.SignUpRequest{
		Email:    username + "@example.test",
		Password: "secret1",
		Username: username,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doRequest(t, router, http.MethodPost, "/api/v1/auth/signin", "", auth.SignInRequest{
		Email:    username + "@example.test",
		Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var token types.TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &token))
	require.NotEmpty(t, token.Token)
	return token.Token
}

func TestEndToEnd_TradeLifecycle(t *testing.T) {
	router := newTestRouter(t)

	owner := registerAndSignIn(t, router, "owner_user")
	rater := registerAndSignIn(t, router, "rater_user")

	// Owner submits a trade; status defaults to Open
	w, env := doRequest(t, router, http.MethodPost, "/api/v1/trades", owner, trades.TradeInput{
		AssetPair:  "BTC/USD",
		TradeType:  "Long",
		EntryPrice: "100",
		ExitPrice:  "110",
		Strategy:   "Swing",
		TradeDate:  "2026-08-01",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var trade types.Trade
	require.NoError(t, json.Unmarshal(env.Data, &trade))
	assert.Equal(t, "Open", trade.Status)
	require.NotEmpty(t, trade.TradeID)

	tradeURL := "/api/v1/trades/" + trade.TradeID

	getDetail := func() types.TradeDetail {
		w, env := doRequest(t, router, http.MethodGet, tradeURL, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var detail types.TradeDetail
		require.NoError(t, json.Unmarshal(env.Data, &detail))
		return detail
	}

	// No ratings yet
	detail := getDetail()
	assert.Zero(t, detail.AverageRating)
	assert.Zero(t, detail.TotalRatings)

	// Second user rates 5: average 0 -> 5
	w, _ = doRequest(t, router, http.MethodPost, tradeURL+"/ratings", rater,
		ratings.RatingRequest{Rating: 5})
	require.Equal(t, http.StatusCreated, w.Code)

	detail = getDetail()
	assert.Equal(t, 5.0, detail.AverageRating)
	assert.Equal(t, 1, detail.TotalRatings)

	// Same user rates again: average 5 -> 3, count stays 1
	w, _ = doRequest(t, router, http.MethodPost, tradeURL+"/ratings", rater,
		ratings.RatingRequest{Rating: 3})
	require.Equal(t, http.StatusCreated, w.Code)

	detail = getDetail()
	assert.Equal(t, 3.0, detail.AverageRating)
	assert.Equal(t, 1, detail.TotalRatings)

	// Like then unlike
	w, env = doRequest(t, router, http.MethodPost, tradeURL+"/like", rater, struct{}{})
	require.Equal(t, http.StatusCreated, w.Code)
	var status types.LikeStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.Liked)
	assert.Equal(t, 1, getDetail().LikeCount)

	w, env = doRequest(t, router, http.MethodPost, tradeURL+"/like", rater, struct{}{})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.Liked)
	assert.Equal(t, 0, getDetail().LikeCount)

	// Feed carries the aggregates and owner info
	w, env = doRequest(t, router, http.MethodGet, "/api/v1/feed", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed []types.TradeWithStats
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "owner_user", feed[0].Username)
	assert.Equal(t, 3.0, feed[0].AverageRating)

	// Rankings include both users
	w, env = doRequest(t, router, http.MethodGet, "/api/v1/rankings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rankingRows []types.UserRanking
	require.NoError(t, json.Unmarshal(env.Data, &rankingRows))
	assert.Len(t, rankingRows, 2)
}

func TestEndToEnd_AuthRequired(t *testing.T) {
	router := newTestRouter(t)

	w, env := doRequest(t, router, http.MethodPost, "/api/v1/trades", "", trades.TradeInput{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, _ = doRequest(t, router, http.MethodPost, "/api/v1/trades/x/like", "", struct{}{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEndToEnd_ValidationErrors(t *testing.T) {
	router := newTestRouter(t)
	owner := registerAndSignIn(t, router, "owner_user")

	w, env := doRequest(t, router, http.MethodPost, "/api/v1/trades", owner, trades.TradeInput{
		AssetPair:  "BTC/USD",
		TradeType:  "Long",
		EntryPrice: "-5",
		Strategy:   "Swing",
		TradeDate:  "2026-08-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Equal(t, "Entry price must be a positive number", env.Error.Message)
}

func TestEndToEnd_CommentOwnership(t *testing.T) {
	router := newTestRouter(t)

	owner := registerAndSignIn(t, router, "owner_user")
	commenter := registerAndSignIn(t, router, "commenter_user")

	w, env := doRequest(t, router, http.MethodPost, "/api/v1/trades", owner, trades.TradeInput{
		AssetPair:  "BTC/USD",
		TradeType:  "Long",
		EntryPrice: "100",
		Strategy:   "Swing",
		TradeDate:  "2026-08-01",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var trade types.Trade
	require.NoError(t, json.Unmarshal(env.Data, &trade))

	w, env = doRequest(t, router, http.MethodPost,
		"/api/v1/trades/"+trade.TradeID+"/comments", commenter,
		social.CommentRequest{Content: "great entry"})
	require.Equal(t, http.StatusCreated, w.Code)
	var comment types.Comment
	require.NoError(t, json.Unmarshal(env.Data, &comment))

	// The trade owner cannot delete someone else's comment, and the
	// response does not reveal that the comment exists
	w, env = doRequest(t, router, http.MethodDelete,
		"/api/v1/comments/"+comment.CommentID, owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	// The author can
	w, _ = doRequest(t, router, http.MethodDelete,
		"/api/v1/comments/"+comment.CommentID, commenter, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Comment listing is empty again
	w, env = doRequest(t, router, http.MethodGet,
		"/api/v1/trades/"+trade.TradeID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []types.CommentWithAuthor
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	assert.Empty(t, comments)
}
