package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tradepeer/tradepeer-api/internal/auth"
	"github.com/tradepeer/tradepeer-api/internal/database"
	"github.com/tradepeer/tradepeer-api/internal/ratings"
	"github.com/tradepeer/tradepeer-api/internal/social"
	"github.com/tradepeer/tradepeer-api/internal/stats"
	"github.com/tradepeer/tradepeer-api/internal/trades"
	"github.com/tradepeer/tradepeer-api/internal/types"
	"github.com/tradepeer/tradepeer-api/pkg/middleware"
)

const (
	numUsers       = 8
	minTrades      = 3
	maxTrades      = 12
	numWorkers     = 4
	serverAddress  = "http://localhost:8080"
	simulationPass = "simulate-123"
	jwtSecret      = "tradepeer-secret-key"
)

var (
	assetPairs = []string{"BTC/USD", "ETH/USD", "SOL/USD", "EUR/USD", "XAU/USD"}
	tradeTypes = []string{types.TradeTypeLong, types.TradeTypeShort}
	strategies = []string{types.StrategyScalp, types.StrategySwing, types.StrategyDayTrade}
	comments   = []string{
		"Nice entry, what was your stop?",
		"Bold sizing on this one.",
		"I took the other side of this trade.",
		"Clean setup, well played.",
		"What made you pick this pair?",
	}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulatedUser is one signed-in participant driving API calls
type simulatedUser struct {
	username  string
	userID    string
	authToken string
}

// simulationClient handles HTTP communication with the API
type simulationClient struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	stats map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
func newSimulationClient() *simulationClient {
	return &simulationClient{
		baseURL: serverAddress,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		stats: map[string]*routeStats{
			"signup":   {name: "Sign Up"},
			"signin":   {name: "Sign In"},
			"submit":   {name: "Submit Trade"},
			"rate":     {name: "Rate Trade"},
			"like":     {name: "Toggle Like"},
			"comment":  {name: "Add Comment"},
			"feed":     {name: "Fetch Feed"},
			"rankings": {name: "Fetch Rankings"},
		},
	}
}

func (sc *simulationClient) track(route string, start time.Time, failed bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	rs := sc.stats[route]
	rs.addDuration(time.Since(start))
	if failed {
		rs.failures++
	}
}

// doJSON performs a request with optional bearer token and decodes the
// standard response envelope's data field into out.
func (sc *simulationClient) doJSON(method, path, token string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("path", path).Str("response", string(respBody)).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return json.Unmarshal(envelope.Data, out)
}

// registerUser signs a user up and in, returning an authenticated participant
func (sc *simulationClient) registerUser(n int) (*simulatedUser, error) {
	username := fmt.Sprintf("trader_%d_%d", n, rand.Intn(10000))
	email := username + "@simulation.test"

	start := time.Now()
	err := sc.doJSON("POST", "/api/v1/auth/signup", "", auth.SignUpRequest{
		Email:    email,
		Password: simulationPass,
		Username: username,
	}, nil)
	sc.track("signup", start, err != nil)
	if err != nil {
		return nil, err
	}

	var token types.TokenResponse
	start = time.Now()
	err = sc.doJSON("POST", "/api/v1/auth/signin", "", auth.SignInRequest{
		Email:    email,
		Password: simulationPass,
	}, &token)
	sc.track("signin", start, err != nil)
	if err != nil {
		return nil, err
	}

	return &simulatedUser{
		username:  username,
		userID:    token.UserID,
		authToken: token.Token,
	}, nil
}

// submitTrade posts a random trade for the user and returns its trade ID
func (sc *simulationClient) submitTrade(user *simulatedUser) (string, error) {
	entry := float64(rand.Intn(900)+100) + rand.Float64()
	input := trades.TradeInput{
		AssetPair:  assetPairs[rand.Intn(len(assetPairs))],
		TradeType:  tradeTypes[rand.Intn(len(tradeTypes))],
		EntryPrice: fmt.Sprintf("%.2f", entry),
		Strategy:   strategies[rand.Intn(len(strategies))],
		TradeDate:  time.Now().AddDate(0, 0, -rand.Intn(30)).Format("2006-01-02"),
	}

	// About half the trades are closed with an exit price
	if rand.Intn(2) == 0 {
		exit := entry * (0.9 + rand.Float64()*0.2)
		input.ExitPrice = fmt.Sprintf("%.2f", exit)
		input.Status = types.TradeStatusClosed
	}

	var trade types.Trade
	start := time.Now()
	err := sc.doJSON("POST", "/api/v1/trades", user.authToken, input, &trade)
	sc.track("submit", start, err != nil)
	if err != nil {
		return "", err
	}

	if trade.TradeID == "" {
		return "", fmt.Errorf("no trade ID in response")
	}
	return trade.TradeID, nil
}

// rateTrade posts a rating on someone else's trade
func (sc *simulationClient) rateTrade(user *simulatedUser, tradeID string) error {
	start := time.Now()
	err := sc.doJSON("POST", "/api/v1/trades/"+tradeID+"/ratings", user.authToken,
		ratings.RatingRequest{Rating: float64(rand.Intn(5) + 1)}, nil)
	sc.track("rate", start, err != nil)
	return err
}

// toggleLike flips the user's like on a trade
func (sc *simulationClient) toggleLike(user *simulatedUser, tradeID string) (bool, error) {
	var status types.LikeStatus
	start := time.Now()
	err := sc.doJSON("POST", "/api/v1/trades/"+tradeID+"/like", user.authToken, struct{}{}, &status)
	sc.track("like", start, err != nil)
	return status.Liked, err
}

// addComment posts a canned comment on a trade
func (sc *simulationClient) addComment(user *simulatedUser, tradeID string) error {
	start := time.Now()
	err := sc.doJSON("POST", "/api/v1/trades/"+tradeID+"/comments", user.authToken,
		social.CommentRequest{Content: comments[rand.Intn(len(comments))]}, nil)
	sc.track("comment", start, err != nil)
	return err
}

// fetchFeed retrieves the aggregated feed page
func (sc *simulationClient) fetchFeed() ([]types.TradeWithStats, error) {
	var feed []types.TradeWithStats
	start := time.Now()
	err := sc.doJSON("GET", "/api/v1/feed?limit=50", "", nil, &feed)
	sc.track("feed", start, err != nil)
	return feed, err
}

// fetchRankings retrieves the leaderboard
func (sc *simulationClient) fetchRankings() ([]types.UserRanking, error) {
	var rankings []types.UserRanking
	start := time.Now()
	err := sc.doJSON("GET", "/api/v1/rankings?limit=20", "", nil, &rankings)
	sc.track("rankings", start, err != nil)
	return rankings, err
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// main runs the social-trading simulation
// It starts a local API server and drives multiple concurrent users through
// the full post-rate-like-comment-read cycle
func main() {
	// Start the server in a goroutine
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	simClient := newSimulationClient()
	startTime := time.Now()

	// Register participants
	users := make([]*simulatedUser, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := simClient.registerUser(i)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to register simulated user")
		}
		users = append(users, user)
		log.Info().Str("username", user.username).Msg("User registered")
	}

	// Each user posts a random number of trades, concurrently
	tradesChan := make(chan string, numUsers*maxTrades)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := workerID; i < len(users); i += numWorkers {
				user := users[i]
				target := rand.Intn(maxTrades-minTrades) + minTrades
				for n := 0; n < target; n++ {
					tradeID, err := simClient.submitTrade(user)
					if err != nil {
						log.Error().Err(err).Str("username", user.username).Msg("Failed to submit trade")
						continue
					}
					tradesChan <- tradeID
					time.Sleep(time.Duration(rand.Intn(100)) * time.Millisecond)
				}
			}
		}(w)
	}
	wg.Wait()
	close(tradesChan)

	var tradeIDs []string
	for tradeID := range tradesChan {
		tradeIDs = append(tradeIDs, tradeID)
	}
	log.Info().Int("trades_created", len(tradeIDs)).Msg("All trades created")

	// Social phase: every user rates, likes and comments on random trades
	simStats := struct {
		Ratings      int
		Likes        int
		Unlikes      int
		Comments     int
		FailedWrites int
	}{}

	for _, user := range users {
		for _, tradeID := range pickRandom(tradeIDs, len(tradeIDs)/2) {
			if err := simClient.rateTrade(user, tradeID); err != nil {
				simStats.FailedWrites++
				continue
			}
			simStats.Ratings++
		}

		for _, tradeID := range pickRandom(tradeIDs, len(tradeIDs)/3) {
			liked, err := simClient.toggleLike(user, tradeID)
			if err != nil {
				simStats.FailedWrites++
				continue
			}
			if liked {
				simStats.Likes++
			} else {
				simStats.Unlikes++
			}
		}

		for _, tradeID := range pickRandom(tradeIDs, len(tradeIDs)/4) {
			if err := simClient.addComment(user, tradeID); err != nil {
				simStats.FailedWrites++
				continue
			}
			simStats.Comments++
		}
	}

	// Read phase: feed and leaderboard
	feed, err := simClient.fetchFeed()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch feed")
	}

	rankings, err := simClient.fetchRankings()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch rankings")
	}

	// Print summary
	duration := time.Since(startTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SOCIAL TRADING SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Activity
--------
Users:         %d
Trades:        %d
Ratings:       %d
Likes:         %d
Unlikes:       %d
Comments:      %d
Failed Writes: %d
Duration:      %v

`, len(users), len(tradeIDs), simStats.Ratings, simStats.Likes, simStats.Unlikes,
		simStats.Comments, simStats.FailedWrites, duration.Round(time.Millisecond))

	fmt.Println("Feed Sample")
	fmt.Println("-----------")
	for i, entry := range feed {
		if i >= 5 {
			break
		}
		fmt.Printf("%-12s %-10s avg %.2f (%d ratings, %d likes)\n",
			entry.Username, entry.AssetPair, entry.AverageRating, entry.TotalRatings, entry.LikeCount)
	}

	fmt.Println("\nLeaderboard")
	fmt.Println("-----------")
	for i, entry := range rankings {
		if i >= 5 {
			break
		}
		fmt.Printf("%2d. %-16s score %.2f (%d trades, avg rating %.2f)\n",
			i+1, entry.Username, entry.RankScore, entry.TotalTrades, entry.AverageRating)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	log.Info().
		Int("users", len(users)).
		Int("trades", len(tradeIDs)).
		Int("ratings", simStats.Ratings).
		Dur("duration", duration).
		Msg("Simulation completed")

	simClient.printPerformanceStats()
}

// pickRandom returns up to n distinct random elements of ids
func pickRandom(ids []string, n int) []string {
	if n <= 0 {
		n = 1
	}
	if n > len(ids) {
		n = len(ids)
	}
	shuffled := make([]string, len(ids))
	copy(shuffled, ids)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

// startServer initializes and starts the API server for the simulation
// Sets up all required services, handlers and routes
func startServer() error {
	// Initialize database
	db, err := database.NewDatabase("simulation.db")
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	authService := auth.NewService(jwtSecret, db)
	tradesService := trades.NewService(db)
	ratingsService := ratings.NewService(db)
	socialService := social.NewService(db)
	statsService := stats.NewService(db)

	// Initialize router
	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	tradesHandlers := trades.NewGinHandlers(tradesService)
	ratingsHandlers := ratings.NewGinHandlers(ratingsService)
	socialHandlers := social.NewGinHandlers(socialService)
	statsHandlers := stats.NewGinHandlers(statsService, authService)

	// Setup routes
	setupRoutes(router, jwtSecret, authHandlers, tradesHandlers, ratingsHandlers, socialHandlers, statsHandlers)

	// Start the server
	return router.Run(":8080")
}

// setupRoutes configures all API endpoints and their handlers
// Groups routes by functionality and applies appropriate middleware
func setupRoutes(
	router *gin.Engine,
	secret string,
	authHandlers *auth.GinHandlers,
	tradesHandlers *trades.GinHandlers,
	ratingsHandlers *ratings.GinHandlers,
	socialHandlers *social.GinHandlers,
	statsHandlers *stats.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", authHandlers.SignUpHandler())
			authGroup.POST("/signin", authHandlers.SignInHandler())
		}

		// Mutation routes
		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(secret))
		{
			protected.POST("/trades", tradesHandlers.SubmitTradeHandler())
			protected.PUT("/trades/:trade_id", tradesHandlers.UpdateTradeHandler())
			protected.DELETE("/trades/:trade_id", tradesHandlers.DeleteTradeHandler())
			protected.POST("/trades/:trade_id/ratings", ratingsHandlers.UpsertRatingHandler())
			protected.PUT("/ratings/:rating_id", ratingsHandlers.UpdateRatingHandler())
			protected.DELETE("/ratings/:rating_id", ratingsHandlers.RemoveRatingHandler())
			protected.POST("/trades/:trade_id/like", socialHandlers.ToggleLikeHandler())
			protected.POST("/trades/:trade_id/comments", socialHandlers.AddCommentHandler())
			protected.DELETE("/comments/:comment_id", socialHandlers.RemoveCommentHandler())
		}

		// Read routes
		reads := v1.Group("")
		{
			reads.GET("/feed", statsHandlers.FeedHandler())
			reads.GET("/trades/:trade_id", statsHandlers.TradeDetailHandler())
			reads.GET("/trades/:trade_id/comments", socialHandlers.ListCommentsHandler())
			reads.GET("/profiles/:username", statsHandlers.ProfileHandler())
			reads.GET("/rankings", statsHandlers.RankingsHandler())
		}
	}
}
