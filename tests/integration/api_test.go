package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "pet-auction-house/internal/adapter/http/handler"
	redisStorage "pet-auction-house/internal/adapter/storage/redis"
	"pet-auction-house/internal/service"
	"pet-auction-house/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack against in-memory storage:
// miniredis behind the rate limit store and map-backed repos behind the
// services. The real HTTP layer, middleware, handlers, and services run
// end-to-end.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Core services with real implementations
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	// In-memory repos over one shared store
	store := newMemStore()
	accountRepo := newInMemoryAccountRepo(store)
	petRepo := newInMemoryPetRepo(store)
	lotRepo := newInMemoryLotRepo(store)
	bidRepo := newInMemoryBidRepo(store, lotRepo)
	transactor := newSerialTransactor()

	log := logger.New("debug", false)
	startingBalance := decimal.RequireFromString("100.00")

	authSvc := service.NewAuthService(accountRepo, hashSvc, tokenSvc, startingBalance)
	ledgerSvc := service.NewLedgerService(accountRepo)
	petSvc := service.NewPetService(petRepo)
	lotSvc := service.NewLotService(lotRepo, petRepo, bidRepo, accountRepo, transactor, log)
	bidSvc := service.NewBidService(bidRepo, lotRepo, petRepo, accountRepo, ledgerSvc, log)
	settlementSvc := service.NewSettlementService(bidRepo, lotRepo, petRepo, accountRepo, transactor, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LedgerSvc:      ledgerSvc,
		PetSvc:         petSvc,
		LotSvc:         lotSvc,
		BidSvc:         bidSvc,
		SettlementSvc:  settlementSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: nil,
		Logger:         log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server: server,
		redis:  mr,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// --- HTTP helpers ---

func (a *testApp) post(t *testing.T, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (a *testApp) get(t *testing.T, path, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (a *testApp) delete(t *testing.T, path, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, a.server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "missing data field: %v", body)
	return d
}

// registerAndLogin creates an account and returns its JWT token.
func (a *testApp) registerAndLogin(t *testing.T, username, password string) string {
	t.Helper()
	resp, _ := a.post(t, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp2, body := a.post(t, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	token, ok := data(t, body)["token"].(string)
	require.True(t, ok)
	return token
}

// createPet registers a pet and returns its ID.
func (a *testApp) createPet(t *testing.T, token, name, breed string) string {
	t.Helper()
	resp, body := a.post(t, "/api/v1/pets", token, map[string]string{
		"name":  name,
		"breed": breed,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return data(t, body)["id"].(string)
}

// createLot opens a lot and returns its ID.
func (a *testApp) createLot(t *testing.T, token, petID, price string) string {
	t.Helper()
	resp, body := a.post(t, "/api/v1/lots", token, map[string]string{
		"pet_id": petID,
		"price":  price,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return data(t, body)["id"].(string)
}

// placeBid places a bid and returns its ID.
func (a *testApp) placeBid(t *testing.T, token, lotID, price string) string {
	t.Helper()
	resp, body := a.post(t, "/api/v1/bids", token, map[string]string{
		"lot_id": lotID,
		"price":  price,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return data(t, body)["id"].(string)
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.post(t, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"password": "StrongPass123!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := data(t, body)
	assert.Equal(t, "alice", d["username"])
	assert.Equal(t, "100.00", d["balance"])
	assert.NotEmpty(t, d["account_id"])

	resp2, body2 := app.post(t, "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "StrongPass123!",
	})
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.NotEmpty(t, data(t, body2)["token"])
}

func TestIntegration_DuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	reg := map[string]string{"username": "alice", "password": "StrongPass123!"}
	resp, _ := app.post(t, "/api/v1/auth/register", "", reg)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp2, body := app.post(t, "/api/v1/auth/register", "", reg)
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
	assert.Equal(t, "AUTH_002", body["error_code"])
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.post(t, "/api/v1/auth/login", "", map[string]string{
		"username": "nobody",
		"password": "whatever123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_ProtectedRouteRequiresToken(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.get(t, "/api/v1/accounts/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_Profile(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.registerAndLogin(t, "alice", "StrongPass123!")

	resp, body := app.get(t, "/api/v1/accounts/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := data(t, body)
	assert.Equal(t, "alice", d["username"])
	assert.Equal(t, "100.00", d["balance"])
	assert.Equal(t, "100.00", d["available_balance"])
}

func TestIntegration_PetRegistry(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.registerAndLogin(t, "alice", "StrongPass123!")

	app.createPet(t, token, "Misha", "cat")
	app.createPet(t, token, "Quill", "hedgehog")

	// Unknown breed rejected
	resp, _ := app.post(t, "/api/v1/pets", token, map[string]string{
		"name":  "Rex",
		"breed": "dog",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, body := app.get(t, "/api/v1/pets", token)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	pets, ok := body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, pets, 2)
}

func TestIntegration_AuctionFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceToken := app.registerAndLogin(t, "alice", "StrongPass123!")
	bobToken := app.registerAndLogin(t, "bob", "StrongPass123!")

	petID := app.createPet(t, aliceToken, "Misha", "cat")
	lotID := app.createLot(t, aliceToken, petID, "25.00")

	// Lot visible in the open listing
	resp, body := app.get(t, "/api/v1/lots", bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lots := body["data"].([]interface{})
	require.Len(t, lots, 1)
	lot := lots[0].(map[string]interface{})
	assert.Equal(t, "25.00", lot["price"])
	assert.Equal(t, "alice", lot["author"])

	bidID := app.placeBid(t, bobToken, lotID, "30.00")

	// Bob's funds are reserved while the bid is live
	_, profile := app.get(t, "/api/v1/accounts/me", bobToken)
	assert.Equal(t, "100.00", data(t, profile)["balance"])
	assert.Equal(t, "70.00", data(t, profile)["available_balance"])

	// Alice accepts the bid
	resp2, body2 := app.post(t, "/api/v1/bids/"+bidID+"/accept", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "SETTLED", data(t, body2)["status"])

	// Balances moved
	_, aliceProfile := app.get(t, "/api/v1/accounts/me", aliceToken)
	assert.Equal(t, "130.00", data(t, aliceProfile)["balance"])

	_, bobProfile := app.get(t, "/api/v1/accounts/me", bobToken)
	assert.Equal(t, "70.00", data(t, bobProfile)["balance"])
	assert.Equal(t, "70.00", data(t, bobProfile)["available_balance"])

	// Pet now belongs to bob
	_, bobPets := app.get(t, "/api/v1/pets", bobToken)
	bobPetList := bobPets["data"].([]interface{})
	require.Len(t, bobPetList, 1)
	assert.Equal(t, petID, bobPetList[0].(map[string]interface{})["id"])

	_, alicePets := app.get(t, "/api/v1/pets", aliceToken)
	assert.Empty(t, alicePets["data"])

	// The lot is gone from the open listing
	_, openLots := app.get(t, "/api/v1/lots", bobToken)
	assert.Empty(t, openLots["data"])
}

func TestIntegration_BidRules(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceToken := app.registerAndLogin(t, "alice", "StrongPass123!")
	bobToken := app.registerAndLogin(t, "bob", "StrongPass123!")

	petID := app.createPet(t, aliceToken, "Quill", "hedgehog")
	lotID := app.createLot(t, aliceToken, petID, "25.00")

	// Author cannot bid on own lot
	resp, body := app.post(t, "/api/v1/bids", aliceToken, map[string]string{
		"lot_id": lotID, "price": "30.00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CANNOT_BID_IN_OWN_LOT", body["error_code"])

	// Insufficient available balance
	resp2, body2 := app.post(t, "/api/v1/bids", bobToken, map[string]string{
		"lot_id": lotID, "price": "100.01",
	})
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Equal(t, "INSUFFICIENT_BALANCE", body2["error_code"])

	app.placeBid(t, bobToken, lotID, "30.00")

	// One bid per lot per bidder
	resp3, body3 := app.post(t, "/api/v1/bids", bobToken, map[string]string{
		"lot_id": lotID, "price": "40.00",
	})
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
	assert.Equal(t, "ONLY_ONE_BID_ALLOWED", body3["error_code"])
}

func TestIntegration_WithdrawRestoresAvailableBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceToken := app.registerAndLogin(t, "alice", "StrongPass123!")
	bobToken := app.registerAndLogin(t, "bob", "StrongPass123!")

	petID := app.createPet(t, aliceToken, "Misha", "cat")
	lotID := app.createLot(t, aliceToken, petID, "25.00")
	bidID := app.placeBid(t, bobToken, lotID, "30.00")

	_, profile := app.get(t, "/api/v1/accounts/me", bobToken)
	assert.Equal(t, "70.00", data(t, profile)["available_balance"])

	resp, body := app.delete(t, "/api/v1/bids/"+bidID, bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "WITHDRAWN", data(t, body)["status"])

	_, profile2 := app.get(t, "/api/v1/accounts/me", bobToken)
	assert.Equal(t, "100.00", data(t, profile2)["available_balance"])

	// A withdrawn bid frees the slot for a new bid on the same lot
	app.placeBid(t, bobToken, lotID, "35.00")
}

func TestIntegration_ClosedLotIsTerminal(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceToken := app.registerAndLogin(t, "alice", "StrongPass123!")
	bobToken := app.registerAndLogin(t, "bob", "StrongPass123!")

	petID := app.createPet(t, aliceToken, "Misha", "cat")
	lotID := app.createLot(t, aliceToken, petID, "25.00")
	bidID := app.placeBid(t, bobToken, lotID, "30.00")

	resp, _ := app.post(t, "/api/v1/lots/"+lotID+"/close", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// No new bids on a closed lot
	carolToken := app.registerAndLogin(t, "carol", "StrongPass123!")
	resp2, body2 := app.post(t, "/api/v1/bids", carolToken, map[string]string{
		"lot_id": lotID, "price": "40.00",
	})
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Equal(t, "LOT_ALREADY_CLOSED", body2["error_code"])

	// No withdrawing a bid whose lot closed
	resp3, body3 := app.delete(t, "/api/v1/bids/"+bidID, bobToken)
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
	assert.Equal(t, "LOT_ALREADY_CLOSED", body3["error_code"])

	// No accepting a bid on a closed lot
	resp4, _ := app.post(t, "/api/v1/bids/"+bidID+"/accept", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp4.StatusCode)

	// Closing twice fails too
	resp5, body5 := app.post(t, "/api/v1/lots/"+lotID+"/close", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp5.StatusCode)
	assert.Equal(t, "LOT_ALREADY_CLOSED", body5["error_code"])

	// Bob's reservation is released once the lot closes
	_, profile := app.get(t, "/api/v1/accounts/me", bobToken)
	assert.Equal(t, "100.00", data(t, profile)["available_balance"])
}

func TestIntegration_AcceptRequiresLotAuthor(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceToken := app.registerAndLogin(t, "alice", "StrongPass123!")
	bobToken := app.registerAndLogin(t, "bob", "StrongPass123!")

	petID := app.createPet(t, aliceToken, "Misha", "cat")
	lotID := app.createLot(t, aliceToken, petID, "25.00")
	bidID := app.placeBid(t, bobToken, lotID, "30.00")

	// Bob (the bidder) cannot accept his own bid
	resp, body := app.post(t, "/api/v1/bids/"+bidID+"/accept", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CAN_ONLY_ACCEPT_BID_FOR_OWN_LOT", body["error_code"])
}

func TestIntegration_DuplicateOpenLotRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceToken := app.registerAndLogin(t, "alice", "StrongPass123!")
	petID := app.createPet(t, aliceToken, "Misha", "cat")
	app.createLot(t, aliceToken, petID, "25.00")

	resp, body := app.post(t, "/api/v1/lots", aliceToken, map[string]string{
		"pet_id": petID, "price": "30.00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "LOT_EXISTS", body["error_code"])
}

func TestIntegration_ListBids(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceToken := app.registerAndLogin(t, "alice", "StrongPass123!")
	bobToken := app.registerAndLogin(t, "bob", "StrongPass123!")
	carolToken := app.registerAndLogin(t, "carol", "StrongPass123!")

	petID := app.createPet(t, aliceToken, "Misha", "cat")
	lotID := app.createLot(t, aliceToken, petID, "25.00")
	app.placeBid(t, bobToken, lotID, "30.00")
	app.placeBid(t, carolToken, lotID, "45.00")

	resp, body := app.get(t, fmt.Sprintf("/api/v1/lots/%s/bids", lotID), aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bids := body["data"].([]interface{})
	assert.Len(t, bids, 2)
}
