package core

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushchain/push-bridge-core/bridgeCore/aggregator"
	"github.com/pushchain/push-bridge-core/bridgeCore/api"
	"github.com/pushchain/push-bridge-core/bridgeCore/config"
	"github.com/pushchain/push-bridge-core/bridgeCore/db"
	"github.com/pushchain/push-bridge-core/bridgeCore/gate"
	"github.com/pushchain/push-bridge-core/bridgeCore/orders"
	"github.com/pushchain/push-bridge-core/bridgeCore/sigutil"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

var testAdmin = common.HexToAddress("0xad00000000000000000000000000000000000001")

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadDefaultConfig()
	require.NoError(t, err)
	cfg.Admins = []string{testAdmin.Hex()}
	cfg.QueryServerPort = 0
	return *cfg
}

func newCoordinator(t *testing.T, ctx context.Context, cfg config.Config) *Coordinator {
	t.Helper()
	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	c, err := NewWithDB(ctx, cfg, database, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewWithDB_Bootstrap(t *testing.T) {
	ctx := context.Background()
	c := newCoordinator(t, ctx, testConfig(t))

	params, err := c.GetParams(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), params.MinConfirmations)
	assert.Equal(t, uint32(10), params.ConfirmationThreshold)
	assert.Equal(t, uint32(3), params.ExcessConfirmations)

	isAdmin, err := c.Registry().IsAdmin(ctx, testAdmin)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	oracles, err := c.ListOracles(ctx)
	require.NoError(t, err)
	assert.Empty(t, oracles)
}

func TestNewWithDB_AmountThresholds(t *testing.T) {
	ctx := context.Background()
	debridgeID := types.DebridgeID(1, common.HexToAddress("0x1234").Bytes())

	cfg := testConfig(t)
	chain := cfg.ChainConfigs["1"]
	chain.AmountThresholds = map[string]string{debridgeID.Hex(): "5000"}
	cfg.ChainConfigs = map[string]config.ChainSpecificConfig{"1": chain}

	c := newCoordinator(t, ctx, cfg)
	got, err := c.Gate().GetAmountThreshold(ctx, debridgeID)
	require.NoError(t, err)
	assert.Equal(t, "5000", got.String())
}

func TestNewWithDB_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		errMsg string
	}{
		{
			name:   "bad admin",
			mutate: func(cfg *config.Config) { cfg.Admins = []string{"not-an-address"} },
			errMsg: "is not a hex address",
		},
		{
			name:   "unknown strategy",
			mutate: func(cfg *config.Config) { cfg.QuorumStrategy = "majority" },
			errMsg: "unknown quorum strategy",
		},
		{
			name: "bad threshold key",
			mutate: func(cfg *config.Config) {
				cfg.ChainConfigs = map[string]config.ChainSpecificConfig{
					"1": {Family: "evm", AmountThresholds: map[string]string{"0x12": "1"}},
				}
			},
			errMsg: "is not a debridge id",
		},
		{
			name:   "bad quorum",
			mutate: func(cfg *config.Config) { cfg.Quorum.MinConfirmations = 0 },
			errMsg: "low min confirmations",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			database, err := db.OpenInMemoryDB(true)
			require.NoError(t, err)
			defer database.Close()

			_, err = NewWithDB(context.Background(), cfg, database, zerolog.Nop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCoordinator_SignedVotesOverHTTP(t *testing.T) {
	ctx := context.Background()
	c := newCoordinator(t, ctx, testConfig(t))
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	keyA, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyB, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyC, err := crypto.GenerateKey()
	require.NoError(t, err)
	a := crypto.PubkeyToAddress(keyA.PublicKey)
	b := crypto.PubkeyToAddress(keyB.PublicKey)
	cc := crypto.PubkeyToAddress(keyC.PublicKey)
	require.NoError(t, c.Registry().AddOracles(ctx, testAdmin, []common.Address{a, b, cc}, []bool{false, false, false}))

	id := crypto.Keccak256Hash([]byte("transfer-http"))
	post := func(sig []byte) *http.Response {
		body, err := json.Marshal(api.SignatureRequest{Signature: hexutil.Encode(sig)})
		require.NoError(t, err)
		resp, err := http.Post(srv.URL+"/api/v1/submissions/"+id.Hex()+"/signatures", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		return resp
	}

	sigA, err := sigutil.Sign(id, keyA)
	require.NoError(t, err)
	resp := post(sigA)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	err = c.Gate().CheckConfirmations(ctx, gate.CheckRequest{SubmissionID: id})
	require.ErrorIs(t, err, types.ErrSubmissionNotConfirmed)

	sigB, err := sigutil.Sign(id, keyB)
	require.NoError(t, err)
	resp = post(sigB)
	var out struct {
		Data api.SignatureResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.Equal(t, b, out.Data.Oracle)
	assert.True(t, out.Data.Confirmed)

	// a repeated vote is reported as a conflict
	resp = post(sigB)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.NoError(t, c.Gate().CheckAndConsume(ctx, gate.CheckRequest{SubmissionID: id}))
	require.ErrorIs(t, c.Gate().Consume(ctx, id), types.ErrSubmissionUsed)
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw)))
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	wrapper := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wrapper))
}

// withOracles registers two non-required oracles, enough for the default quorum.
func withOracles(t *testing.T, ctx context.Context, c *Coordinator) []common.Address {
	t.Helper()
	oracles := []common.Address{common.HexToAddress("0x0a"), common.HexToAddress("0x0b")}
	require.NoError(t, c.Registry().AddOracles(ctx, testAdmin, oracles, []bool{false, false}))
	return oracles
}

func TestCoordinator_OrderLifecycleOverHTTP(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	c := newCoordinator(t, ctx, cfg)
	h := c.Handler()
	oracles := withOracles(t, ctx, c)

	maker := common.HexToAddress("0x1000000000000000000000000000000000000001").Bytes()
	taker := common.HexToAddress("0x2000000000000000000000000000000000000002").Bytes()
	affiliate := common.HexToAddress("0x3000000000000000000000000000000000000003").Bytes()
	giveToken := common.HexToAddress("0x4000000000000000000000000000000000000004").Bytes()
	callProxy := common.HexToAddress(cfg.CallProxy).Bytes()
	counterpart := common.HexToAddress(cfg.GetChainConfig(56).OrderCounterpart).Bytes()
	require.NoError(t, c.Book().Deposit(ctx, giveToken, maker, math.NewInt(10000)))

	rec := postJSON(t, h, "/api/v1/orders", api.CreateOrderBody{
		Maker:                    maker,
		GiveToken:                giveToken,
		GiveAmount:               "1000",
		TakeChainID:              56,
		TakeToken:                common.HexToAddress("0x05").Bytes(),
		TakeAmount:               "990",
		ReceiverDst:              common.HexToAddress("0x06").Bytes(),
		GivePatchAuthoritySrc:    maker,
		OrderAuthorityAddressDst: common.HexToAddress("0x07").Bytes(),
		AffiliateTo:              affiliate,
		AffiliateFee:             "7",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created api.CreateOrderResponse
	decodeData(t, rec, &created)
	orderID := created.OrderID

	rec = postJSON(t, h, "/api/v1/orders/"+orderID.Hex()+"/patch", api.PatchOrderBody{Caller: maker, Amount: "500"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var patched api.OrderView
	decodeData(t, rec, &patched)

	payload, err := orders.EncodeClaimPayload(orders.InstructionUnlock, orderID, taker)
	require.NoError(t, err)
	submissionID := types.ClaimSubmissionID(56, cfg.LocalChainID, counterpart, payload, 1)
	claim := api.OrderClaimBody{
		Caller:         callProxy,
		ProgramID:      common.HexToAddress(cfg.ExecutorProgram).Bytes(),
		Payload:        payload,
		SourceChain:    56,
		NativeSender:   counterpart,
		Nonce:          1,
		SubmissionID:   submissionID,
		SubmissionAuth: types.SubmissionAuthority(submissionID),
	}

	rec = postJSON(t, h, "/api/v1/orders/"+orderID.Hex()+"/claim-unlock", claim)
	require.Equal(t, http.StatusTooEarly, rec.Code, rec.Body.String())

	for _, o := range oracles {
		_, err := c.Aggregator().Submit(ctx, o, submissionID)
		require.NoError(t, err)
	}

	rec = postJSON(t, h, "/api/v1/orders/"+orderID.Hex()+"/claim-unlock", claim)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var unlocked api.OrderView
	decodeData(t, rec, &unlocked)
	assert.Equal(t, string(types.OrderClaimedUnlock), unlocked.Status)

	balance, err := c.Book().Balance(ctx, giveToken, taker)
	require.NoError(t, err)
	assert.Equal(t, patched.GiveAmount, balance.String())

	rec = postJSON(t, h, "/api/v1/orders/"+orderID.Hex()+"/affiliate-fee", api.CallerBody{Caller: maker})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = postJSON(t, h, "/api/v1/orders/"+orderID.Hex()+"/affiliate-fee", api.CallerBody{Caller: affiliate})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fee api.AffiliateFeeResponse
	decodeData(t, rec, &fee)
	assert.Equal(t, "7", fee.Amount)

	rec = postJSON(t, h, "/api/v1/orders/"+orderID.Hex()+"/claim-unlock", claim)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCoordinator_BridgeClaimOverHTTP(t *testing.T) {
	ctx := context.Background()
	c := newCoordinator(t, ctx, testConfig(t))
	h := c.Handler()
	oracles := withOracles(t, ctx, c)

	meta := aggregator.AssetMetadata{Token: common.HexToAddress("0x1234").Bytes(), ChainID: 56, Name: "Wrapped BNB", Symbol: "deBNB", Decimals: 18}
	var deployID common.Hash
	for _, o := range oracles {
		var err error
		deployID, _, err = c.Aggregator().ConfirmNewAsset(ctx, o, meta)
		require.NoError(t, err)
	}
	wrapped := common.HexToAddress("0x5678").Bytes()
	debridgeID, err := c.Aggregator().DeployAsset(ctx, testAdmin, deployID, wrapped)
	require.NoError(t, err)

	receiver := common.HexToAddress("0x44").Bytes()
	body := api.ClaimBody{
		DebridgeID:  debridgeID,
		ChainIDFrom: 56,
		ChainIDTo:   1,
		Amount:      "500",
		Receiver:    receiver,
		Nonce:       1,
	}
	submissionID := gate.ClaimParams{
		DebridgeID:  debridgeID,
		ChainIDFrom: 56,
		ChainIDTo:   1,
		Amount:      math.NewInt(500),
		Receiver:    receiver,
		Nonce:       1,
	}.SubmissionID()

	rec := postJSON(t, h, "/api/v1/submissions/"+submissionID.Hex()+"/check", api.CheckBody{})
	require.Equal(t, http.StatusTooEarly, rec.Code, rec.Body.String())

	for _, o := range oracles {
		_, err := c.Aggregator().Submit(ctx, o, submissionID)
		require.NoError(t, err)
	}
	rec = postJSON(t, h, "/api/v1/submissions/"+submissionID.Hex()+"/check", api.CheckBody{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = postJSON(t, h, "/api/v1/claims", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var claimed api.ClaimResponse
	decodeData(t, rec, &claimed)
	assert.Equal(t, submissionID, claimed.SubmissionID)

	balance, err := c.Book().Balance(ctx, wrapped, receiver)
	require.NoError(t, err)
	assert.Equal(t, "500", balance.String())

	rec = postJSON(t, h, "/api/v1/claims", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCoordinator_MetricsEndpoint(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.MetricsEnabled = true
	c := newCoordinator(t, ctx, cfg)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	cfg.MetricsEnabled = false
	c = newCoordinator(t, ctx, cfg)
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCoordinator_StartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newCoordinator(t, ctx, testConfig(t))

	done := make(chan error, 1)
	go func() { done <- c.Start() }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not stop")
	}
	require.NoError(t, c.Close())
}
