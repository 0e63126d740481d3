package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/crypto"
	"github.com/annchain/keymanager/common/hexutil"
	"github.com/annchain/keymanager/keymanager"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin   = common.BytesToAddress([]byte{0xad})
	manager = common.BytesToAddress([]byte{0x3a})
)

type stepClock struct {
	now uint64
	pos uint64
}

func (c *stepClock) Now() uint64 { return c.now }
func (c *stepClock) Position() uint64 {
	c.pos++
	return c.pos
}

type envelope struct {
	Err  string          `json:"err"`
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, clock *stepClock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	registry, err := keymanager.NewRegistry(keymanager.RegistryConfig{
		Administrator: admin,
		Manager:       manager,
		Clock:         clock,
	})
	require.NoError(t, err)
	verifier, err := keymanager.NewVerifier(registry, clock, 16)
	require.NoError(t, err)
	controller := &RpcController{KeyManager: keymanager.NewHandle(registry, verifier, nil)}
	return controller.NewRouter()
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) (int, envelope) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestPing(t *testing.T) {
	router := newTestRouter(t, &stepClock{})
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "active_committee")
}

func TestCommitteeLifecycle(t *testing.T) {
	clock := &stepClock{now: 100}
	router := newTestRouter(t, clock)

	code, env := do(t, router, http.MethodGet, "/active_committee", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NoCommitteeScheduled", env.Code)

	signer := crypto.SignerSecp256k1{}
	pub, _, err := signer.RandomKeyPair()
	require.NoError(t, err)

	body := gin.H{
		"caller":              manager.Hex(),
		"effective_timestamp": 50,
		"members": []gin.H{
			{"sig_key": hexutil.Encode(pub.Bytes), "network_address": "127.0.0.1:9000"},
		},
	}
	code, env = do(t, router, http.MethodPost, "/committees", body)
	require.Equal(t, http.StatusOK, code, env.Err)
	assert.JSONEq(t, `{"id":0}`, string(env.Data))

	code, env = do(t, router, http.MethodPost, "/committees", body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NonMonotonicTimestamp", env.Code)

	body["caller"] = admin.Hex()
	body["effective_timestamp"] = 60
	code, env = do(t, router, http.MethodPost, "/committees", body)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Unauthorized", env.Code)

	code, env = do(t, router, http.MethodGet, "/active_committee", nil)
	require.Equal(t, http.StatusOK, code)
	var active ActiveCommitteeResp
	require.NoError(t, json.Unmarshal(env.Data, &active))
	assert.Equal(t, uint64(0), active.Id)
	require.Len(t, active.Committee.Members, 1)
	assert.Equal(t, signer.Address(pub), active.Committee.Members[0].SigAddress)
	assert.Equal(t, "127.0.0.1:9000", active.Committee.Members[0].NetworkAddress)

	code, _ = do(t, router, http.MethodGet, "/committees/0", nil)
	assert.Equal(t, http.StatusOK, code)
	code, env = do(t, router, http.MethodGet, "/committees/7", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NotFound", env.Code)
	code, _ = do(t, router, http.MethodGet, "/committees/x", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, router, http.MethodPost, "/committees/prune", gin.H{"caller": manager.Hex(), "up_to": 0})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "TooRecentToPrune", env.Code)

	clock.now = 100000
	code, _ = do(t, router, http.MethodPost, "/committees/prune", gin.H{"caller": manager.Hex(), "up_to": 0})
	assert.Equal(t, http.StatusOK, code)
	code, env = do(t, router, http.MethodPost, "/committees/prune", gin.H{"caller": manager.Hex(), "up_to": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidRange", env.Code)

	code, env = do(t, router, http.MethodGet, "/events?from=1", nil)
	require.Equal(t, http.StatusOK, code)
	var entries []struct {
		Seq  uint64 `json:"seq"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "CommitteeCreated", entries[0].Name)
	assert.Equal(t, "CommitteesPruned", entries[1].Name)
}

func TestThresholdKeyAndManager(t *testing.T) {
	router := newTestRouter(t, &stepClock{})

	code, env := do(t, router, http.MethodPost, "/threshold_key", gin.H{"caller": manager.Hex(), "key": "0x0102"})
	require.Equal(t, http.StatusOK, code, env.Err)
	code, env = do(t, router, http.MethodPost, "/threshold_key", gin.H{"caller": manager.Hex(), "key": "0x03"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "AlreadySet", env.Code)

	code, env = do(t, router, http.MethodGet, "/threshold_key", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"set":true,"key":"0x0102"}`, string(env.Data))

	next := common.BytesToAddress([]byte{0x99})
	code, env = do(t, router, http.MethodPost, "/manager", gin.H{"caller": admin.Hex(), "manager": manager.Hex()})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidAddress", env.Code)
	code, _ = do(t, router, http.MethodPost, "/manager", gin.H{"caller": admin.Hex(), "manager": next.Hex()})
	assert.Equal(t, http.StatusOK, code)

	code, env = do(t, router, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, code)
	var status struct {
		Version string            `json:"version"`
		Status  keymanager.Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, keymanager.ManagerVersion, status.Version)
	assert.Equal(t, next, status.Status.Manager)
	assert.True(t, status.Status.ThresholdKeySet)
}

func TestVerifyEndpoints(t *testing.T) {
	clock := &stepClock{now: 100}
	router := newTestRouter(t, clock)
	signer := crypto.SignerSecp256k1{}

	var privs []crypto.PrivateKey
	var members []gin.H
	for i := 0; i < 3; i++ {
		pub, priv, err := signer.RandomKeyPair()
		require.NoError(t, err)
		privs = append(privs, priv)
		members = append(members, gin.H{"sig_key": hexutil.Encode(pub.Bytes)})
	}
	code, env := do(t, router, http.MethodPost, "/committees", gin.H{
		"caller":              manager.Hex(),
		"effective_timestamp": 10,
		"members":             members,
	})
	require.Equal(t, http.StatusOK, code, env.Err)

	digest := crypto.Keccak256Hash([]byte("payload"))
	var sigs [][]byte
	for _, p := range privs {
		sig, err := signer.Sign(p, digest.ToBytes())
		require.NoError(t, err)
		sigs = append(sigs, sig)
	}

	concat := append(append([]byte{}, sigs[0]...), sigs[2]...)
	code, env = do(t, router, http.MethodPost, "/verify", gin.H{
		"digest":     digest.Hex(),
		"signatures": hexutil.Encode(concat),
	})
	require.Equal(t, http.StatusOK, code, env.Err)
	assert.JSONEq(t, `{"valid":true}`, string(env.Data))

	repeated := append(append([]byte{}, sigs[0]...), sigs[0]...)
	code, env = do(t, router, http.MethodPost, "/verify", gin.H{
		"digest":     digest.Hex(),
		"signatures": hexutil.Encode(repeated),
	})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"valid":false}`, string(env.Data))

	code, env = do(t, router, http.MethodPost, "/verify", gin.H{
		"digest":     digest.Hex(),
		"signatures": "0x0102",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidSignatureLength", env.Code)

	code, env = do(t, router, http.MethodPost, "/verify_ordered", gin.H{
		"digest":     digest.Hex(),
		"signatures": []string{hexutil.Encode(sigs[0]), "0x", hexutil.Encode(sigs[2])},
	})
	require.Equal(t, http.StatusOK, code, env.Err)
	assert.JSONEq(t, `{"valid":true}`, string(env.Data))

	code, env = do(t, router, http.MethodPost, "/verify_ordered", gin.H{
		"digest":     common.Hash{}.Hex(),
		"signatures": []string{"0x", "0x", "0x"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidDigest", env.Code)

	code, _ = do(t, router, http.MethodPost, "/verify", gin.H{"digest": "0x12"})
	assert.Equal(t, http.StatusBadRequest, code)
}
