package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const (
	testOwner = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	testMint  = "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy"
)

func tokenAccount(pubkey, amount string, decimals int, ui interface{}, uiString string) map[string]interface{} {
	return map[string]interface{}{
		"pubkey": pubkey,
		"account": map[string]interface{}{
			"lamports": 2039280,
			"owner":    "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
			"data": map[string]interface{}{
				"program": "spl-token",
				"parsed": map[string]interface{}{
					"type": "account",
					"info": map[string]interface{}{
						"mint":  testMint,
						"owner": testOwner,
						"tokenAmount": map[string]interface{}{
							"amount":         amount,
							"decimals":       decimals,
							"uiAmount":       ui,
							"uiAmountString": uiString,
						},
					},
				},
			},
		},
	}
}

func TestHTTPClient_GetTokenAccountsByOwner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "getTokenAccountsByOwner" {
			t.Errorf("expected method getTokenAccountsByOwner, got %s", req.Method)
		}
		if len(req.Params) != 3 || req.Params[0] != testOwner {
			t.Errorf("unexpected params %v", req.Params)
		}
		filter, _ := req.Params[1].(map[string]interface{})
		if filter["mint"] != testMint {
			t.Errorf("expected mint filter, got %v", req.Params[1])
		}
		cfg, _ := req.Params[2].(map[string]interface{})
		if cfg["encoding"] != "jsonParsed" {
			t.Errorf("expected jsonParsed encoding, got %v", req.Params[2])
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value": []interface{}{
					tokenAccount("acct1", "12500000000", 6, 12500.0, "12500"),
					tokenAccount("acct2", "250000", 6, nil, "0.25"),
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	accounts, err := client.GetTokenAccountsByOwner(context.Background(), testOwner, testMint)
	if err != nil {
		t.Fatalf("GetTokenAccountsByOwner: %v", err)
	}

	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Pubkey != "acct1" || accounts[0].UIAmount != 12500 {
		t.Errorf("unexpected first account %+v", accounts[0])
	}
	if accounts[0].Decimals != 6 || accounts[0].Amount != "12500000000" {
		t.Errorf("unexpected raw amount %+v", accounts[0])
	}
	if accounts[1].UIAmount != 0.25 {
		t.Errorf("expected uiAmountString fallback 0.25, got %v", accounts[1].UIAmount)
	}
	if accounts[1].Mint != testMint || accounts[1].Owner != testOwner {
		t.Errorf("unexpected mint/owner %+v", accounts[1])
	}
}

func TestHTTPClient_GetTokenAccountsByOwner_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"value": []interface{}{}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	accounts, err := NewHTTPClient(server.URL).GetTokenAccountsByOwner(context.Background(), testOwner, testMint)
	if err != nil {
		t.Fatalf("GetTokenAccountsByOwner: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("expected no accounts, got %d", len(accounts))
	}
}

func TestHTTPClient_GetBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getBalance" {
			t.Errorf("expected method getBalance, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value":   uint64(3 * LamportsPerSOL),
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	lamports, err := NewHTTPClient(server.URL).GetBalance(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if lamports != 3*LamportsPerSOL {
		t.Errorf("expected %d lamports, got %d", 3*LamportsPerSOL, lamports)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  int64(999),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	slot, err := client.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if slot != 999 {
		t.Errorf("expected slot 999, got %d", slot)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_RetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	if _, err := client.GetSlot(context.Background()); err == nil {
		t.Fatal("expected error after retries")
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_MaxDelayCapsRetryAfter(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": int64(7)})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(1), WithMaxDelay(20*time.Millisecond))

	start := time.Now()
	slot, err := client.GetSlot(context.Background())
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if slot != 7 {
		t.Errorf("expected slot 7, got %d", slot)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Retry-After was not capped: waited %v", elapsed)
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32602,
				"message": "Invalid param: could not find mint",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL).GetTokenAccountsByOwner(context.Background(), testOwner, testMint)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %T", err)
	}
	if rpcErr.Code != -32602 {
		t.Errorf("expected code -32602, got %d", rpcErr.Code)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetSlot(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestHTTPClient_ClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("missing api key"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	_, err := client.GetSlot(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_Commitment(t *testing.T) {
	var commitment atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Params) == 2 {
			if cfg, ok := req.Params[1].(map[string]interface{}); ok {
				commitment.Store(cfg["commitment"])
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"value": 1},
		})
	}))
	defer server.Close()

	if _, err := NewHTTPClient(server.URL).GetBalance(context.Background(), testOwner); err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if got := commitment.Load(); got != DefaultCommitment {
		t.Errorf("expected commitment %q, got %v", DefaultCommitment, got)
	}

	if _, err := NewHTTPClient(server.URL, WithCommitment("finalized")).GetBalance(context.Background(), testOwner); err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if got := commitment.Load(); got != "finalized" {
		t.Errorf("expected commitment finalized, got %v", got)
	}
}

func TestRetryAfter(t *testing.T) {
	if d, ok := retryAfter("2"); !ok || d != 2*time.Second {
		t.Errorf("retryAfter(2) = %v, %v", d, ok)
	}
	if _, ok := retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"); ok {
		t.Error("expected HTTP-date form to be ignored")
	}
}
