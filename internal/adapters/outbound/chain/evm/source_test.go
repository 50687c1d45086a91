//go:build !integration

package evm

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"paycore/internal/adapters/outbound/chain/shared"
	valueobjects "paycore/internal/domain/value_objects"
)

const (
	testTokenContract = "0xdac17f958d2ee523a2206206994597c13d831ec7"
	testEVMAddress    = "0x1111111111111111111111111111111111111111"
)

type rpcCall struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func newEVMTestServer(t *testing.T, tipHex string, logsJSON string, calls *[]rpcCall) *httptest.Server {
	t.Helper()

	return httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var call rpcCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			t.Fatalf("failed to decode rpc request: %v", err)
		}
		if calls != nil {
			*calls = append(*calls, call)
		}

		w.Header().Set("Content-Type", "application/json")
		switch call.Method {
		case "eth_blockNumber":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":"%s"}`, tipHex)
		case "eth_getLogs":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, logsJSON)
		default:
			t.Fatalf("unexpected rpc method %s", call.Method)
		}
	}))
}

func newEVMSource(t *testing.T, serverURL string) *Source {
	t.Helper()

	source, appErr := NewSource(Config{
		Chain:           valueobjects.ChainUSDTERC20,
		Client:          shared.Config{BaseURL: serverURL, RequestsPerSecond: 1000, Burst: 10},
		TokenContract:   testTokenContract,
		CursorLagBlocks: 12,
	})
	if appErr != nil {
		t.Fatalf("NewSource() error = %v", appErr)
	}
	return source
}

func TestFetchSinceDecodesTransferLogs(t *testing.T) {
	var calls []rpcCall
	server := newEVMTestServer(t, "0x64", `[
		{
			"transactionHash": "0xABC123",
			"blockNumber": "0x5f",
			"data": "0x00000000000000000000000000000000000000000000000000000000000f4240",
			"removed": false
		},
		{
			"transactionHash": "0xreorged",
			"blockNumber": "0x60",
			"data": "0x01",
			"removed": true
		}
	]`, &calls)
	defer server.Close()

	source := newEVMSource(t, server.URL)
	page, appErr := source.FetchSince(context.Background(), testEVMAddress, "90")
	if appErr != nil {
		t.Fatalf("FetchSince() error = %v", appErr)
	}

	if len(page.Observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(page.Observations))
	}
	obs := page.Observations[0]
	if obs.TxID != "0xabc123" {
		t.Errorf("expected lowercased tx hash, got %s", obs.TxID)
	}
	if obs.AmountNativeMinor != "1000000" {
		t.Errorf("expected amount 1000000, got %s", obs.AmountNativeMinor)
	}
	if obs.Confirmations != 6 {
		t.Errorf("expected 6 confirmations (tip 100, block 95), got %d", obs.Confirmations)
	}
	if page.NextCursor != "90" {
		t.Errorf("expected cursor held at 90 (tip 100 minus lag 12 is below it), got %s", page.NextCursor)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 rpc calls, got %d", len(calls))
	}
	var params []map[string]any
	if err := json.Unmarshal(calls[1].Params, &params); err != nil || len(params) != 1 {
		t.Fatalf("failed to decode getLogs params: %v", err)
	}
	filter := params[0]
	if filter["fromBlock"] != "0x5b" {
		t.Errorf("expected fromBlock 0x5b (cursor+1), got %v", filter["fromBlock"])
	}
	if filter["address"] != testTokenContract {
		t.Errorf("expected token contract filter, got %v", filter["address"])
	}
	topics, ok := filter["topics"].([]any)
	if !ok || len(topics) != 3 {
		t.Fatalf("expected 3 topics, got %v", filter["topics"])
	}
	if topics[0] != transferEventTopic {
		t.Errorf("expected transfer topic first, got %v", topics[0])
	}
	if topics[2] != recipientTopic(testEVMAddress) {
		t.Errorf("expected padded recipient topic, got %v", topics[2])
	}
}

func TestFetchSinceAdvancesCursorBehindTip(t *testing.T) {
	server := newEVMTestServer(t, "0xc8", `[]`, nil)
	defer server.Close()

	source := newEVMSource(t, server.URL)
	page, appErr := source.FetchSince(context.Background(), testEVMAddress, "100")
	if appErr != nil {
		t.Fatalf("FetchSince() error = %v", appErr)
	}
	if page.NextCursor != "188" {
		t.Errorf("expected cursor 188 (tip 200 minus lag 12), got %s", page.NextCursor)
	}
}

func TestFetchSinceRejectsMalformedAddress(t *testing.T) {
	source := newEVMSource(t, "http://127.0.0.1:1")

	if _, appErr := source.FetchSince(context.Background(), "not-an-address", ""); appErr == nil {
		t.Fatal("expected error for malformed address")
	}
}

func TestNewSourceValidatesTokenContract(t *testing.T) {
	_, appErr := NewSource(Config{
		Chain:         valueobjects.ChainUSDTERC20,
		TokenContract: "dac17f",
	})
	if appErr == nil {
		t.Fatal("expected error for malformed token contract")
	}
}
