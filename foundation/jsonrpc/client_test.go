package jsonrpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ardanlabs/forkchain/foundation/jsonrpc"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Call(t *testing.T) {
	t.Log("Given the need to call an upstream JSON-RPC endpoint.")
	{
		t.Log("\tWhen handling a method that returns a result.")
		{
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req struct {
					Method string `json:"method"`
					ID     string `json:"id"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("\t%s\tShould be able to decode the request: %v", failed, err)
				}

				if req.Method != "eth_blockNumber" {
					t.Fatalf("\t%s\tShould receive the expected method, got %s", failed, req.Method)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"jsonrpc": "2.0",
					"id":      req.ID,
					"result":  "0x9ff2b7",
				})
			}))
			defer srv.Close()

			client := jsonrpc.New(srv.URL, nil)

			var result string
			if err := client.Call(context.Background(), "eth_blockNumber", nil, &result); err != nil {
				t.Fatalf("\t%s\tShould be able to call the endpoint: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to call the endpoint.", success)

			if result != "0x9ff2b7" {
				t.Fatalf("\t%s\tShould receive the expected result, got %s", failed, result)
			}
			t.Logf("\t%s\tShould receive the expected result.", success)
		}

		t.Log("\tWhen the upstream reports an error.")
		{
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"jsonrpc": "2.0",
					"id":      "1",
					"error": map[string]any{
						"code":    -32000,
						"message": "boom",
					},
				})
			}))
			defer srv.Close()

			client := jsonrpc.New(srv.URL, nil)

			var result string
			err := client.Call(context.Background(), "eth_blockNumber", nil, &result)
			if err == nil {
				t.Fatalf("\t%s\tShould receive an error from the endpoint.", failed)
			}
			t.Logf("\t%s\tShould receive an error from the endpoint.", success)
		}
	}
}
