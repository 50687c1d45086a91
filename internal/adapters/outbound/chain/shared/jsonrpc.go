package shared

import (
	"context"
	"encoding/json"
	"sync/atomic"

	apperrors "paycore/internal/shared_kernel/errors"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

var rpcRequestID atomic.Int64

// CallRPC performs a JSON-RPC 2.0 call against the client's base URL
// and decodes the result field into result.
func (c *Client) CallRPC(ctx context.Context, method string, params any, result any) *apperrors.AppError {
	if params == nil {
		params = []any{}
	}

	var response rpcResponse
	appErr := c.PostJSON(ctx, "", rpcRequest{
		JSONRPC: "2.0",
		ID:      rpcRequestID.Add(1),
		Method:  method,
		Params:  params,
	}, &response)
	if appErr != nil {
		return appErr
	}

	if response.Error != nil {
		return apperrors.NewInternal(
			"provider_rpc_error",
			"chain data provider returned an rpc error",
			map[string]any{
				"method":  method,
				"code":    response.Error.Code,
				"message": response.Error.Message,
			},
		)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(response.Result, result); err != nil {
		return apperrors.NewInternal(
			"provider_response_decode_failed",
			"failed to decode rpc result",
			map[string]any{"method": method, "error": err.Error()},
		)
	}
	return nil
}
