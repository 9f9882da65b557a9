package uiautomator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

const serverPort = 9008

type jsonRPCRequest struct {
	Version string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	ID      int           `json:"id"`
	Params  []interface{} `json:"params,omitempty"`
}

type jsonRPCError struct {
	Message string `json:"message"`
}

type jsonRPCResponse struct {
	Version string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonRPCError   `json:"error"`
}

// rpcClient talks to the android-uiautomator-server JSON-RPC endpoint
// forwarded to a local port.
type rpcClient struct {
	hostPort int
}

// call invokes method by JSON-RPC, decoding the result into out (nil
// discards the result).
func (c *rpcClient) call(ctx context.Context, method string, out interface{}, params ...interface{}) error {
	reqData := jsonRPCRequest{Version: "2.0", Method: method, Params: params}
	reqBody, err := json.Marshal(&reqData)
	if err != nil {
		return errors.Wrapf(err, "%s: marshal request", method)
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("http://localhost:%d/jsonrpc/0", c.hostPort), bytes.NewReader(reqBody))
	if err != nil {
		return errors.Wrapf(err, "%s: build request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, method)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("%s: got status %d", method, res.StatusCode)
	}

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "%s: read response", method)
	}

	var resData jsonRPCResponse
	if err := json.Unmarshal(resBody, &resData); err != nil {
		return errors.Wrapf(err, "%s: unmarshal response", method)
	}
	if resData.Error != nil {
		return errors.Errorf("%s: %s", method, resData.Error.Message)
	}
	if out == nil {
		return nil
	}
	if len(resData.Result) == 0 {
		return errors.Errorf("%s: missing result", method)
	}
	if err := json.Unmarshal(resData.Result, out); err != nil {
		return errors.Wrapf(err, "%s: unmarshal result", method)
	}
	return nil
}
