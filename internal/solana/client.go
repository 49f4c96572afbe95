package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Client represents a Solana JSON-RPC client
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// ClientConfig contains configuration for the RPC client
type ClientConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// RPCRequest represents a JSON-RPC request
type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// RPCResponse represents a JSON-RPC response
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface
func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// TokenAccount holds the parsed token-account fields this bot reads
type TokenAccount struct {
	Address  string
	Mint     string
	UIAmount float64
	Raw      string
	Decimals int
}

// NewClient creates a new Solana RPC client
func NewClient(config ClientConfig, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		endpoint: config.Endpoint,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// makeRequest makes a JSON-RPC request
func (c *Client) makeRequest(ctx context.Context, method string, params interface{}) (*RPCResponse, error) {
	request := RPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": c.endpoint,
	}).Debug("Making RPC request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(responseBody))
	}

	var rpcResponse RPCResponse
	if err := json.Unmarshal(responseBody, &rpcResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if rpcResponse.Error != nil {
		return nil, rpcResponse.Error
	}

	return &rpcResponse, nil
}

// GetBalance gets account balance in lamports
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	params := []interface{}{address}

	resp, err := c.makeRequest(ctx, "getBalance", params)
	if err != nil {
		return 0, fmt.Errorf("getBalance failed: %w", err)
	}

	type balanceResponse struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value uint64 `json:"value"`
	}

	var balResp balanceResponse
	if err := json.Unmarshal(resp.Result, &balResp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal balance: %w", err)
	}

	return balResp.Value, nil
}

// GetTokenAccountsByOwner returns the owner's parsed token accounts for a mint
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]TokenAccount, error) {
	params := []interface{}{
		owner,
		map[string]interface{}{
			"mint": mint,
		},
		map[string]interface{}{
			"encoding": "jsonParsed",
		},
	}

	resp, err := c.makeRequest(ctx, "getTokenAccountsByOwner", params)
	if err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner failed: %w", err)
	}

	type accountsResponse struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value []struct {
			Pubkey  string `json:"pubkey"`
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							Mint        string `json:"mint"`
							TokenAmount struct {
								Amount   string  `json:"amount"`
								Decimals int     `json:"decimals"`
								UIAmount float64 `json:"uiAmount"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}

	var accResp accountsResponse
	if err := json.Unmarshal(resp.Result, &accResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token accounts: %w", err)
	}

	accounts := make([]TokenAccount, 0, len(accResp.Value))
	for _, entry := range accResp.Value {
		accounts = append(accounts, TokenAccount{
			Address:  entry.Pubkey,
			Mint:     entry.Account.Data.Parsed.Info.Mint,
			UIAmount: entry.Account.Data.Parsed.Info.TokenAmount.UIAmount,
			Raw:      entry.Account.Data.Parsed.Info.TokenAmount.Amount,
			Decimals: entry.Account.Data.Parsed.Info.TokenAmount.Decimals,
		})
	}

	return accounts, nil
}

// SendTransaction broadcasts a base64-encoded signed transaction
func (c *Client) SendTransaction(ctx context.Context, transaction string) (string, error) {
	params := []interface{}{
		transaction,
		map[string]interface{}{
			"encoding": "base64",
		},
	}

	resp, err := c.makeRequest(ctx, "sendTransaction", params)
	if err != nil {
		return "", fmt.Errorf("sendTransaction failed: %w", err)
	}

	var signature string
	if err := json.Unmarshal(resp.Result, &signature); err != nil {
		return "", fmt.Errorf("invalid response format for sendTransaction: %w", err)
	}

	return signature, nil
}

// GetSlot gets the current slot, used as a connectivity check
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	resp, err := c.makeRequest(ctx, "getSlot", nil)
	if err != nil {
		return 0, fmt.Errorf("getSlot failed: %w", err)
	}

	var slot uint64
	if err := json.Unmarshal(resp.Result, &slot); err != nil {
		return 0, fmt.Errorf("invalid response format for getSlot: %w", err)
	}

	return slot, nil
}
