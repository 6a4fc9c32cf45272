// Package prover submits guest inputs to the zkWASM proving service.
package prover

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Request is one proving job.
type Request struct {
	ImageHash string
	Public    []string
	Private   []string
}

// Task is the backend's acknowledgement of a proving job.
type Task struct {
	ID        string
	ImageHash string
}

// SubmissionError is returned when the service rejects a job.
type SubmissionError struct {
	StatusCode int
	Message    string
}

func (e *SubmissionError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("proof submission rejected: %s", e.Message)
	}
	return fmt.Sprintf("proof submission rejected (%d): %s", e.StatusCode, e.Message)
}

type proveRequest struct {
	UserAddress   string   `json:"user_address"`
	MD5           string   `json:"md5"`
	PublicInputs  []string `json:"public_inputs"`
	PrivateInputs []string `json:"private_inputs"`
	Signature     string   `json:"signature"`
}

type proveResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Result  struct {
		ID  string `json:"id"`
		MD5 string `json:"md5"`
	} `json:"result"`
}

// Client talks to the proving service.
type Client struct {
	baseURL    string
	key        *ecdsa.PrivateKey
	address    common.Address
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client signing requests with the hex private key.
func NewClient(baseURL, privateKey string, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("prover url is required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}, nil
}

// Address is the account requests are signed with.
func (c *Client) Address() common.Address {
	return c.address
}

// SignMessage is the text that gets signed for a request.
func SignMessage(user common.Address, req Request) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(user.Hex()))
	b.WriteString(req.ImageHash)
	for _, w := range req.Public {
		b.WriteString(w)
	}
	for _, w := range req.Private {
		b.WriteString(w)
	}
	return b.String()
}

// Sign produces a personal-message signature with v in {27, 28}.
func Sign(key *ecdsa.PrivateKey, message string) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Submit posts the job to {baseURL}/prove.
func (c *Client) Submit(ctx context.Context, req Request) (Task, error) {
	if req.ImageHash == "" {
		return Task{}, fmt.Errorf("image hash is required")
	}

	sig, err := Sign(c.key, SignMessage(c.address, req))
	if err != nil {
		return Task{}, fmt.Errorf("sign request: %w", err)
	}
	body, err := json.Marshal(proveRequest{
		UserAddress:   strings.ToLower(c.address.Hex()),
		MD5:           req.ImageHash,
		PublicInputs:  nonNil(req.Public),
		PrivateInputs: nonNil(req.Private),
		Signature:     hexutil.Encode(sig),
	})
	if err != nil {
		return Task{}, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/prove"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Task{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info("submitting proof",
		zap.String("url", url),
		zap.String("image_hash", req.ImageHash),
		zap.Int("public_words", len(req.Public)),
		zap.Int("private_words", len(req.Private)),
	)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Task{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Task{}, fmt.Errorf("read response: %w", err)
	}

	var out proveResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Task{}, &SubmissionError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return Task{}, fmt.Errorf("decode response: %w", decodeErr)
	}
	if !out.Success || out.Result.ID == "" {
		msg := out.Error
		if msg == "" {
			msg = "service returned no task id"
		}
		return Task{}, &SubmissionError{StatusCode: resp.StatusCode, Message: msg}
	}

	task := Task{ID: out.Result.ID, ImageHash: out.Result.MD5}
	if task.ImageHash == "" {
		task.ImageHash = req.ImageHash
	}
	c.logger.Info("proof task created", zap.String("task_id", task.ID), zap.String("image_hash", task.ImageHash))
	return task, nil
}

func nonNil(words []string) []string {
	if words == nil {
		return []string{}
	}
	return words
}
