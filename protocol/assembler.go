package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/lagoonfi/lagoon-go-sdk/protocol/indexer"
)

// Record roles in an assembly request.
const (
	RoleInput     = "input"     // spent by the transaction
	RoleReference = "reference" // read-only reference
)

// ResolvedRecord pairs a ledger record with the role it plays in the draft.
type ResolvedRecord struct {
	Role   string         `json:"role"`
	Kind   string         `json:"kind"`
	Record indexer.Record `json:"record"`
}

// AssemblyRequest is the fully-resolved input to the assembly primitive.
// Orchestration guarantees every record here was freshly fetched for this
// request and every precondition already checked.
type AssemblyRequest struct {
	Operation    string            `json:"operation"`
	OwnerAddress string            `json:"owner_address"`
	// ChainTimeMs anchors interest/price validity windows.
	ChainTimeMs int64             `json:"chain_time_ms"`
	Records     []ResolvedRecord  `json:"records"`
	Params      map[string]string `json:"params"`
}

// Artifact is a fully assembled, fee-computed transaction lacking only a
// signature. This layer never signs.
type Artifact struct {
	UnsignedTx string   `json:"unsigned_tx"`
	TxHash     string   `json:"tx_hash"`
	Fee        *big.Int `json:"fee"`
}

// Assembler is the opaque transaction-assembly capability. The core depends
// only on this interface; tests substitute a fake that records its inputs.
type Assembler interface {
	Complete(ctx context.Context, req *AssemblyRequest) (*Artifact, error)
}

// AssemblyError preserves the assembly service's message verbatim (e.g.
// insufficient funds at the owner's address). It is the terminal error of an
// orchestration.
type AssemblyError struct {
	Operation string
	Status    int
	Message   string
	Timeout   bool
}

func (e *AssemblyError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("assemble %s: timed out", e.Operation)
	}
	return fmt.Sprintf("assemble %s: %s", e.Operation, e.Message)
}

// HTTPAssembler talks to the hosted assembly service.
type HTTPAssembler struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewHTTPAssembler creates an assembler client for the given endpoint.
func NewHTTPAssembler(baseURL, key string) *HTTPAssembler {
	return &HTTPAssembler{
		baseURL: baseURL,
		key:     key,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Complete posts the resolved record set and returns the unsigned artifact.
func (a *HTTPAssembler) Complete(ctx context.Context, req *AssemblyRequest) (*Artifact, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &AssemblyError{Operation: req.Operation, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/complete", bytes.NewReader(body))
	if err != nil {
		return nil, &AssemblyError{Operation: req.Operation, Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.key)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, &AssemblyError{
			Operation: req.Operation,
			Message:   err.Error(),
			Timeout:   isAssemblerTimeout(err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AssemblyError{Operation: req.Operation, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AssemblyError{
			Operation: req.Operation,
			Status:    resp.StatusCode,
			Message:   assemblerMessage(respBody),
		}
	}

	var artifact Artifact
	if err := json.Unmarshal(respBody, &artifact); err != nil {
		return nil, &AssemblyError{Operation: req.Operation, Message: fmt.Sprintf("unmarshal response: %v", err)}
	}
	return &artifact, nil
}

func assemblerMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	const max = 200
	s := string(body)
	if len(s) > max {
		s = s[:max]
	}
	return s
}

func isAssemblerTimeout(err error) bool {
	var t interface{ Timeout() bool }
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
