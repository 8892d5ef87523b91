package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/lagoonfi/lagoon-go-sdk/core"
	"github.com/lagoonfi/lagoon-go-sdk/memory"
	"github.com/lagoonfi/lagoon-go-sdk/memory/embedder/mock"
	"github.com/lagoonfi/lagoon-go-sdk/memory/store/chromem"
)

func newTestManager(t *testing.T) *memory.SimpleManager {
	t.Helper()
	store, err := chromem.New()
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	config := &memory.Config{
		Enabled:               true,
		RetrievalLimit:        10,
		MinConversationLength: 40,
	}
	return memory.NewSimpleManager(store, mock.New(), config)
}

func TestSimpleManagerRecordAndRetrieve(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	traces := []*core.Trace{
		{
			SessionID:   "session1",
			Thought:     "Listing positions before analyzing their health",
			Action:      "get_cdps",
			Observation: "2 iUSD positions found",
			Success:     true,
		},
		{
			SessionID:   "session1",
			Thought:     "Position abc#0 is below maintenance, drafting a deposit",
			Action:      "deposit_cdp",
			Observation: "Draft created, fee 200000 lovelace",
			Success:     true,
		},
	}

	if err := manager.RecordTraces(ctx, "user123", traces); err != nil {
		t.Fatalf("record traces: %v", err)
	}

	result, err := manager.Retrieve(ctx, "user123", "what did I do with my iUSD positions?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if result == "" {
		t.Fatal("expected retrieved memories, got empty string")
	}
	if !strings.Contains(result, "deposit_cdp") {
		t.Errorf("expected deposit_cdp trace in result, got:\n%s", result)
	}
	if !strings.Contains(result, "RELEVANT PAST ACTIVITY") {
		t.Errorf("expected section header in result, got:\n%s", result)
	}
}

func TestSimpleManagerDisabled(t *testing.T) {
	ctx := context.Background()
	store, err := chromem.New()
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	manager := memory.NewSimpleManager(store, mock.New(), nil) // DefaultConfig: disabled

	traces := []*core.Trace{{Action: "open_cdp", Success: false}}
	if err := manager.RecordTraces(ctx, "user123", traces); err != nil {
		t.Fatalf("record traces: %v", err)
	}

	result, err := manager.Retrieve(ctx, "user123", "anything")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if result != "" {
		t.Errorf("expected empty result when disabled, got %q", result)
	}
}

func TestSimpleManagerFiltersTrivialTraces(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	// A single successful price check with no reasoning is not stored.
	trivial := []*core.Trace{{
		SessionID: "s1",
		Action:    "get_asset_price",
		Thought:   "check price",
		Success:   true,
	}}
	if err := manager.RecordTraces(ctx, "user123", trivial); err != nil {
		t.Fatalf("record trivial: %v", err)
	}

	result, err := manager.Retrieve(ctx, "user123", "price check")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if result != "" {
		t.Errorf("expected trivial trace to be filtered, got:\n%s", result)
	}
}

func TestSimpleManagerKeepsFailures(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	failure := []*core.Trace{{
		SessionID:   "s1",
		Action:      "withdraw_cdp",
		Thought:     "draft withdrawal",
		Observation: "precondition_failed: asset iBTC is delisted",
		Success:     false,
		Metadata: map[string]string{
			"error":      "precondition_failed: asset iBTC is delisted",
			"prevention": "Check the asset with get_asset first",
		},
	}}
	if err := manager.RecordTraces(ctx, "user123", failure); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	result, err := manager.Retrieve(ctx, "user123", "withdraw from my iBTC position")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !strings.Contains(result, "Failed") {
		t.Errorf("expected failure status in result, got:\n%s", result)
	}
	if !strings.Contains(result, "Prevention") {
		t.Errorf("expected prevention hint in result, got:\n%s", result)
	}
}

func TestSimpleManagerRecordConversation(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	err := manager.RecordConversation(ctx, "user123",
		"Please treat my iUSD positions as long-term holds, never suggest closing them",
		"Understood. I will only suggest collateral adjustments for your iUSD positions.")
	if err != nil {
		t.Fatalf("record conversation: %v", err)
	}

	result, err := manager.Retrieve(ctx, "user123", "should I close my iUSD position?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !strings.Contains(result, "long-term") {
		t.Errorf("expected stored exchange in result, got:\n%s", result)
	}
}

func TestSimpleManagerSkipsShortConversations(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	if err := manager.RecordConversation(ctx, "user123", "hi", "hello"); err != nil {
		t.Fatalf("record conversation: %v", err)
	}

	result, err := manager.Retrieve(ctx, "user123", "hi")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if result != "" {
		t.Errorf("expected short exchange to be skipped, got:\n%s", result)
	}
}

func TestSimpleManagerUserIsolation(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)

	traces := []*core.Trace{{
		SessionID:   "s1",
		Action:      "open_cdp",
		Thought:     "Opening a new iUSD position with 300 ADA collateral for the user",
		Observation: "Draft created",
		Success:     true,
	}}
	if err := manager.RecordTraces(ctx, "alice", traces); err != nil {
		t.Fatalf("record traces: %v", err)
	}

	result, err := manager.Retrieve(ctx, "bob", "what positions did I open?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if result != "" {
		t.Errorf("expected no cross-user memories, got:\n%s", result)
	}
}
