// Package memory gives the agent recall across sessions.
//
// The engine retrieves relevant memories before each run and records the
// run's traces afterwards. Everything in between is up to the Manager
// implementation: which memories to keep, how to rank them, and how to
// format them for prompt injection. Memories are namespaced by user.
//
// Architecture:
//   - Store: vector storage backend (chromem-go embedded store in the SDK)
//   - Embedder: text-to-vector conversion (mock for tests, API-based in hosts)
//   - Manager: orchestrates retrieval and recording
//
// The SDK ships SimpleManager, which keeps drafting confirmations, failures
// and protocol analyses, and skips trivial lookups. Hosts with their own
// memory pipeline implement Manager directly.
package memory
