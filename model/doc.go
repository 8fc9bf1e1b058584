// Package model defines the provider‑agnostic abstractions shared by every
// vendor adapter and by the tool loop.
//
// Core goals:
//   - Unify streaming + non‑streaming completion behind a single lazy sequence
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep message and response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockProvider)
//
// Vendor families (OpenAI-compatible, Anthropic) implement the Provider
// interface from this package so higher layers (flow) stay decoupled from
// vendor SDKs.
package model
