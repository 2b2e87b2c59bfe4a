// Package model defines the provider-agnostic abstractions used by model
// backed executors, plus a deterministic MockModel.
//
// Providers (OpenAI, Anthropic) implement Model in their own sub packages so
// the agent package stays decoupled from vendor SDKs. Generation is exposed
// as a pair of channels; Collect drains them into the final response.
package model
