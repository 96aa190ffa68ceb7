// Package model defines the provider agnostic abstractions for interacting
// with language models: a single streaming Generate call, normalized tool
// definitions and a scripted MockModel for tests.
//
// Providers (model/openai, model/anthropic) implement Model so agents and
// flows stay decoupled from vendor SDKs.
package model
