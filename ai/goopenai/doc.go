// Package goopenai provides an embedding provider for the hosted OpenAI API
// and gateways that speak the same protocol, built on go-openai.
//
// Unlike ai/openai it forwards Config.Dimensions, so models such as
// text-embedding-3-small can return shortened vectors.
package goopenai
