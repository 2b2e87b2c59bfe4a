// Package config loads agentrouter process configuration.
//
// Configuration is resolved with the precedence
//
//	defaults < YAML file < environment variables
//
// and validated before use. Recognised environment variables:
//
//	PORT                        server.port
//	AGENTROUTER_HOST            server.host
//	AGENTROUTER_LOG_LEVEL       log.level
//	AGENTROUTER_LOG_FORMAT      log.format
//	AGENTROUTER_DEFAULT_AGENT   dispatcher.default_agent
//	ANTHROPIC_API_KEY           api_key of anthropic agents that set none
//	OPENAI_API_KEY              api_key of openai agents that set none
package config
