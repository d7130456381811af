/*
Package log provides structured logging for stockmesh using zerolog.

Each process (catalog, order replica, frontend) calls Init once at startup
with the level and format read off its command-line flags, then pulls
component- or request-scoped child loggers off the resulting global Logger
via WithComponent, WithReplicaID, and WithRequestID.

# Usage

	import "github.com/stockmesh/stockmesh/pkg/log"

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithReplicaID(replicaID)
	logger.Info().Int64("transaction_id", id).Msg("order placed")

JSONOutput controls whether logs are newline-delimited JSON (for
production, piped to a log aggregator) or zerolog's ConsoleWriter (for
local development, colorized and human-readable).
*/
package log
