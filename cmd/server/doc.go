// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package main is the entry point for the Cadence server.

Cadence continuously authenticates users from how they type and move the
mouse. Browsers stream keystroke and mouse telemetry over a WebSocket; each
batch is reduced to a fixed feature vector, scored against the user's own
baseline (or a population model while the user is still calibrating), and
the session is allowed, alerted or terminated accordingly.

# Application Architecture

	RootSupervisor ("cadence")
	├── StorageSupervisor ("storage-layer")
	│   ├── badger-gc
	│   └── audit-retention
	├── EngineSupervisor ("engine-layer")
	│   ├── profile-retrain-pool
	│   ├── global-trainer
	│   ├── monitor-hub
	│   └── eventbus-{monitor,webhook,nats}
	└── APISupervisor ("api-layer")
	    └── http-server (telemetry socket + query API)

Component initialization order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog with JSON/console output modes
 3. Storage: Badger (profiles, global model checkpoint, security events)
 4. Engine: profile store, scorer, global trainer, security event log
 5. Event fan-out: Watermill bus to the monitor hub, webhook and NATS
 6. HTTP: Chi router, JWT authentication, Casbin authorization
 7. Supervisor Tree: Suture v4 process supervision

# Configuration

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	HTTP_PORT=8765               # HTTP server port
	ENVIRONMENT=production       # production or development
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	JWT_SECRET=<32+ chars>       # Required outside development
	AUTH_TOKEN=<16+ chars>       # Optional static token for legacy clients

	RISK_LOW_THRESHOLD=0.3
	RISK_HIGH_THRESHOLD=0.7
	BLOCK_POLICY=terminal        # terminal or recoverable

	DATA_PATH=/data/cadence      # Badger directory
	STORAGE_IN_MEMORY=false

	ALERT_WEBHOOK_URL=           # POSTed on every anomaly block
	NATS_URL=                    # Forward security events to NATS

# Signal Handling

SIGINT and SIGTERM cancel the root context. Telemetry sessions are closed
with reason server-shutdown (close code 1001), the HTTP listener drains,
the trainers stop, and Badger is closed last.

# Example Usage

Development with an ephemeral signing key and in-memory storage:

	ENVIRONMENT=development STORAGE_IN_MEMORY=true LOG_FORMAT=console ./cadence

Production:

	export JWT_SECRET=$(openssl rand -base64 32)
	export DATA_PATH=/var/lib/cadence
	./cadence
*/
package main
