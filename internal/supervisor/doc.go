// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package supervisor runs Cadence's long-lived services under a suture v4 tree.

# Overview

	RootSupervisor ("cadence")
	├── StorageSupervisor ("storage-layer")
	│   ├── badger-gc (when storage is persistent)
	│   └── audit-retention (when storage is persistent)
	├── EngineSupervisor ("engine-layer")
	│   ├── profile-retrain
	│   ├── global-trainer
	│   ├── monitor-hub
	│   └── eventbus dispatchers (monitor, webhook, nats)
	└── APISupervisor ("api-layer")
	    └── http-server

Services that return an error are restarted with suture's decaying failure
counter. When the threshold is exceeded the supervisor backs off for
FailureBackoff before restarting again.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddStorageService(storage.NewGCService(store, cfg.Storage.GCInterval))
	tree.AddEngineService(services.NewRunnerService("monitor-hub", hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, sessions))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Shutdown is driven by cancelling ctx. Each service gets ShutdownTimeout to
return; UnstoppedServiceReport lists the ones that did not.
*/
package supervisor
