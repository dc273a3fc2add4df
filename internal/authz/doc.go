// Cadence - Continuous Behavioral Authentication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package authz provides role-based authorization using Casbin.

Roles come from the role claim of the caller's access token:

  - viewer: no access to the privileged surface
  - analyst: read security events, the realtime monitor, sessions and profiles
  - admin: everything analyst can do, plus unblocking users

The model and policy are embedded; AUTHZ_MODEL_PATH and AUTHZ_POLICY_PATH
override them with files. Objects are request paths matched with
keyMatch2, so /api/v1/profiles/:userId covers every profile. Actions are
read for GET/HEAD and write for everything else.

Decisions are cached per (role, path, action) for the configured TTL.
*/
package authz
