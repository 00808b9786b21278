/*
Package httpserver implements a development key server.

It holds timelocked key slots in memory and speaks the sealed envelope
protocol defined in package api, which makes it usable both for local runs
of the CLI and as the remote end of client integration tests.

# Slot lifecycle

  - create_key mints a slot locked until timelock seconds from now
  - bind_key stores the share once, while the slot is still locked
  - ping_key pushes the deadline back by timelock seconds while locked
  - once the deadline passes without a ping the slot is unlocked for good
  - get_key returns the share of an unlocked slot

The server also answers get_server, handing out the configured hub servers
round-robin (itself when none are configured).

# Operational endpoints

  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Mark the server not ready
  - GET /undrain - Mark the server ready again
  - /debug/* - pprof, when enabled
*/
package httpserver
