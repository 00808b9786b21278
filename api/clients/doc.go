/*
Package clients provides the HTTP client for key servers and hubs.

# KeyServerClient

KeyServerClient implements interfaces.KeyServerClient over the sealed
envelope protocol of package api:

  - CreateKey - Mint a new timelocked slot on a server
  - BindKey - Store a share in a freshly created slot
  - PingKey - Refresh a slot's timelock and read its state
  - GetKey - Read a slot's share once its timelock elapsed

Each call generates a one-time reply key, so responses can only be read by
the caller. The http.Client timeout bounds every call; there is no retry.
Every failure, from dialing to decrypting the answer, is returned as an
*interfaces.TransportError.

# HubClient

HubClient asks a hub for a key server to use for a new secret.
*/
package clients
