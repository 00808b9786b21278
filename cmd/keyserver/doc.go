// Package main (cmd/keyserver) runs an in-memory development key server.
//
// Slots live only as long as the process. The server key is taken from
// --key or generated at startup; its public key is logged so that clients
// can be pointed at it.
//
// Example:
//
//	keyserver --listen-addr 127.0.0.1:8080 --advertise-host http://127.0.0.1:8080
//
// With --hub-servers the process also acts as a hub, handing out the servers
// listed in the file round-robin. Without it, get_server returns the server itself.
package main
