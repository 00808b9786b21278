/*
Package api defines the key server wire protocol shared by the client in
api/clients and the development key server in httpserver.

# Endpoints

All endpoints take POST requests with a JSON Envelope body:

  - /create_key  CreateKeyInput  -> CreateKeyOutput
  - /bind_key    BindKeyInput    -> BindKeyOutput
  - /ping_key    PingKeyInput    -> PingKeyOutput
  - /get_key     GetKeyInput     -> GetKeyOutput
  - /get_server  GetServerInput  -> interfaces.ServerWithMeta (hubs only)

# Sealing

The request payload is a SealedRequest encrypted to the server's public key.
It carries a one-time reply key generated by the client; the server encrypts
its answer to that reply key. A server that cannot process a request answers
with a non-200 status and a plain ErrorResponse.
*/
package api
