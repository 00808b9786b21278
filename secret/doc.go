/*
Package secret runs the client side protocols over a set of key servers.

  - PingSecret keeps a sender record alive and reports whether it unlocked
  - GetSecret fetches the shares of a receiver record and combines them
  - Creator creates a new secret on a chosen set of servers
  - Watcher repeats PingSecret or GetSecret on an interval

Polling is fail-closed: a key whose server cannot be reached counts as
locked. Creation is fail-fast: any failing server aborts the whole creation
and nothing is returned.
*/
package secret
