// Package interfaces defines the core types and contracts of the wingedcap client.
//
// It holds the data model shared by every other package (servers, key references,
// vault sets, sender and receiver records), the per-key and aggregate lock states,
// and the interfaces through which the orchestration code reaches its collaborators:
//
//   - KeyServerClient: the four remote operations against a single key server
//   - SecretSplitter: share splitting and combination
//   - StorageBackend: a keyed blob store for sender and receiver records
//
// Nothing in this package performs I/O.
package interfaces
