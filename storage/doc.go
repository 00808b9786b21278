// Package storage keeps sender and receiver records in pluggable keyed backends.
//
// A backend is a flat namespace of ids mapping to opaque blobs:
//
//   - File system storage for local use
//   - S3-compatible object storage
//   - HashiCorp Vault KV v2
//   - A multi-backend that writes to every backend and reads from the first that answers
//
// # Storage URI Format
//
// Backends are selected by URI:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///home/user/.wingedcap/
//   - s3://bucket-name/prefix/?region=us-west-2&endpoint=minio.local:9000
//   - vault://vault.example.com:8200/secret/wingedcap?scheme=https
//
// # Records
//
// RecordStore lays sender and receiver records out on a backend:
//
//	sender_<sha256 of the record's keys and sets>
//	receiver_<escaped label>
//
// so that storing the same sender twice overwrites it instead of duplicating it,
// and a receiver label is unique per store.
package storage
