// Package aggregate turns the per-key outcomes of one polling round into the
// aggregate state of a sender or receiver record.
//
// Both directions fail closed: a key whose call failed, or whose answer is not
// a usable unlock, counts as Locked. A combination is satisfied only when it
// names at least one key and every key it names is Unlocked.
//
// The functions here are pure. They perform no I/O and no retries; re-polling
// is the caller's business.
package aggregate
