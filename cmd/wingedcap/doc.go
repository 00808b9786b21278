// Package main (cmd/wingedcap) is the command line client for threshold
// time-locked secrets.
//
// A sender creates a secret on a set of key servers, keeps it locked by
// pinging it and hands the receiver record to whoever should read it once
// the pings stop. Records are kept in a record store (--store).
//
// Example usage:
//
//	wingedcap create --label will --message-file will.txt --timelock 30 --unit days \
//	    --server https://keys1.example=04ab... --server https://keys2.example=04cd... --required 1
//	wingedcap ping will
//	wingedcap export-receiver will > receiver.json
//	wingedcap import --label "from alice" receiver.json
//	wingedcap get "from alice"
//
// All commands print JSON on stdout; logs go to stderr.
package main
