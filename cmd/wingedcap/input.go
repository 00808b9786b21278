package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ruteri/wingedcap-client/interfaces"
)

// parseServerSpec parses HOST=PK. The public key is hex and never contains '='.
func parseServerSpec(spec string) (interfaces.ServerWithMeta, error) {
	idx := strings.LastIndex(spec, "=")
	if idx <= 0 || idx == len(spec)-1 {
		return interfaces.ServerWithMeta{}, fmt.Errorf("invalid server %q, expected HOST=PK", spec)
	}
	return interfaces.ServerWithMeta{
		Host: strings.TrimSpace(spec[:idx]),
		PK:   strings.TrimSpace(spec[idx+1:]),
	}, nil
}

func parseServers(specs []string) ([]interfaces.ServerWithMeta, error) {
	servers := make([]interfaces.ServerWithMeta, 0, len(specs))
	for _, spec := range specs {
		s, err := parseServerSpec(spec)
		if err != nil {
			return nil, err
		}
		servers = append(servers, s)
	}
	return servers, nil
}

func decodeServers(r io.Reader) ([]interfaces.ServerWithMeta, error) {
	var servers []interfaces.ServerWithMeta
	if err := json.NewDecoder(r).Decode(&servers); err != nil {
		return nil, fmt.Errorf("invalid servers list: %w", err)
	}
	return servers, nil
}

// readInput reads a whole file, or stdin when path is "-" or empty.
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// decodeImport parses a record of the given kind. A non-empty label overrides the one in the record.
func decodeImport(kind string, data []byte, label string) (any, error) {
	switch kind {
	case "sender":
		var sender interfaces.SenderStored
		if err := json.Unmarshal(data, &sender); err != nil {
			return nil, fmt.Errorf("invalid sender record: %w", err)
		}
		if label != "" {
			sender.Label = label
		}
		if len(sender.Keys) == 0 {
			return nil, errors.New("sender record has no keys")
		}
		return sender, sender.Validate()
	case "receiver":
		var receiver interfaces.ReceiverStored
		if err := json.Unmarshal(data, &receiver); err != nil {
			return nil, fmt.Errorf("invalid receiver record: %w", err)
		}
		if label != "" {
			receiver.Label = label
		}
		if receiver.Label == "" {
			return nil, errors.New("receiver record has no label, pass --label")
		}
		if len(receiver.Keys) == 0 {
			return nil, errors.New("receiver record has no keys")
		}
		return receiver, receiver.Validate()
	default:
		return nil, fmt.Errorf("unknown record kind %q, expected sender or receiver", kind)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// checkDistinct rejects server lists naming the same server twice, which
// would put several shares of one secret on a single server.
func checkDistinct(servers []interfaces.ServerWithMeta) error {
	seen := make(map[interfaces.Server]int, len(servers))
	for i, s := range servers {
		if j, ok := seen[s.Server()]; ok {
			return fmt.Errorf("server %s is listed twice (%d and %d)", s.Host, j, i)
		}
		seen[s.Server()] = i
	}
	return nil
}
