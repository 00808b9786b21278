package main

import (
	"crypto/ecdh"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/wingedcap-client/cmd/flags"
	"github.com/ruteri/wingedcap-client/cryptoutils"
	"github.com/ruteri/wingedcap-client/httpserver"
	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/urfave/cli/v2"
)

var flagListenAddr = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var flagKey = &cli.StringFlag{
	Name:    "key",
	EnvVars: []string{"KEYSERVER_KEY"},
	Usage:   "hex-encoded P-256 server private key, generated if empty",
}

var flagAdvertiseHost = &cli.StringFlag{
	Name:  "advertise-host",
	Usage: "host clients should use for this server, defaults to http://<listen-addr>",
}

var flagHubServers = &cli.StringFlag{
	Name:  "hub-servers",
	Usage: "JSON file with the servers handed out by get_server",
}

func main() {
	app := &cli.App{
		Name:  "keyserver",
		Usage: "Serve timelocked key slots from memory",
		Flags: append(append([]cli.Flag{
			flagListenAddr,
			flagKey,
			flagAdvertiseHost,
			flagHubServers,
			flags.LogServiceFlagFn("keyserver"),
		}, flags.CommonFlags...), flags.ServerFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			listenAddr := cCtx.String(flagListenAddr.Name)

			serverKey, err := loadOrGenerateKey(cCtx.String(flagKey.Name))
			if err != nil {
				logger.Error("Invalid server key", "err", err)
				return err
			}
			if cCtx.String(flagKey.Name) == "" {
				logger.Warn("No --key given, using a generated key; slots are lost on restart anyway")
			}

			advertiseHost := cCtx.String(flagAdvertiseHost.Name)
			if advertiseHost == "" {
				advertiseHost = "http://" + listenAddr
			}
			self := interfaces.ServerWithMeta{Host: advertiseHost, PK: cryptoutils.PublicKeyHex(serverKey.PublicKey())}

			hub, err := hubServers(cCtx.String(flagHubServers.Name), self)
			if err != nil {
				logger.Error("Failed to load hub servers", "err", err)
				return err
			}
			logger.Info("Hub servers loaded", "count", len(hub))

			handler := httpserver.NewHandler(httpserver.NewKeyStore(nil), serverKey, hub, logger)
			server, err := httpserver.New(flags.ConfigureServer(cCtx, logger, listenAddr), handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Key server identity", "host", self.Host, "pk", self.PK)
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadOrGenerateKey(keyHex string) (*ecdh.PrivateKey, error) {
	if keyHex == "" {
		return cryptoutils.GenerateKey()
	}
	return cryptoutils.ParsePrivateKeyHex(keyHex)
}

// hubServers returns the servers handed out by get_server. Without a file,
// or with an empty list, the server hands out itself.
func hubServers(path string, self interfaces.ServerWithMeta) ([]interfaces.ServerWithMeta, error) {
	if path == "" {
		return []interfaces.ServerWithMeta{self}, nil
	}
	servers, err := loadHubServers(path)
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return []interfaces.ServerWithMeta{self}, nil
	}
	return servers, nil
}

func loadHubServers(path string) ([]interfaces.ServerWithMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var servers []interfaces.ServerWithMeta
	if err := json.Unmarshal(data, &servers); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	for i, s := range servers {
		if s.Host == "" || s.PK == "" {
			return nil, fmt.Errorf("server %d in %s is missing host or pk", i, path)
		}
	}
	return servers, nil
}
