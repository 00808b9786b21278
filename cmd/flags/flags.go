package flags

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/wingedcap-client/api"
	"github.com/ruteri/wingedcap-client/api/clients"
	"github.com/ruteri/wingedcap-client/common"
	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/ruteri/wingedcap-client/storage"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// OpenRecordStore builds the record store from --store.
func OpenRecordStore(cCtx *cli.Context, logger *slog.Logger) (*storage.RecordStore, error) {
	uris := cCtx.StringSlice(StoreFlag.Name)
	if len(uris) == 0 {
		uri, err := DefaultStoreURI()
		if err != nil {
			return nil, err
		}
		uris = []string{uri}
	}

	backend, err := storage.NewStorageBackendFactory(logger).CreateMultiBackend(uris)
	if err != nil {
		return nil, fmt.Errorf("could not open record store: %w", err)
	}
	return storage.NewRecordStore(backend, logger), nil
}

// DefaultStoreURI is a file store in the user's home directory.
func DefaultStoreURI() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not locate home directory, pass --%s: %w", StoreFlag.Name, err)
	}
	return "file://" + filepath.Join(home, ".wingedcap"), nil
}

func NewKeyServerClient(cCtx *cli.Context, logger *slog.Logger) *clients.KeyServerClient {
	return clients.NewKeyServerClient(logger, cCtx.Duration(RequestTimeoutFlag.Name))
}

// HubServer is the hub identity from --hub and --hub-pk.
func HubServer(cCtx *cli.Context) (interfaces.Server, error) {
	hub := interfaces.Server{Host: cCtx.String(HubFlag.Name), PK: cCtx.String(HubPKFlag.Name)}
	if hub.Host == "" || hub.PK == "" {
		return hub, fmt.Errorf("--%s and --%s are required", HubFlag.Name, HubPKFlag.Name)
	}
	return hub, nil
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}

var StoreFlag = &cli.StringSliceFlag{
	Name:    "store",
	EnvVars: []string{"WINGEDCAP_STORE"},
	Usage:   "record store URI (file://, s3://, vault://), repeat for redundant stores. Defaults to file://$HOME/.wingedcap",
}
var RequestTimeoutFlag = &cli.DurationFlag{
	Name:    "request-timeout",
	EnvVars: []string{"WINGEDCAP_REQUEST_TIMEOUT"},
	Value:   clients.DefaultTimeout,
	Usage:   "timeout of a single key server call",
}
var HubFlag = &cli.StringFlag{
	Name:    "hub",
	EnvVars: []string{"WINGEDCAP_HUB"},
	Usage:   "hub host handing out key servers",
}
var HubPKFlag = &cli.StringFlag{
	Name:    "hub-pk",
	EnvVars: []string{"WINGEDCAP_HUB_PK"},
	Usage:   "hub public key, hex",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
}

var ServerFlags = []cli.Flag{
	PprofFlag,
	DrainSecondsFlag,
}

var ClientFlags = []cli.Flag{
	StoreFlag,
	RequestTimeoutFlag,
	HubFlag,
	HubPKFlag,
}
