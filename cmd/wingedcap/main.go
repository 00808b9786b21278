package main

import (
	"log"
	"os"

	"github.com/ruteri/wingedcap-client/cmd/flags"
	"github.com/urfave/cli/v2"
)

var flagLabel = &cli.StringFlag{
	Name:  "label",
	Usage: "label of the record",
}

var flagMessage = &cli.StringFlag{
	Name:  "message",
	Usage: "secret message",
}

var flagMessageFile = &cli.StringFlag{
	Name:  "message-file",
	Usage: "read the secret message from a file, - for stdin",
}

var flagTimelock = &cli.Uint64Flag{
	Name:  "timelock",
	Usage: "time without a ping after which the secret unlocks, in --unit",
}

var flagUnit = &cli.StringFlag{
	Name:  "unit",
	Value: "days",
	Usage: "timelock unit: seconds, minutes, hours, days or weeks",
}

var flagServer = &cli.StringSliceFlag{
	Name:  "server",
	Usage: "key server as HOST=PK, repeat for every server",
}

var flagServersFile = &cli.StringFlag{
	Name:  "servers-file",
	Usage: "JSON file with a list of {host, pk, meta} key servers",
}

var flagFromHub = &cli.IntFlag{
	Name:  "from-hub",
	Usage: "number of key servers to request from --hub",
}

var flagRequired = &cli.IntFlag{
	Name:  "required",
	Value: 1,
	Usage: "number of keys required to read the secret",
}

var flagReceiver = &cli.BoolFlag{
	Name:  "receiver",
	Usage: "the reference names a receiver record",
}

var flagAll = &cli.BoolFlag{
	Name:  "all",
	Usage: "apply to every record",
}

var flagInterval = &cli.DurationFlag{
	Name:  "interval",
	Value: 0,
	Usage: "poll interval, 30s if unset",
}

var flagKind = &cli.StringFlag{
	Name:  "kind",
	Value: "receiver",
	Usage: "kind of record to import: sender or receiver",
}

var flagTotal = &cli.IntFlag{
	Name:  "total",
	Usage: "number of keys",
}

func main() {
	app := &cli.App{
		Name:  "wingedcap",
		Usage: "Create, keep alive and reveal threshold time-locked secrets",
		Flags: append(append([]cli.Flag{
			flags.LogServiceFlagFn("wingedcap"),
		}, flags.CommonFlags...), flags.ClientFlags...),
		Commands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Create a secret on a set of key servers and store its sender record",
				Flags:  []cli.Flag{flagLabel, flagMessage, flagMessageFile, flagTimelock, flagUnit, flagServer, flagServersFile, flagFromHub, flagRequired},
				Action: createAction,
			},
			{
				Name:      "ping",
				Usage:     "Ping a sender record, keeping its keys locked",
				ArgsUsage: "<sender id or label>",
				Flags:     []cli.Flag{flagAll},
				Action:    pingAction,
			},
			{
				Name:      "get",
				Usage:     "Fetch a receiver record's shares and reveal the secret if unlocked",
				ArgsUsage: "<receiver id or label>",
				Action:    getAction,
			},
			{
				Name:      "watch",
				Usage:     "Poll a record until it unlocks",
				ArgsUsage: "<id or label>",
				Flags:     []cli.Flag{flagReceiver, flagInterval},
				Action:    watchAction,
			},
			{
				Name:   "list",
				Usage:  "List stored sender and receiver records",
				Action: listAction,
			},
			{
				Name:      "conf",
				Usage:     "Show the sets of an M of N vault, or classify a stored record",
				ArgsUsage: "[id or label]",
				Flags:     []cli.Flag{flagTotal, flagRequired, flagReceiver},
				Action:    confAction,
			},
			{
				Name:      "relabel",
				Usage:     "Change the label of a stored record",
				ArgsUsage: "<id or label> <new label>",
				Flags:     []cli.Flag{flagReceiver},
				Action:    relabelAction,
			},
			{
				Name:      "remove",
				Usage:     "Remove a stored record",
				ArgsUsage: "<id or label>",
				Flags:     []cli.Flag{flagReceiver, flagAll},
				Action:    removeAction,
			},
			{
				Name:      "export-receiver",
				Usage:     "Print the receiver record of a sender record",
				ArgsUsage: "<sender id or label>",
				Flags:     []cli.Flag{flagLabel},
				Action:    exportReceiverAction,
			},
			{
				Name:      "import",
				Usage:     "Import a sender or receiver record from a file or stdin",
				ArgsUsage: "[file]",
				Flags:     []cli.Flag{flagKind, flagLabel},
				Action:    importAction,
			},
			{
				Name:   "hub-server",
				Usage:  "Ask the hub for a key server",
				Action: hubServerAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
