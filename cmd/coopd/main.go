package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := Execute(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func Execute(args []string) error {
	return newApp(os.Stdout).Run(args)
}

func newApp(w io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "coopd"
	app.HelpName = "coopd"
	app.Usage = "runs keep-alive tasks on a cooperative scheduler"
	app.UsageText = "coopd <command> [arguments...]"
	app.Version = version
	app.Writer = w
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "runs the keep-alive tasks of a configuration file",
			Action: run,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "config, c",
					Usage: "path to the HCL configuration file",
					Value: "/etc/coopd.hcl",
				},
			},
		},
		{
			Name:   "wheel",
			Usage:  "exercises a timer wheel with pseudo-random timers",
			Action: wheelDiag,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "timers, n",
					Usage: "number of timers",
					Value: 10000,
				},
				cli.Uint64Flag{
					Name:  "span",
					Usage: "timers expire within [0, span) ticks",
					Value: 1 << 20,
				},
				cli.Uint64Flag{
					Name:  "seed",
					Usage: "pseudo-random seed",
					Value: 1,
				},
			},
		},
		{
			Name:  "version",
			Usage: "prints the version",
			Action: func(c *cli.Context) error {
				_, err := fmt.Fprintln(c.App.Writer, version)
				return err
			},
		},
	}
	return app
}
