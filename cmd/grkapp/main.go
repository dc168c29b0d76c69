package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	_ "time/tzdata"

	"github.com/irwan019/GrkApp/internal/bootstrap"
)

const usage = `Usage:
  grkapp [serve] [-config FILE]
  grkapp export -view VIEW [-location NAME] [-start YYYY-MM-DD -end YYYY-MM-DD] [-format csv|xlsx] -out PATH|s3://bucket/key
  grkapp about
`

type command struct {
	name       string
	configFile string
	export     bootstrap.ExportRequest
}

func parseArgs(args []string, stderr io.Writer) (command, error) {
	cmd := command{name: "serve"}
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd.name, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("grkapp "+cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	fs.StringVar(&cmd.configFile, "config", "", "path to config file")

	switch cmd.name {
	case "serve", "about":
	case "export":
		fs.StringVar(&cmd.export.View, "view", "realtime", "realtime, forecast or period")
		fs.StringVar(&cmd.export.Location, "location", "", "location name (default: first configured)")
		fs.StringVar(&cmd.export.Start, "start", "", "period start date")
		fs.StringVar(&cmd.export.End, "end", "", "period end date")
		fs.StringVar(&cmd.export.Format, "format", "", "csv or xlsx (default: from -out extension)")
		fs.StringVar(&cmd.export.Out, "out", "", "destination file or s3:// URL")
	default:
		fs.Usage()
		return cmd, fmt.Errorf("unknown command %q", cmd.name)
	}

	if err := fs.Parse(args); err != nil {
		return cmd, err
	}
	if fs.NArg() > 0 {
		return cmd, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if cmd.name == "export" && cmd.export.Out == "" {
		return cmd, errors.New("export requires -out")
	}
	return cmd, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cmd.configFile)
	if err != nil {
		return err
	}

	switch cmd.name {
	case "export":
		location, err := app.Export(ctx, cmd.export)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Fprintf(stdout, "saved %s\n", location)
		return nil
	case "about":
		fmt.Fprint(stdout, app.About().String())
		return nil
	default:
		return app.Serve(ctx)
	}
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("Application failed: %v", err)
	}
}
