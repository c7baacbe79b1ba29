// Command filedeck lists, uploads, previews and deletes files on a filedeck
// backend, and can serve the same operations as a local web UI.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/filedeck/filedeck/internal/client"
	"github.com/filedeck/filedeck/internal/config"
	"github.com/filedeck/filedeck/internal/logging"
)

// Version info (set during build)
var Version = "dev"

const usage = `Usage: filedeck [flags] <command> [args]

Commands:
  list                 list stored files, newest first
  upload <path>        validate and upload a local file
  download <name>      save a stored file into the current directory (-o DIR)
  view <name>          print a text file, or describe an image or binary
  delete <name>        delete a stored file
  watch                stream upload and delete events
  token [subject]      issue an access token from the configured secret
  ui                   serve the web client (-addr HOST:PORT)
  version              print the version

Flags:
`

// app is the resolved runtime configuration shared by every command.
type app struct {
	cfg    *config.AppConfig
	opts   client.Options
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "filedeck: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("filedeck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "filedeck.yaml", "path to the YAML configuration file")
	baseURL := fs.String("base-url", "", "API root, overrides client.baseURL")
	mode := fs.String("mode", "", "open, closed or offline; overrides client.mode")
	token := fs.String("token", "", "bearer token, overrides client.authToken")
	useMsgpack := fs.Bool("msgpack", false, "request msgpack listings")
	logLevel := fs.String("log-level", "", "debug, info, warn, error or off")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no command given")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}
	if *mode != "" {
		cfg.Client.Mode = *mode
	}
	if *token != "" {
		cfg.Client.AuthToken = *token
	}
	if *useMsgpack {
		cfg.Client.Msgpack = true
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logging.Configure(cfg.Logging.Level, stderr)

	m, err := client.ParseMode(cfg.Client.Mode)
	if err != nil {
		return err
	}

	a := &app{
		cfg: cfg,
		opts: client.Options{
			BaseURL: cfg.Client.BaseURL,
			Timeout: cfg.GetClientTimeout(),
			Mode:    m,
			Token:   cfg.Client.AuthToken,
			Msgpack: cfg.Client.Msgpack,
			Logger:  logging.New("client"),
		},
		stdout: stdout,
		stderr: stderr,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "list", "ls":
		return a.list(ctx)
	case "upload":
		return a.upload(ctx, rest)
	case "download":
		return a.download(ctx, rest)
	case "view":
		return a.view(ctx, rest)
	case "delete", "rm":
		return a.delete(ctx, rest)
	case "watch":
		return a.watch(ctx)
	case "token":
		return a.token(rest)
	case "ui":
		return a.ui(ctx, rest)
	case "version":
		fmt.Fprintln(stdout, Version)
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
