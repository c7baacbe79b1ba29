package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/filedeck/filedeck/internal/api"
	"github.com/filedeck/filedeck/internal/client"
	"github.com/filedeck/filedeck/internal/collection"
	"github.com/filedeck/filedeck/internal/fileutil"
	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/models"
	"github.com/filedeck/filedeck/internal/upload"
	"github.com/filedeck/filedeck/internal/viewer"
	"github.com/filedeck/filedeck/internal/web"
)

func (a *app) collection() *collection.Collection {
	return collection.New(client.New(a.opts), collection.WithLogger(a.opts.Logger))
}

// report prints the collection banner, if any, and turns an error banner
// into a command failure.
func (a *app) report(files *collection.Collection, err error) error {
	msg := files.Message()
	if msg.Text != "" {
		fmt.Fprintln(a.stdout, msg.Text)
	}
	if err != nil {
		return err
	}
	if msg.Kind == collection.MessageError {
		return errors.New(msg.Text)
	}
	return nil
}

func (a *app) list(ctx context.Context) error {
	files := a.collection()
	defer files.Close()

	if err := files.Load(ctx); err != nil {
		return a.report(files, err)
	}

	records := files.Files()
	if len(records) == 0 {
		fmt.Fprintln(a.stdout, "No files uploaded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tUPLOADED\tKEY")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.DisplayName(), fileutil.FormatSize(r.FileSize), fileutil.FormatTime(r.UploadedAt), r.FileName)
	}
	return tw.Flush()
}

func (a *app) upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: filedeck upload <path>")
	}

	file, err := models.NewLocalFileFromPath(args[0])
	if err != nil {
		return err
	}

	files := a.collection()
	defer files.Close()
	ctrl := upload.NewController(files.Upload, upload.Options{Logger: logging.New("upload")})
	defer ctrl.Close()

	last := -1
	ctrl.Subscribe(func(st upload.State) {
		if st.Status == upload.StatusUploading && st.Progress != last {
			last = st.Progress
			fmt.Fprintf(a.stderr, "\rUploading %s... %d%%", file.Name, st.Progress)
		}
		if st.Status == upload.StatusSuccess {
			fmt.Fprintf(a.stderr, "\rUploading %s... 100%%\n", file.Name)
		}
	})

	if errs := ctrl.HandleFile(file); len(errs) > 0 {
		return fmt.Errorf("%s: %s", file.Name, strings.Join(errs, ", "))
	}

	rec, err := ctrl.Submit(ctx)
	if err != nil {
		fmt.Fprintln(a.stderr)
		return a.report(files, err)
	}
	if err := a.report(files, nil); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "key: %s\n", rec.FileName)
	return nil
}

func (a *app) download(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	dir := fs.String("o", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: filedeck download [-o DIR] <name>")
	}
	name := fs.Arg(0)

	files := a.collection()
	defer files.Close()

	blob, err := files.Download(ctx, name)
	if err != nil {
		return a.report(files, err)
	}

	path := filepath.Join(*dir, filepath.Base(name))
	if err := os.WriteFile(path, blob.Data, 0644); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	fmt.Fprintf(a.stdout, "saved %s (%s)\n", path, fileutil.FormatSize(blob.Size()))
	return nil
}

func (a *app) view(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	saveDir := fs.String("save", "", "also write the preview into this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: filedeck view [-save DIR] <name>")
	}

	v := viewer.New(client.New(a.opts), logging.New("viewer"))
	preview, err := v.Load(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintln(a.stdout, viewer.MsgLoadFailed)
		return err
	}

	switch preview.Content.Kind {
	case models.ContentText:
		fmt.Fprintln(a.stdout, preview.Content.Text)
	case models.ContentImage:
		fmt.Fprintf(a.stdout, "%s: image (%s, %s)\n", preview.File.DisplayName(),
			preview.Content.ContentType, fileutil.FormatSize(preview.File.FileSize))
	default:
		fmt.Fprintf(a.stdout, "%s: preview is not available for this file type; use download\n", preview.File.DisplayName())
	}

	if *saveDir != "" {
		path, err := preview.Save(*saveDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "saved %s\n", path)
	}
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: filedeck delete <name>")
	}

	files := a.collection()
	defer files.Close()

	_, err := files.Delete(ctx, args[0])
	return a.report(files, err)
}

func (a *app) watch(ctx context.Context) error {
	if a.opts.Mode == client.ModeOffline {
		return errors.New("watch needs a backend; mode is offline")
	}

	events, err := client.NewLive(a.opts).Watch(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "watching %s\n", a.opts.BaseURL)

	for ev := range events {
		ts := time.UnixMilli(ev.Timestamp)
		fmt.Fprintf(a.stdout, "%s  %-13s  %s (%s)\n",
			fileutil.FormatTime(ts), ev.Type, ev.File.DisplayName(), ev.File.FileName)
	}
	if ctx.Err() != nil {
		return nil
	}
	return errors.New("event stream closed")
}

func (a *app) token(args []string) error {
	subject := "filedeck-cli"
	if len(args) > 0 {
		subject = args[0]
	}

	issuer, err := api.NewTokenIssuer(a.cfg.Security.JWTSecret, a.cfg.GetTokenTTL())
	if err != nil {
		return fmt.Errorf("set security.jwtSecret or JWT_SECRET: %w", err)
	}
	token, expiresAt, err := issuer.GenerateToken(subject)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, token)
	fmt.Fprintf(a.stderr, "expires %s\n", fileutil.FormatTime(expiresAt))
	return nil
}

func (a *app) ui(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	addr := fs.String("addr", a.cfg.Client.UIAddress, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := logging.New("web")
	srv := web.NewServer(client.New(a.opts), web.Options{Logger: logger})
	defer srv.Close()

	e := echo.New()
	e.HideBanner = true
	e.Logger = logging.New("echo")
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(a.cfg.Server.BodyLimit))
	if err := srv.Register(e); err != nil {
		return err
	}

	if a.opts.Mode != client.ModeOffline {
		if events, err := client.NewLive(a.opts).Watch(ctx); err != nil {
			logger.Warnf("live updates unavailable: %v", err)
		} else {
			go srv.Follow(events)
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- e.Start(*addr) }()
	fmt.Fprintf(a.stderr, "filedeck UI on http://%s (backend %s, mode %s)\n", *addr, a.opts.BaseURL, a.opts.Mode)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
