package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/yaq1n0/godownloader"
	"github.com/yaq1n0/godownloader/backends"
	"github.com/yaq1n0/godownloader/internal/command"
	"github.com/yaq1n0/godownloader/internal/store"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:  "godl",
		Usage: "download one or more URLs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "target",
				Value: ".",
				Usage: "save downloaded files to `DIR`",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("nothing to download")
			}
			registry := backends.NewRegistry(command.NewRunner(logger), logger)
			orch := godownloader.NewOrchestrator(registry, logger)
			st := store.New(c.String("target"), logger)
			for _, rawURL := range c.Args().Slice() {
				if err := fetch(ctx, orch, st, rawURL, logger.Sugar()); err != nil {
					return err
				}
			}
			return nil
		},
		HideHelpCommand: true,
	}

	result := make(chan error, 1)
	go func() { result <- app.RunContext(ctx, os.Args) }()

	select {
	case err = <-result:
		if err != nil {
			logger.Fatal(err.Error())
		}
	case <-ctx.Done():
		logger.Error(ctx.Err().Error())
		stop()
	}
}

func fetch(ctx context.Context, orch *godownloader.Orchestrator, st *store.Store, rawURL string, logger *zap.SugaredLogger) error {
	d, err := orch.Run(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("download of %s failed: %w", rawURL, err)
	}
	defer d.Close()

	files := d.Files()
	if len(files) == 0 {
		return godownloader.ErrNoArtifact
	}
	for _, source := range files {
		if err := persist(st, source); err != nil {
			return err
		}
	}
	logger.Infof("saved %d file(s) via %s", len(files), d.Backend)
	return nil
}

// persist copies one downloaded file into the target directory with a
// progress bar, leaving collision handling to the store.
func persist(st *store.Store, source string) error {
	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return err
	}

	dst, dest, err := st.Create(filepath.Base(source))
	if err != nil {
		return err
	}
	bar := progressbar.DefaultBytes(info.Size(), filepath.Base(dest))
	if _, err := io.Copy(io.MultiWriter(dst, bar), src); err != nil {
		dst.Close()
		os.Remove(dest)
		return err
	}
	return dst.Close()
}
