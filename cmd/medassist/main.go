package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"

	"github.com/medportal/medassist/internal/config"
	"github.com/medportal/medassist/internal/version"
)

func main() {
	if err := loadDotenv(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: .env:", err)
	}

	if err := config.InjectCredentials(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: stored credentials:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Flow errors are printed by the command itself.
	errorHandler := func(w io.Writer, styles fang.Styles, err error) {
		var reported *reportedError
		if errors.As(err, &reported) {
			return
		}
		fang.DefaultErrorHandler(w, styles, err)
	}

	err := fang.Execute(ctx, newRootCmd(),
		fang.WithVersion(version.Version),
		fang.WithErrorHandler(errorHandler),
	)
	if err != nil {
		stop()
		os.Exit(exitCode(err))
	}
}

// loadDotenv loads environment files, .env by default. A missing file is
// not an error.
func loadDotenv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
