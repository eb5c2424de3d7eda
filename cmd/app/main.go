package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"retail-erp/internal/adapters/cli"
	"retail-erp/internal/adapters/repl"
	"retail-erp/internal/bootstrap"
	"retail-erp/internal/config"
	"retail-erp/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// Swapped in tests.
var (
	isTerminal   = term.IsTerminal
	readTerminal = term.ReadPassword
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// The terminal owns stdout, so logs go to stderr unless a file is configured.
	output := cfg.Log.Output
	if output == "" || output == "stdout" {
		output = "stderr"
	}
	log, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: output})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("command failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, nil, log)
	if err != nil {
		return err
	}
	defer rt.Close()
	svc := rt.Service

	reader := bufio.NewReader(os.Stdin)
	email, password := cfg.CLI.Email, cfg.CLI.Password
	if email == "" {
		fmt.Print("Email: ")
		line, _ := reader.ReadString('\n')
		email = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Print("Password: ")
		if password, err = readPassword(reader, int(os.Stdin.Fd())); err != nil {
			return err
		}
	}

	s, err := svc.LoadSession(ctx, "")
	if err != nil {
		return err
	}
	res, err := svc.SignIn(ctx, s, email, password)
	if err != nil {
		return err
	}
	if res.Warning != "" {
		fmt.Fprintln(os.Stderr, res.Warning)
	}
	defer func() {
		if err := svc.SignOut(context.WithoutCancel(ctx), s); err != nil {
			log.Warn("sign out", zap.Error(err))
		}
	}()

	if len(os.Args) > 1 {
		return cli.Run(ctx, svc, s, os.Args[1:], os.Stdout)
	}
	repl.Run(ctx, svc, s, reader, os.Stdout)
	return nil
}

// readPassword reads the password without echo when fd is a terminal, and falls
// back to a plain line read for piped input.
func readPassword(reader *bufio.Reader, fd int) (string, error) {
	if !isTerminal(fd) {
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line), nil
	}
	b, err := readTerminal(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
