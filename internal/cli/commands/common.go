package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/storelane-dev/storelane/internal/cli/auth"
	"github.com/storelane-dev/storelane/internal/cli/client"
	"github.com/storelane-dev/storelane/internal/cli/session"
	"github.com/storelane-dev/storelane/internal/cli/userconfig"
)

// newSessionManager wires the API client and session manager from the user
// config and OS keyring. This is common setup used by every command.
func newSessionManager() (*session.Manager, *client.Client, error) {
	cfg, err := userconfig.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	apiClient, err := client.New(cfg.APIURL, auth.Default)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid API URL: %w\nRun 'storelane use <url>' to point at your server", err)
	}

	return session.NewManager(apiClient, auth.Default), apiClient, nil
}

// ensureAuthenticated resolves the session and admits only signed-in users
func ensureAuthenticated(ctx context.Context, mgr *session.Manager) error {
	if err := mgr.Initialize(ctx); err != nil {
		return err
	}

	switch session.Resolve(mgr.Current(), session.RequireAuthenticated) {
	case session.Proceed:
		return nil
	default:
		return fmt.Errorf("not logged in. Run 'storelane login' first")
	}
}

// ensureAnonymous resolves the session and admits only signed-out users
func ensureAnonymous(ctx context.Context, mgr *session.Manager) error {
	if err := mgr.Initialize(ctx); err != nil {
		return err
	}

	switch session.Resolve(mgr.Current(), session.RequireAnonymous) {
	case session.Proceed:
		return nil
	default:
		state := mgr.Current()
		email := ""
		if state.User != nil {
			email = state.User.Email
		}
		return fmt.Errorf("already logged in as %s. Run 'storelane logout' first", email)
	}
}

// promptLine reads one line from stdin with a label
func promptLine(label string) (string, error) {
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo. Fails in non-interactive
// mode so scripts do not hang on a hidden prompt.
func promptPassword(label string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("%s is required in non-interactive mode", strings.ToLower(label))
	}
	fmt.Printf("%s: ", label)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
