package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/futurecareers/contestide/internal/jsonrpc"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	var tcpAddr string
	var tcpAllowRemote bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a JSON-RPC 2.0 server for editor integration",
		Long: `Start a JSON-RPC 2.0 server for editor integration.

By default, the server communicates over stdin/stdout using newline-delimited JSON.
An editor drives the contest through the methods below and receives state
changes as notifications (contest.update, execution.update, completion.update,
hint.update, communication.update).

Use --tcp to start a TCP server instead (useful for debugging).
TCP defaults to loopback (127.0.0.1) for security. Use --tcp-allow-remote to bind
to all interfaces.

Supported methods:
  contest.open          Load a contest (contest_id)
  contest.snapshot      Full session state
  contest.close         Stop polling and drop the session
  task.list             Tasks, optionally with survey questions
  task.select           Enter a task (task_id)
  editor.update         Replace the editor text (task_id, text)
  editor.source         Read the editor text (task_id)
  editor.language       Change language before the lock (language)
  execution.run         Run against open tests (task_id)
  execution.submit      Grade against all tests (task_id)
  execution.status      Lane state (task_id, mode)
  hint.request          Reveal a hint tier (task_id, tier)
  hint.state            Hint economy of a task (task_id)
  completion.status     Contest progress (refresh)
  communication.get     Clarification question (task_id, refresh)
  communication.answer  Answer it once (task_id, answer)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, done, err := a.openWorkspace("serve")
			if err != nil {
				return err
			}
			defer done()

			if id, err := a.activeContest(ws); err == nil {
				if _, err := ws.ctrl.Open(cmd.Context(), id); err != nil {
					a.logger.Warn("could not open active contest", "contest", id, "error", err)
				}
			}

			registry := jsonrpc.NewMethodRegistry()
			hctx := jsonrpc.NewHandlerContext(ws.ctrl, a.printer, a.logger)
			jsonrpc.RegisterHandlers(registry, hctx)

			server := jsonrpc.NewServer(registry, a.logger)
			server.OnAttach(hctx.Attach)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if tcpAddr != "" {
				tcpAddr = resolveTCPAddr(tcpAddr, tcpAllowRemote, a.logger)

				listener, err := jsonrpc.NewTCPListener(tcpAddr, server)
				if err != nil {
					return fmt.Errorf("failed to start TCP server: %w", err)
				}
				context.AfterFunc(ctx, func() { _ = listener.Close() })
				fmt.Fprintf(a.errOut, "JSON-RPC server listening on %s\n", listener.Addr()) //nolint:errcheck
				return listener.Serve(ctx)
			}

			fmt.Fprintln(a.errOut, "JSON-RPC server running on stdio") //nolint:errcheck
			server.Serve(ctx, jsonrpc.NewTransport(a.in, a.out))
			return nil
		},
	}

	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "TCP address to listen on (e.g., :9000)")
	cmd.Flags().BoolVar(&tcpAllowRemote, "tcp-allow-remote", false,
		"Allow binding to non-loopback addresses (WARNING: exposes the server to the network with no authentication)")

	return cmd
}

// resolveTCPAddr ensures TCP addresses default to loopback unless --tcp-allow-remote is set.
func resolveTCPAddr(addr string, allowRemote bool, logger *slog.Logger) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// Likely just a port like "9000"; treat as ":9000".
		host = ""
		port = addr
	}

	if allowRemote {
		logger.Warn("TCP server binding to all interfaces - no authentication is provided",
			"address", addr)
		return addr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		logger.Info("JSON-RPC server listening on TCP (local only)")
		return net.JoinHostPort("127.0.0.1", port)
	}

	return addr
}
