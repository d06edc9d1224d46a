// ABOUTME: Entry point for cloud-mcp, an MCP server exposing cloud tooling to AI assistants
// ABOUTME: Dispatches to serve, tools, token, audit and version subcommands

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const banner = `
       _                 _
   ___| | ___  _   _  __| |      _ __ ___   ___ _ __
  / __| |/ _ \| | | |/ _' |_____| '_ ' _ \ / __| '_ \
 | (__| | (_) | |_| | (_| |_____| | | | | | (__| |_) |
  \___|_|\___/ \__,_|\__,_|     |_| |_| |_|\___| .__/
                                               |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, args)
	case "tools":
		err = runTools(args)
	case "token":
		err = runToken(args)
	case "audit":
		err = runAudit(ctx, args)
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: cloud-mcp <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve --pack NAME       Serve tool packs over stdio (or HTTP with --http)")
	fmt.Fprintln(w, "  tools --pack NAME       Print the tool catalog")
	fmt.Fprintln(w, "  token --subject NAME    Mint a bearer token for the HTTP transport")
	fmt.Fprintln(w, "  audit [summary]         Show recorded tool calls")
	fmt.Fprintln(w, "  version                 Print the version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Packs: devops, portal, demo, database")
}
