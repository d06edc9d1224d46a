// Package mcp serves a pack router's tools over the Model Context Protocol.
//
// # Transports
//
// The same Server drives two transports:
//
//   - stdio, built on the official Go SDK (RunStdio). This is what desktop
//     clients launch as a subprocess.
//   - Streamable HTTP (Handler, ServeHTTP, ServeTailscale), a JSON-only
//     implementation with in-memory sessions.
//
// HTTP endpoints:
//
//   - POST /mcp - JSON-RPC requests (initialize, ping, tools/list, tools/call)
//   - DELETE /mcp - terminate a session
//   - GET /health - liveness
//
// # Tool Results
//
// tools/call never fails at the protocol level. Unknown tools, missing
// arguments and backend failures all come back as a result with isError set:
//
//	{"content":[{"type":"text","text":"Unknown tool: bogus_tool"}],"isError":true}
//
// tools/list returns the catalog in declaration order.
//
// # Authentication
//
// When a verifier is configured, the HTTP transport accepts
//
//	Authorization: Bearer <jwt>
//
// A session created by an authenticated caller can only be used or deleted
// by the same subject. With RequireAuth unset, anonymous requests are served.
// The stdio transport is trusted by construction and never authenticates.
//
// # Usage
//
//	srv, err := mcp.NewServer(mcp.Config{Name: "cloud-mcp", Version: version, Router: router})
//	if err != nil {
//		return err
//	}
//	return srv.RunStdio(ctx)
package mcp
