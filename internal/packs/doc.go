// Package packs binds tool descriptors to handlers and dispatches calls.
//
// # Overview
//
// A pack is the set of tools one backend adapter serves: Azure DevOps,
// Azure Resource Manager, the demo API, or the read-only database. Packs
// are registered once at startup; the registry and router are read-only
// afterwards and safe for concurrent use.
//
// # Tool Routing
//
// When a client calls a tool, the router:
//
//  1. Looks up the tool by exact name in the registry
//  2. Checks that every required argument is present and non-null
//  3. Invokes the handler under a per-call timeout
//  4. Wraps the value or error in a text result envelope
//
// Failures never surface as protocol errors. They come back as results
// with IsError set and text of the form:
//
//	Unknown tool: <name>
//	Missing required argument: <field>
//	Error executing <tool>: <message>
//
// # Usage
//
//	registry := packs.NewRegistry(logger)
//	_ = registry.RegisterPack(devops.NewPack(cli))
//	router := packs.NewRouter(packs.RouterConfig{Registry: registry, Logger: logger})
//	result := router.Dispatch(ctx, packs.Request{ToolName: "list_builds", Arguments: args})
package packs
