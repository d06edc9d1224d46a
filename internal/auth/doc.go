// Package auth provides bearer-token authentication for the HTTP transport.
//
// # Tokens
//
// Clients present HS256-signed JWTs in the Authorization header:
//
//	Authorization: Bearer <token>
//
// Tokens carry a "sub" claim naming the caller and must carry "exp". The
// signing secret comes from auth.jwt_secret (or CLOUD_MCP_JWT_SECRET) and
// must be at least MinSecretLength bytes. `cloud-mcp token --subject NAME`
// mints a token with the same secret.
//
// # Middleware
//
// HTTPAuthMiddleware verifies the token and stores an Identity in the request
// context; handlers read it back with FromContext. With required=false,
// requests that send no Authorization header are served anonymously.
//
// The stdio transport is never authenticated: the process that spawned the
// server already owns it.
package auth
