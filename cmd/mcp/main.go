// Command mcp serves the Explorer tool surface to MCP clients over stdio.
//
// Exit codes: 0 = client disconnect, 1 = error.
package main

import (
	"context"
	"log"

	"github.com/explorerhq/explorer-backend/internal/app"
	"github.com/explorerhq/explorer-backend/internal/transport/mcp"
)

func main() {
	ctx := context.Background()

	deps, err := app.Setup(ctx)
	if err != nil {
		log.Fatalf("mcp: %v", err)
	}
	defer deps.Close()

	h := mcp.NewHandlers(deps.Users, deps.Collections, deps.Topics, deps.Reports,
		deps.Cfg.Storage.DefaultUserEmail, deps.Log)

	if err := mcp.Run(h, app.BuildVersion()); err != nil {
		log.Fatalf("mcp: %v", err)
	}
}
