package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/google"
	"github.com/teemow/workspace-mcp/internal/permissions"
	"github.com/teemow/workspace-mcp/internal/server"
)

// Resource URIs.
const (
	PermissionsURI = "workspace://permissions"
	LaddersURI     = "workspace://permissions/levels"
)

type permissionsData struct {
	Permissions     string            `json:"permissions"`
	Unrestricted    bool              `json:"unrestricted"`
	Levels          map[string]string `json:"levels,omitempty"`
	GrantedScopes   []string          `json:"granted_scopes,omitempty"`
	RequestedScopes []string          `json:"requested_scopes"`
}

type ladderLevel struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// RegisterPermissionResources registers the resources describing the active
// permission config and the permission ladder of every service.
func RegisterPermissionResources(s *mcpserver.MCPServer, sc *server.ServerContext) {
	current := mcp.NewResource(
		PermissionsURI,
		"Active Permissions",
		mcp.WithResourceDescription("The configured permission levels and the OAuth scopes they grant"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(current, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handlePermissions(request, sc.Permissions())
	})

	ladders := mcp.NewResource(
		LaddersURI,
		"Permission Levels",
		mcp.WithResourceDescription("Every service's permission levels, lowest first, with the scopes each level adds"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(ladders, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleLadders(request)
	})
}

func handlePermissions(request mcp.ReadResourceRequest, cfg *permissions.Config) ([]mcp.ResourceContents, error) {
	allowed, restricted := cfg.AllowedScopes()
	data := permissionsData{
		Permissions:     cfg.String(),
		Unrestricted:    !restricted,
		Levels:          cfg.Levels(),
		RequestedScopes: google.ScopesFor(cfg),
	}
	if restricted {
		data.GrantedScopes = allowed.Sorted()
	}
	return jsonContents(request.Params.URI, data)
}

func handleLadders(request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data := make(map[string][]ladderLevel)
	for _, service := range permissions.Services() {
		for _, level := range permissions.Ladder(service) {
			data[service] = append(data[service], ladderLevel{Name: level.Name, Scopes: level.Scopes})
		}
	}
	return jsonContents(request.Params.URI, data)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
