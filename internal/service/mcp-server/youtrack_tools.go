package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"youtrack_helper/internal/config"
	"youtrack_helper/internal/model"
	"youtrack_helper/internal/youtrack"
)

type tools struct {
	client *youtrack.Client
	site   config.Site
	log    *zap.Logger
}

// registerYouTrackTools registers all YouTrack tools with the server
func registerYouTrackTools(s *server.MCPServer, t *tools) error {
	if t.log == nil {
		t.log = zap.NewNop()
	}

	getIssueTool := mcp.NewTool("get_issue",
		mcp.WithDescription("Get a YouTrack issue and its state"),
		mcp.WithString("issue_id",
			mcp.Required(),
			mcp.Description("YouTrack issue id (e.g., 'JT-123')"),
		),
		mcp.WithString("state_field",
			mcp.Description("Name of the field holding the issue state"),
		),
	)

	listProjectsTool := mcp.NewTool("list_projects",
		mcp.WithDescription("List the short names of all YouTrack projects"),
		mcp.WithString("filter",
			mcp.Description("Only return projects whose short name contains this text"),
		),
	)

	applyCommandTool := mcp.NewTool("apply_command",
		mcp.WithDescription("Apply a YouTrack command to an issue"),
		mcp.WithString("issue_id",
			mcp.Required(),
			mcp.Description("YouTrack issue id"),
		),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command to apply (e.g., 'Fixed in build 42')"),
		),
		mcp.WithString("comment",
			mcp.Description("Comment added with the command"),
		),
		mcp.WithBoolean("silent",
			mcp.Description("Do not notify watchers"),
		),
	)

	addCommentTool := mcp.NewTool("add_comment",
		mcp.WithDescription("Add a comment to a YouTrack issue"),
		mcp.WithString("issue_id",
			mcp.Required(),
			mcp.Description("YouTrack issue id"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Comment text"),
		),
		mcp.WithString("group",
			mcp.Description("Group the comment is visible to"),
		),
	)

	addBuildTool := mcp.NewTool("add_build_to_bundle",
		mcp.WithDescription("Add a build to a YouTrack build bundle"),
		mcp.WithString("bundle",
			mcp.Required(),
			mcp.Description("Build bundle name"),
		),
		mcp.WithString("build",
			mcp.Required(),
			mcp.Description("Build name"),
		),
	)

	getVersionTool := mcp.NewTool("get_version",
		mcp.WithDescription("Get the version of the YouTrack server"),
	)

	s.AddTool(getIssueTool, t.handleGetIssue)
	s.AddTool(listProjectsTool, t.handleListProjects)
	s.AddTool(applyCommandTool, t.handleApplyCommand)
	s.AddTool(addCommentTool, t.handleAddComment)
	s.AddTool(addBuildTool, t.handleAddBuild)
	s.AddTool(getVersionTool, t.handleGetVersion)

	return nil
}

// login opens a session for one tool call
func (t *tools) login(ctx context.Context) (*model.User, error) {
	user, err := t.client.Login(ctx, t.site.Username, t.site.Password)
	if err != nil {
		t.log.Error("failed to log in", zap.String("site", t.site.Name), zap.Error(err))
		return nil, fmt.Errorf("failed to log in to youtrack: %w", err)
	}
	return user, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (t *tools) handleGetIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stateField := request.GetString("state_field", t.site.StateFieldName)

	user, err := t.login(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	issue, err := t.client.Issue(ctx, user, issueID, stateField)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(issue)
}

func (t *tools) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := t.login(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	projects, err := t.client.Projects(ctx, user)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(youtrack.MatchProjects(projects, request.GetString("filter", "")))
}

func (t *tools) handleApplyCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	comment := request.GetString("comment", "")
	silent := request.GetBool("silent", t.site.SilentCommands)

	user, err := t.login(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cmd, _ := t.client.ApplyCommand(ctx, user, model.Issue{ID: issueID}, command, comment, "", !silent)
	cmd.SiteName = t.site.Name
	if !cmd.OK() {
		return mcp.NewToolResultError(fmt.Sprintf("command %q failed on %s: %s", command, issueID, cmd.Response)), nil
	}
	return jsonResult(cmd)
}

func (t *tools) handleAddComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	group := request.GetString("group", t.site.CommentGroup)

	user, err := t.login(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := t.client.Comment(ctx, user, model.Issue{ID: issueID}, text, group, t.site.SilentCommands); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("comment added to " + issueID), nil
}

func (t *tools) handleAddBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bundle, err := request.RequireString("bundle")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	build, err := request.RequireString("build")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	user, err := t.login(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := t.client.AddBuildToBundle(ctx, user, bundle, build); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added build %s to bundle: %s", build, bundle)), nil
}

func (t *tools) handleGetVersion(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	version, err := t.client.Version(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(version)
}
