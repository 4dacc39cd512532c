package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"youtrack_helper/internal/app"
	"youtrack_helper/internal/model"
	"youtrack_helper/internal/updater"
	"youtrack_helper/internal/youtrack"
)

func login(ctx context.Context, a *app.App) (*model.User, error) {
	user, err := a.Client.Login(ctx, a.Site.Username, a.Site.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to log in to %s: %w", a.Client.ServerURL(), err)
	}
	return user, nil
}

func runVersion(ctx context.Context, a *app.App, w io.Writer) error {
	version, err := a.Client.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, version.Raw)
	return nil
}

func runCheck(ctx context.Context, a *app.App, w io.Writer) error {
	if err := a.Client.CheckVersion(ctx); err != nil {
		return err
	}
	if err := a.Client.CheckConnection(ctx, a.Site.Username, a.Site.Password); err != nil {
		return err
	}
	fmt.Fprintf(w, "connected to %s\n", a.Client.ServerURL())
	return nil
}

func runProjects(ctx context.Context, a *app.App, w io.Writer, filter string) error {
	user, err := login(ctx, a)
	if err != nil {
		return err
	}
	projects, err := a.Client.Projects(ctx, user)
	if err != nil {
		return err
	}
	for _, name := range youtrack.MatchProjects(projects, filter) {
		fmt.Fprintln(w, name)
	}
	return nil
}

func runIssue(ctx context.Context, a *app.App, w io.Writer, id, stateField string) error {
	if stateField == "" {
		stateField = a.Site.StateFieldName
	}
	user, err := login(ctx, a)
	if err != nil {
		return err
	}
	issue, err := a.Client.Issue(ctx, user, id, stateField)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\t%s\n", issue.ID, issue.State)
	return nil
}

func runCommand(ctx context.Context, a *app.App, w io.Writer, id, command, comment, runAs string, silent bool) error {
	user, err := login(ctx, a)
	if err != nil {
		return err
	}
	cmd, err := a.Client.ApplyCommand(ctx, user, model.Issue{ID: id}, command, comment, runAs, !(silent || a.Site.SilentCommands))
	fmt.Fprintf(w, "%s\t%s\t%s\n", cmd.Status, id, command)
	if cmd.Response != "" {
		fmt.Fprint(w, cmd.Response)
	}
	return err
}

func runComment(ctx context.Context, a *app.App, w io.Writer, id, text, group string, silent bool) error {
	if group == "" {
		group = a.Site.CommentGroup
	}
	user, err := login(ctx, a)
	if err != nil {
		return err
	}
	if _, err := a.Client.Comment(ctx, user, model.Issue{ID: id}, text, group, silent || a.Site.SilentCommands); err != nil {
		return err
	}
	fmt.Fprintf(w, "commented on %s\n", id)
	return nil
}

func runAddBuild(ctx context.Context, a *app.App, w io.Writer, bundle, build string) error {
	user, err := login(ctx, a)
	if err != nil {
		return err
	}
	if _, err := a.Client.AddBuildToBundle(ctx, user, bundle, build); err != nil {
		return err
	}
	fmt.Fprintf(w, "Added build %s to bundle: %s\n", build, bundle)
	return nil
}

// runUpdateBuild runs the build updater. With checkState only the issues
// whose state is one of the site fixed values are marked.
func runUpdateBuild(ctx context.Context, a *app.App, w io.Writer, update updater.BuildUpdate, checkState bool) error {
	if checkState && len(update.IssueIDs) > 0 {
		user, err := login(ctx, a)
		if err != nil {
			return err
		}
		update.IssueIDs = updater.FixedIssues(ctx, a.Client, user, update.IssueIDs, a.Site.StateFieldName, a.Site.FixedValueList())
	}

	report, err := a.Updater.Run(ctx, update)
	if report != nil && len(report.Lines) > 0 {
		fmt.Fprintln(w, strings.Join(report.Lines, "\n"))
	}
	if err != nil {
		return err
	}
	for _, line := range report.Lines {
		if strings.HasPrefix(line, "FAILED") {
			return fmt.Errorf("build update had failures")
		}
	}
	return nil
}
