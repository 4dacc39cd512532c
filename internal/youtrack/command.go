package youtrack

import (
	"context"
	"net/http"
	"time"

	"youtrack_helper/internal/model"
)

// CommandBody builds the form body of an execute request. The command and
// comment are percent-encoded; runAs is sent verbatim.
func CommandBody(command, comment, runAs string, notify bool) string {
	body := "command=" + PercentEncode(command)
	if comment != "" {
		body += "&comment=" + PercentEncode(comment)
	}
	if runAs != "" {
		body += "&runAs=" + runAs
	}
	if !notify {
		body += "&disableNotifications=true"
	}
	return body
}

// CommentBody builds the form body of a comment request. Text and group
// are sent verbatim.
func CommentBody(text, group string, silent bool) string {
	body := "comment=" + text
	if group != "" {
		body += "&group=" + group
	}
	if silent {
		body += "&disableNotifications=true"
	}
	return body
}

// ApplyCommand applies command to issue as user. comment and runAs are
// optional; when notify is false watchers are not notified. The returned
// command is FAILED, with the server response attached, unless the server
// answered 200.
func (c *Client) ApplyCommand(ctx context.Context, user *model.User, issue model.Issue, command, comment, runAs string, notify bool) (model.Command, error) {
	const op = "apply command"

	cmd := model.Command{
		Status:  model.CommandFailed,
		IssueID: issue.ID,
		Command: command,
		Comment: comment,
		RunAs:   runAs,
		Silent:  !notify,
		Date:    time.Now(),
	}
	if user != nil {
		cmd.Username = user.Username
	}

	resp, err := c.do(ctx, http.MethodPost, "/rest/issue/"+issue.ID+"/execute", user, form(CommandBody(command, comment, runAs, notify)))
	if err != nil {
		e := transportError(op, err)
		c.warn(e)
		return cmd, e
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e := statusError(op, resp.StatusCode)
		e.Response = readLines(resp.Body)
		cmd.Response = e.Response
		c.warn(e)
		return cmd, e
	}
	cmd.Status = model.CommandOK
	return cmd, nil
}

// Comment adds a comment to issue, visible to group when group is set. When
// silent is true watchers are not notified.
func (c *Client) Comment(ctx context.Context, user *model.User, issue model.Issue, text, group string, silent bool) (bool, error) {
	const op = "comment"

	resp, err := c.do(ctx, http.MethodPost, "/rest/issue/"+issue.ID+"/execute", user, form(CommentBody(text, group, silent)))
	if err != nil {
		e := transportError(op, err)
		c.warn(e)
		return false, e
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e := statusError(op, resp.StatusCode)
		c.warn(e)
		return false, e
	}
	return true, nil
}

// BuildBundlePath returns the path that adds build to bundle.
func BuildBundlePath(bundle, build string) string {
	return "/rest/admin/customfield/buildBundle/" + PathEncode(bundle) + "/" + PathEncode(build)
}

// AddBuildToBundle adds a build called build to the build bundle called
// bundle. It succeeds only when the server answers 201 Created.
func (c *Client) AddBuildToBundle(ctx context.Context, user *model.User, bundle, build string) (bool, error) {
	const op = "add build to bundle"

	resp, err := c.do(ctx, http.MethodPut, BuildBundlePath(bundle, build), user, form(""))
	if err != nil {
		e := transportError(op, err)
		c.warn(e)
		return false, e
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		e := statusError(op, resp.StatusCode)
		c.warn(e)
		return false, e
	}
	return true, nil
}
