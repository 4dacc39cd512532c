package youtrack

import (
	"context"
	"fmt"
	"strings"

	"youtrack_helper/internal/model"
)

// CheckConnection verifies that username can log in. An empty username is
// accepted without contacting the server.
func (c *Client) CheckConnection(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	if _, err := c.Login(ctx, username, password); err != nil {
		return fmt.Errorf("could not login with given options: %w", err)
	}
	return nil
}

// CheckVersion verifies that the server reports a version, which only 4.x
// and later servers do.
func (c *Client) CheckVersion(ctx context.Context) error {
	if _, err := c.Version(ctx); err != nil {
		return fmt.Errorf("could not get version, maybe because version is below 4.x: %w", err)
	}
	return nil
}

func match[T any](items []T, name func(T) string, value string) []string {
	value = strings.ToLower(value)
	names := []string{}
	for _, item := range items {
		n := name(item)
		if strings.Contains(strings.ToLower(n), value) {
			names = append(names, n)
		}
	}
	return names
}

// MatchProjects returns the short names containing value, ignoring case.
func MatchProjects(projects []model.Project, value string) []string {
	return match(projects, func(p model.Project) string { return p.ShortName }, value)
}

// MatchGroups returns the group names containing value, ignoring case.
func MatchGroups(groups []model.Group, value string) []string {
	return match(groups, func(g model.Group) string { return g.Name }, value)
}

// MatchFields returns the field names containing value, ignoring case.
func MatchFields(fields []model.Field, value string) []string {
	return match(fields, func(f model.Field) string { return f.Name }, value)
}

// MatchBuildBundles returns the bundle names containing value, ignoring case.
func MatchBuildBundles(bundles []model.BuildBundle, value string) []string {
	return match(bundles, func(b model.BuildBundle) string { return b.Name }, value)
}

// MatchStates returns the state values of bundle containing value, ignoring
// case. A nil bundle has no states.
func MatchStates(bundle *model.StateBundle, value string) []string {
	if bundle == nil {
		return []string{}
	}
	return match(bundle.States, func(s model.State) string { return s.Value }, value)
}
