package youtrack

import (
	"context"
	"io"
	"regexp"
	"strings"

	"youtrack_helper/internal/model"
)

// list fetches a list document and decodes it with s. The returned slice is
// never nil.
func list[T any](ctx context.Context, c *Client, op, path string, user *model.User, s *shape[T]) ([]T, error) {
	var items []T
	err := c.get(ctx, op, path, user, func(r io.Reader) error {
		var err error
		items, err = decodeList(r, s)
		return err
	})
	if err != nil {
		c.warn(err)
		return []T{}, err
	}
	return items, nil
}

// Groups returns all user groups.
func (c *Client) Groups(ctx context.Context, user *model.User) ([]model.Group, error) {
	return list(ctx, c, "get groups", "/rest/admin/group", user, groupList)
}

// Fields returns all custom field prototypes.
func (c *Client) Fields(ctx context.Context, user *model.User) ([]model.Field, error) {
	return list(ctx, c, "get fields", "/rest/admin/customfield/field/", user, fieldList)
}

// Projects returns all projects visible to user.
func (c *Client) Projects(ctx context.Context, user *model.User) ([]model.Project, error) {
	return list(ctx, c, "get projects", "/rest/project/all", user, projectList)
}

// BuildBundles returns all build bundles.
func (c *Client) BuildBundles(ctx context.Context, user *model.User) ([]model.BuildBundle, error) {
	return list(ctx, c, "get build bundles", "/rest/admin/customfield/buildBundle", user, buildBundleList)
}

// StateBundles returns the names of all state bundles, without their states.
func (c *Client) StateBundles(ctx context.Context, user *model.User) ([]model.StateBundle, error) {
	return list(ctx, c, "get state bundles", "/rest/admin/customfield/stateBundle", user, stateBundleList)
}

// Field returns the custom field prototype called name.
func (c *Client) Field(ctx context.Context, user *model.User, name string) (*model.Field, error) {
	const op = "get field"
	path := "/rest/admin/customfield/field/" + name
	field := &model.Field{Name: name, URL: c.serverURL + path}
	err := c.get(ctx, op, path, user, func(r io.Reader) error {
		return decodeOne(r, fieldOne, field)
	})
	if err != nil {
		c.warn(err)
		return nil, err
	}
	return field, nil
}

// StateBundle returns the state bundle called name with its states.
func (c *Client) StateBundle(ctx context.Context, user *model.User, name string) (*model.StateBundle, error) {
	const op = "get state bundle"
	path := "/rest/admin/customfield/stateBundle/" + name
	bundle := &model.StateBundle{Name: name, URL: c.serverURL + path, States: []model.State{}}
	err := c.get(ctx, op, path, user, func(r io.Reader) error {
		return decodeOne(r, stateBundleOne, bundle)
	})
	if err != nil {
		c.warn(err)
		return nil, err
	}
	return bundle, nil
}

// StateBundleForField returns the default bundle of the field called
// fieldName. Only single state fields have one; for any other field type nil
// is returned without error and no bundle is requested.
func (c *Client) StateBundleForField(ctx context.Context, user *model.User, fieldName string) (*model.StateBundle, error) {
	field, err := c.Field(ctx, user, fieldName)
	if err != nil {
		return nil, err
	}
	if !field.IsSingleState() {
		return nil, nil
	}
	return c.StateBundle(ctx, user, field.DefaultBundle)
}

// Issue returns the issue with the given id. When stateField is not empty
// the value of that field is filled in as the issue state.
func (c *Client) Issue(ctx context.Context, user *model.User, id, stateField string) (*model.Issue, error) {
	issue := &model.Issue{}
	err := c.get(ctx, "get issue", "/rest/issue/"+id, user, func(r io.Reader) error {
		return decodeOne(r, issueShape(stateField), issue)
	})
	if err != nil {
		c.warn(err)
		return nil, err
	}
	return issue, nil
}

// UserByEmail returns the first user matching email, or nil when there is
// none.
func (c *Client) UserByEmail(ctx context.Context, user *model.User, email string) (*model.User, error) {
	found := &model.User{}
	err := c.get(ctx, "get user", "/rest/admin/user?q="+email, user, func(r io.Reader) error {
		return decodeOne(r, userRef, found)
	})
	if err != nil {
		c.warn(err)
		return nil, err
	}
	if found.Username == "" {
		return nil, nil
	}
	return found, nil
}

// Version returns the version reported by the server. The request is sent
// without a session.
//
// Parts splits the raw version on literal dots. Earlier releases split on
// the pattern "." which matches every character and always produced no
// parts; LegacySplitVersion keeps that result for callers relying on it.
func (c *Client) Version(ctx context.Context) (*model.Version, error) {
	version := &model.Version{}
	err := c.get(ctx, "get version", "/rest/workflow/version", nil, func(r io.Reader) error {
		return decodeOne(r, versionOne, version)
	})
	if err != nil {
		c.warn(err)
		return nil, err
	}
	version.Parts = SplitVersion(version.Raw)
	return version, nil
}

// SplitVersion splits a version such as "2021.1.3" on literal dots.
func SplitVersion(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ".")
}

var anyChar = regexp.MustCompile(".")

// LegacySplitVersion splits raw on the regular expression "." and drops
// trailing empty strings. Every character is a separator, so the result is
// empty for any input without line breaks.
func LegacySplitVersion(raw string) []string {
	parts := anyChar.Split(raw, -1)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
