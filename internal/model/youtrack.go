package model

import "time"

// User is a YouTrack user. A user returned by login carries the session
// cookies used to authenticate later requests; a user returned by a lookup
// only carries the username.
type User struct {
	Username string `json:"username"`
	cookies  []string
}

// NewSession creates a logged in user from the Set-Cookie values of a login
// response, in header order.
func NewSession(username string, cookies []string) *User {
	return &User{
		Username: username,
		cookies:  append([]string(nil), cookies...),
	}
}

// Cookies returns a copy of the raw cookie strings of the session.
func (u *User) Cookies() []string {
	if u == nil {
		return nil
	}
	return append([]string(nil), u.cookies...)
}

// IsLoggedIn reports whether the user holds session cookies.
func (u *User) IsLoggedIn() bool {
	return u != nil && len(u.cookies) > 0
}

// Issue represents a YouTrack issue
type Issue struct {
	ID    string `json:"id"`
	State string `json:"state,omitempty"` // only set when a state field was requested
}

// Project represents a YouTrack project
type Project struct {
	ShortName string `json:"shortName"`
}

// Group represents a YouTrack user group
type Group struct {
	Name string `json:"name"`
}

// SingleStateType is the field type whose values come from a state bundle.
const SingleStateType = "state[1]"

// Field represents a custom field prototype
type Field struct {
	Name          string `json:"name"`
	URL           string `json:"url,omitempty"`
	Type          string `json:"type,omitempty"`
	DefaultBundle string `json:"defaultBundle,omitempty"`
}

// IsSingleState reports whether the field takes a single value from a state bundle.
func (f Field) IsSingleState() bool {
	return f.Type == SingleStateType
}

// StateBundle is a named set of workflow states
type StateBundle struct {
	Name   string  `json:"name"`
	URL    string  `json:"url,omitempty"`
	States []State `json:"states"`
}

// State is a single value of a state bundle
type State struct {
	Value string `json:"value"`
}

// BuildBundle is a named set of build numbers
type BuildBundle struct {
	Name string `json:"name"`
}

// Version is the version reported by the server
type Version struct {
	Raw   string   `json:"raw"`
	Parts []string `json:"parts"`
}

// CommandStatus is the outcome of a mutating call
type CommandStatus string

const (
	CommandOK     CommandStatus = "OK"
	CommandFailed CommandStatus = "FAILED"
)

// Command records one mutation sent to the server and its outcome.
type Command struct {
	Status   CommandStatus `json:"status"`
	Response string        `json:"response,omitempty"` // raw server response on failure

	SiteName string    `json:"siteName,omitempty"`
	IssueID  string    `json:"issueId,omitempty"`
	Command  string    `json:"command"`
	Comment  string    `json:"comment,omitempty"`
	RunAs    string    `json:"runAs,omitempty"`
	Username string    `json:"username,omitempty"`
	Silent   bool      `json:"silent"`
	Date     time.Time `json:"date"`
}

// OK reports whether the command succeeded.
func (c Command) OK() bool {
	return c.Status == CommandOK
}
