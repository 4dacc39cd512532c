// Package updater records a finished build in YouTrack: it adds the build to
// a build bundle and marks the issues fixed by the build.
package updater

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"youtrack_helper/internal/config"
	"youtrack_helper/internal/model"
	"youtrack_helper/internal/notify"
	"youtrack_helper/internal/storage"
	"youtrack_helper/internal/youtrack"
)

// BuildResult is the outcome of a CI build, from best to worst
type BuildResult string

const (
	ResultSuccess  BuildResult = "SUCCESS"
	ResultUnstable BuildResult = "UNSTABLE"
	ResultFailure  BuildResult = "FAILURE"
)

// BuildUpdate describes one finished build
type BuildUpdate struct {
	BuildNumber int         `json:"buildNumber"`
	BuildName   string      `json:"buildName"` // defaults to the build number
	BundleName  string      `json:"bundleName" binding:"required"`
	Result      BuildResult `json:"result"`
	IssueIDs    []string    `json:"issueIds"` // issues fixed by the build

	MarkFixedIfUnstable     bool `json:"markFixedIfUnstable"`
	OnlyAddIfHasFixedIssues bool `json:"onlyAddIfHasFixedIssues"`
	RunSilently             bool `json:"runSilently"`
}

// Name returns the build name, falling back to the build number
func (b BuildUpdate) Name() string {
	if b.BuildName != "" {
		return b.BuildName
	}
	return strconv.Itoa(b.BuildNumber)
}

func (b BuildUpdate) marksFixed() bool {
	switch b.Result {
	case ResultSuccess, "":
		return true
	case ResultUnstable:
		return b.MarkFixedIfUnstable
	}
	return false
}

// Report is what the updater did, one line per step
type Report struct {
	Lines    []string        `json:"lines"`
	Commands []model.Command `json:"commands"`
}

func (r *Report) printf(format string, args ...any) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

// Updater runs build updates against one site
type Updater struct {
	client   *youtrack.Client
	site     config.Site
	store    storage.CommandStore
	notifier notify.Notifier
	log      *zap.Logger
}

// New creates an Updater. A nil store or notifier disables that step.
func New(client *youtrack.Client, site config.Site, store storage.CommandStore, notifier notify.Notifier, log *zap.Logger) *Updater {
	if store == nil {
		store = storage.NewMemoryCommandStore()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Updater{
		client:   client,
		site:     site,
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// Run adds the build to its bundle and, when the build result allows it,
// sets "Fixed in build" on every fixed issue. Failures of single steps are
// reported in the returned Report; only a failure to record the commands is
// returned as an error.
func (u *Updater) Run(ctx context.Context, update BuildUpdate) (*Report, error) {
	report := &Report{Lines: []string{}, Commands: []model.Command{}}

	if update.OnlyAddIfHasFixedIssues && len(update.IssueIDs) == 0 {
		return report, nil
	}

	user, err := u.client.Login(ctx, u.site.Username, u.site.Password)
	if err != nil || !user.IsLoggedIn() {
		report.printf("FAILED: to log in to youtrack")
		u.publish(ctx, update, report)
		return report, nil
	}

	buildName := update.Name()
	added := model.Command{
		Status:   model.CommandFailed,
		SiteName: u.site.Name,
		Command:  fmt.Sprintf("Add build %s to %s", buildName, update.BundleName),
		Username: user.Username,
		Date:     time.Now(),
	}
	if ok, _ := u.client.AddBuildToBundle(ctx, user, update.BundleName, buildName); ok {
		added.Status = model.CommandOK
		report.printf("Added build %s to bundle: %s", buildName, update.BundleName)
	} else {
		report.printf("FAILED: adding build %s to bundle: %s", buildName, update.BundleName)
	}
	report.Commands = append(report.Commands, added)

	if update.marksFixed() {
		command := "Fixed in build " + buildName
		for _, issueID := range update.IssueIDs {
			cmd, _ := u.client.ApplyCommand(ctx, user, model.Issue{ID: issueID}, command, "", "", !update.RunSilently)
			cmd.SiteName = u.site.Name
			if cmd.OK() {
				report.printf("Updated Fixed in build to %s for %s", buildName, issueID)
			} else {
				report.printf("FAILED: updating Fixed in build to %s for %s", buildName, issueID)
			}
			report.Commands = append(report.Commands, cmd)
		}
	}

	u.publish(ctx, update, report)

	if err := u.store.Append(ctx, u.site.Name, buildName, report.Commands...); err != nil {
		u.log.Error("failed to record commands", zap.String("build", buildName), zap.Error(err))
		return report, fmt.Errorf("failed to record commands: %w", err)
	}
	return report, nil
}

func (u *Updater) publish(ctx context.Context, update BuildUpdate, report *Report) {
	for _, line := range report.Lines {
		u.log.Info(line, zap.String("site", u.site.Name), zap.String("build", update.Name()))
	}
	title := fmt.Sprintf("YouTrack update for build %s", update.Name())
	if err := u.notifier.Notify(ctx, title, report.Lines); err != nil {
		u.log.Warn("failed to notify", zap.Error(err))
	}
}

// History returns the commands recorded for a build
func (u *Updater) History(ctx context.Context, buildName string) ([]model.Command, error) {
	return u.store.Commands(ctx, u.site.Name, buildName)
}

// FixedIssues returns the ids whose state, read from stateField, is one of
// fixedValues. Issues that cannot be fetched are skipped.
func FixedIssues(ctx context.Context, client *youtrack.Client, user *model.User, ids []string, stateField string, fixedValues []string) []string {
	fixed := []string{}
	for _, id := range ids {
		issue, err := client.Issue(ctx, user, id, stateField)
		if err != nil || issue == nil {
			continue
		}
		for _, v := range fixedValues {
			if strings.EqualFold(strings.TrimSpace(v), issue.State) {
				fixed = append(fixed, id)
				break
			}
		}
	}
	return fixed
}
