package main

import (
	"context"
	"log"
	"os"

	cli "github.com/jawher/mow.cli"

	"youtrack_helper/internal/app"
	"youtrack_helper/internal/config"
	"youtrack_helper/internal/logger"
	"youtrack_helper/internal/updater"
)

func main() {
	cliApp := cli.App("youtrack", "Work with a YouTrack server from the command line")
	siteName := cliApp.String(cli.StringOpt{
		Name:   "s site",
		Desc:   "site to use, from SITES_FILE",
		EnvVar: "YOUTRACK_SITE_NAME",
	})

	// open builds the app for the selected site, exiting on failure
	open := func() *app.App {
		cfg, err := config.Load()
		if err != nil {
			log.Println(err)
			cli.Exit(1)
		}
		if err := logger.Init(cfg.LogLevel); err != nil {
			log.Println(err)
			cli.Exit(1)
		}
		a, err := app.New(context.Background(), cfg, *siteName, logger.GetLogger())
		if err != nil {
			log.Println(err)
			cli.Exit(1)
		}
		return a
	}

	// exitOn reports err and exits with status 1
	exitOn := func(err error) {
		if err != nil {
			log.Println(err)
			logger.Sync()
			cli.Exit(1)
		}
		logger.Sync()
	}

	cliApp.Command("version", "Print the server version", func(cmd *cli.Cmd) {
		cmd.Action = func() {
			exitOn(runVersion(context.Background(), open(), os.Stdout))
		}
	})

	cliApp.Command("check", "Check that the server is reachable and the credentials work", func(cmd *cli.Cmd) {
		cmd.Action = func() {
			exitOn(runCheck(context.Background(), open(), os.Stdout))
		}
	})

	cliApp.Command("projects", "List project short names", func(cmd *cli.Cmd) {
		cmd.Spec = "[--filter]"
		filter := cmd.StringOpt("filter", "", "only list projects containing this text")
		cmd.Action = func() {
			exitOn(runProjects(context.Background(), open(), os.Stdout, *filter))
		}
	})

	cliApp.Command("issue", "Print an issue and its state", func(cmd *cli.Cmd) {
		cmd.Spec = "[--state-field] ID"
		stateField := cmd.StringOpt("state-field", "", "field holding the state, defaults to the site setting")
		id := cmd.StringArg("ID", "", "issue id")
		cmd.Action = func() {
			exitOn(runIssue(context.Background(), open(), os.Stdout, *id, *stateField))
		}
	})

	cliApp.Command("command", "Apply a command to an issue", func(cmd *cli.Cmd) {
		cmd.Spec = "[--comment] [--run-as] [--silent] ID COMMAND"
		comment := cmd.StringOpt("comment", "", "comment added with the command")
		runAs := cmd.StringOpt("run-as", "", "login to run the command as")
		silent := cmd.BoolOpt("silent", false, "do not notify watchers")
		id := cmd.StringArg("ID", "", "issue id")
		command := cmd.StringArg("COMMAND", "", "command text")
		cmd.Action = func() {
			exitOn(runCommand(context.Background(), open(), os.Stdout, *id, *command, *comment, *runAs, *silent))
		}
	})

	cliApp.Command("comment", "Comment on an issue", func(cmd *cli.Cmd) {
		cmd.Spec = "[--group] [--silent] ID TEXT"
		group := cmd.StringOpt("group", "", "group the comment is visible to, defaults to the site setting")
		silent := cmd.BoolOpt("silent", false, "do not notify watchers")
		id := cmd.StringArg("ID", "", "issue id")
		text := cmd.StringArg("TEXT", "", "comment text")
		cmd.Action = func() {
			exitOn(runComment(context.Background(), open(), os.Stdout, *id, *text, *group, *silent))
		}
	})

	cliApp.Command("add-build", "Add a build to a build bundle", func(cmd *cli.Cmd) {
		cmd.Spec = "BUNDLE BUILD"
		bundle := cmd.StringArg("BUNDLE", "", "build bundle name")
		build := cmd.StringArg("BUILD", "", "build name")
		cmd.Action = func() {
			exitOn(runAddBuild(context.Background(), open(), os.Stdout, *bundle, *build))
		}
	})

	cliApp.Command("update-build", "Add a finished build to its bundle and mark the issues it fixes", func(cmd *cli.Cmd) {
		cmd.Spec = "[--name] [--result] [--mark-unstable] [--only-with-issues] [--silent] [--check-state] BUNDLE NUMBER [ISSUES...]"
		name := cmd.StringOpt("name", "", "build name, defaults to the build number")
		result := cmd.StringOpt("result", string(updater.ResultSuccess), "build result: SUCCESS, UNSTABLE or FAILURE")
		markUnstable := cmd.BoolOpt("mark-unstable", false, "mark issues fixed for unstable builds too")
		onlyWithIssues := cmd.BoolOpt("only-with-issues", false, "do nothing when no issue is given")
		silent := cmd.BoolOpt("silent", false, "do not notify watchers")
		checkState := cmd.BoolOpt("check-state", false, "only mark issues whose state is one of the site fixed values")
		bundle := cmd.StringArg("BUNDLE", "", "build bundle name")
		number := cmd.IntArg("NUMBER", 0, "build number")
		issues := cmd.StringsArg("ISSUES", nil, "ids of the issues fixed by the build")
		cmd.Action = func() {
			update := updater.BuildUpdate{
				BuildNumber:             *number,
				BuildName:               *name,
				BundleName:              *bundle,
				Result:                  updater.BuildResult(*result),
				IssueIDs:                *issues,
				MarkFixedIfUnstable:     *markUnstable,
				OnlyAddIfHasFixedIssues: *onlyWithIssues,
				RunSilently:             *silent,
			}
			exitOn(runUpdateBuild(context.Background(), open(), os.Stdout, update, *checkState))
		}
	})

	if err := cliApp.Run(os.Args); err != nil {
		log.Println(err)
		cli.Exit(1)
	}
}
