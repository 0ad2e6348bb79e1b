package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	kerrors "github.com/ethan-huo/env/internal/errors"
	"github.com/ethan-huo/env/internal/ui"

	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// spinner.FinalMSG values do not need trailing newlines. The cleanup function
// calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	// Ignore color errors, the spinner works without.
	_ = s.Color("cyan")

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("%s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// formatError renders an error with a hint for the failures users can fix.
func formatError(err error) string {
	msg := ui.Error.Sprint("✗") + " " + err.Error()

	switch {
	case errors.Is(err, kerrors.ErrNothingToSync):
		return msg + "\n" + ui.Info.Sprint("→") + " Add a " + ui.Code.Sprint("[sync]") + " or " +
			ui.Code.Sprint("[typegen]") + " section to env.config.toml"

	case errors.Is(err, kerrors.ErrEnvMappingRequired):
		return msg + "\n" + ui.Info.Sprint("→") + " Map local envs to worker envs, e.g. " +
			ui.Code.Sprint(`envMapping = { dev = "staging", prod = "production" }`)

	case kerrors.IsConfigError(err):
		return msg + "\n" + ui.Info.Sprint("→") + " Fix the configuration and run again; nothing was synced"

	case errors.Is(err, kerrors.ErrPrivateKeyNotFound):
		return msg + "\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("env init") +
			" to link ~/.env.keys, or set the DOTENV_PRIVATE_KEY_* variable"

	case errors.Is(err, kerrors.ErrFileNotFound):
		return msg + "\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("env init") + " to create the env files"

	case errors.Is(err, kerrors.ErrUnknownEnv):
		return msg + "\n" + ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("-e dev") + ", " +
			ui.Flag.Sprint("-e prod") + " or " + ui.Flag.Sprint("-e all")

	case errors.Is(err, kerrors.ErrGitHubToken):
		return msg + "\n" + ui.Info.Sprint("→") + " Export a token with the repo scope, e.g. " +
			ui.Code.Sprint("GH_TOKEN=$(gh auth token)")

	case errors.Is(err, kerrors.ErrRemoteCommand):
		return msg + "\n" + ui.Info.Sprint("→") + " Rerun with " + ui.Flag.Sprint("--debug") + " for details"

	default:
		return msg
	}
}
