package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hamed0406/statusnotifier/internal/config"
)

var errPreflight = errors.New("preflight failed")

func newPreflightCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Validate configuration without probing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !preflight(flags.load(), cmd.OutOrStdout(), cmd.ErrOrStderr()) {
				return errPreflight
			}
			return nil
		},
	}
}

// preflight prints one line per check and reports whether all hard checks passed.
func preflight(cfg config.Config, stdout, stderr io.Writer) bool {
	passed := true
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		passed = false
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	if services, err := config.LoadServices(cfg.ServicesPath); err != nil {
		fail(err.Error())
	} else {
		ok(fmt.Sprintf("%s lists %d services", cfg.ServicesPath, len(services)))
	}

	switch {
	case cfg.Mail.Enabled() && cfg.Mail.Sender == "":
		fail("SMTP_HOST is set but SMTP_SENDER is empty.")
	case cfg.Mail.Enabled():
		ok(fmt.Sprintf("mail via %s:%d to %s", cfg.Mail.Host, cfg.Mail.Port, strings.Join(cfg.Mail.Recipients, ",")))
	case cfg.Mail.Host != "":
		warn("SMTP_HOST is set but WARNING_EMAIL_RECIPIENT is empty; mail alerts are off.")
	default:
		warn("SMTP_HOST empty; mail alerts are off.")
	}

	if cfg.Slack.Enabled() {
		ok("Slack webhook present")
	}

	if cfg.SFTP.Enabled() {
		switch {
		case cfg.SFTP.Username == "":
			fail("SFTP_HOST is set but SFTP_USERNAME is empty.")
		case cfg.SFTP.Password == "" && cfg.SFTP.KeyPath == "":
			fail("SFTP needs SFTP_PASSWORD or SFTP_KEY_PATH.")
		default:
			ok(fmt.Sprintf("publishing to %s:%d%s", cfg.SFTP.Host, cfg.SFTP.Port, "/"+strings.TrimPrefix(cfg.SFTP.RemoteDir, "/")))
		}
		if cfg.SFTP.KeyPath != "" {
			if _, err := os.Stat(cfg.SFTP.KeyPath); err != nil {
				fail("SFTP_KEY_PATH unreadable: " + err.Error())
			}
		}
		if cfg.SFTP.KnownHostsPath == "" {
			warn("SFTP_KNOWN_HOSTS empty; the server host key will not be verified.")
		}
	} else {
		warn("SFTP_HOST empty; the status page will not be published.")
	}

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty; snapshots stay in memory.")
	} else {
		ok("DATABASE_URL present")
	}

	switch {
	case len(cfg.PublicAPIKeys) == 0 && len(cfg.AdminAPIKeys) == 0:
		warn("PUBLIC_API_KEYS and ADMIN_API_KEYS empty; the status server is open.")
	case len(cfg.AdminAPIKeys) == 0:
		warn("ADMIN_API_KEYS empty; POST /api/run is refused for every caller.")
	}
	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; any origin may call the status server.")
	}

	if passed {
		ok("preflight passed")
	}
	return passed
}
