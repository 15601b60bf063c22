package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_ParsesAndDefaults(t *testing.T) {
	t.Setenv("SERVICES_CONFIG_PATH", "/etc/status/services.yaml")
	t.Setenv("LOG_FILE", "/var/log/status.log")
	t.Setenv("PROBE_TIMEOUT_MS", "1234")
	t.Setenv("MAX_CONCURRENT_CHECKS", "7")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("WARNING_EMAIL_RECIPIENT", "ops@example.com, oncall@example.com")
	t.Setenv("SFTP_HOST", "files.example.com")
	t.Setenv("SFTP_REMOTE_DIR", "/srv/www/status")
	t.Setenv("PUBLIC_API_KEYS", "pub_a,pub_b")
	t.Setenv("ADMIN_API_KEYS", " adm_a ")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.5, nonsense")

	cfg := FromEnv()

	if cfg.ServicesPath != "/etc/status/services.yaml" || cfg.LogFile != "/var/log/status.log" {
		t.Fatalf("paths wrong: %+v", cfg)
	}
	if cfg.ProbeTimeout != 1234*time.Millisecond || cfg.Concurrency != 7 {
		t.Fatalf("probe tuning wrong: %v %d", cfg.ProbeTimeout, cfg.Concurrency)
	}
	if !cfg.Mail.Enabled() || cfg.Mail.Port != 2525 || len(cfg.Mail.Recipients) != 2 || cfg.Mail.Recipients[1] != "oncall@example.com" {
		t.Fatalf("mail wrong: %+v", cfg.Mail)
	}
	if !cfg.SFTP.Enabled() || cfg.SFTP.Port != 22 || cfg.SFTP.RemoteDir != "/srv/www/status" {
		t.Fatalf("sftp wrong: %+v", cfg.SFTP)
	}
	if cfg.Slack.Enabled() {
		t.Fatalf("slack should be disabled without a webhook")
	}
	if len(cfg.PublicAPIKeys) != 2 || cfg.PublicAPIKeys[0] != "pub_a" {
		t.Fatalf("public keys wrong: %+v", cfg.PublicAPIKeys)
	}
	if len(cfg.AdminAPIKeys) != 1 || cfg.AdminAPIKeys[0] != "adm_a" {
		t.Fatalf("admin keys wrong: %+v", cfg.AdminAPIKeys)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1].String() != "192.168.1.5/32" {
		t.Fatalf("trusted proxies wrong: %v", cfg.TrustedProxies)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"SERVICES_CONFIG_PATH", "SERICES_CONFIG_PATH", "LOG_FILE", "PROBE_TIMEOUT_MS", "SMTP_HOST", "SFTP_HOST"} {
		t.Setenv(k, "")
	}
	t.Setenv("MAX_CONCURRENT_CHECKS", "-3")

	cfg := FromEnv()
	if cfg.ServicesPath != "services.json" || cfg.LogFile != "status.log" {
		t.Fatalf("default paths wrong: %+v", cfg)
	}
	if cfg.ProbeTimeout != 10*time.Second || cfg.Concurrency != 0 {
		t.Fatalf("defaults wrong: %v %d", cfg.ProbeTimeout, cfg.Concurrency)
	}
	if cfg.Mail.Enabled() || cfg.SFTP.Enabled() {
		t.Fatalf("side channels should be disabled by default")
	}
}

func TestFromEnv_LegacyServicesKey(t *testing.T) {
	t.Setenv("SERVICES_CONFIG_PATH", "")
	t.Setenv("SERICES_CONFIG_PATH", "legacy.json")
	if got := FromEnv().ServicesPath; got != "legacy.json" {
		t.Fatalf("legacy key ignored, got %q", got)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, ".env")
	if err := os.WriteFile(f, []byte("SMTP_HOST=from-file\nSFTP_HOST=sftp-from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SMTP_HOST", "from-env")
	t.Setenv("SFTP_HOST", "")
	os.Unsetenv("SFTP_HOST")

	loaded := LoadDotEnv(f, filepath.Join(dir, "missing.env"))
	if len(loaded) != 1 {
		t.Fatalf("want one loaded file, got %v", loaded)
	}
	if os.Getenv("SMTP_HOST") != "from-env" {
		t.Fatalf("process env must win, got %q", os.Getenv("SMTP_HOST"))
	}
	if os.Getenv("SFTP_HOST") != "sftp-from-file" {
		t.Fatalf("missing key should come from file, got %q", os.Getenv("SFTP_HOST"))
	}
}
