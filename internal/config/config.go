package config

import (
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServicesPath string        // services file, JSON or YAML
	LogFile      string        // append-only audit log
	LogFileMaxMB int           // rotate the audit log past this size; 0 never rotates
	LogDir       string        // diagnostics directory; empty logs to stderr only
	LogLevel     string        // debug|info|warn|error
	ProbeTimeout time.Duration // per-probe HTTP timeout
	Concurrency  int           // max in-flight probes; 0 is unbounded
	DiagnoseDNS  bool          // DNS lookup for offline endpoints

	Mail  Mail
	Slack Slack
	SFTP  SFTP

	DatabaseURL string // optional snapshot store

	Addr           string // status server bind address
	PublicAPIKeys  []string
	AdminAPIKeys   []string // may trigger POST /api/run
	AllowedOrigins []string
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
	TrustedProxies []netip.Prefix // peers whose X-Forwarded-For is honoured
}

type Mail struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Sender     string
	Recipients []string
}

func (m Mail) Enabled() bool { return m.Host != "" && len(m.Recipients) > 0 }

type Slack struct {
	Webhook string
}

func (s Slack) Enabled() bool { return s.Webhook != "" }

type SFTP struct {
	Host           string
	Port           int
	Username       string
	Password       string
	KeyPath        string
	KnownHostsPath string
	RemoteDir      string
	Timeout        time.Duration
}

func (s SFTP) Enabled() bool { return s.Host != "" }

// LoadDotEnv reads .env into the process environment when present.
// Existing variables win.
func LoadDotEnv(files ...string) []string {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	return loaded
}

func FromEnv() Config {
	// older deployments used the misspelled key
	services := getEnv("SERVICES_CONFIG_PATH", getEnv("SERICES_CONFIG_PATH", "services.json"))

	return Config{
		ServicesPath: services,
		LogFile:      getEnv("LOG_FILE", "status.log"),
		LogFileMaxMB: getInt("LOG_FILE_MAX_MB", 0, 0),
		LogDir:       os.Getenv("LOG_DIR"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
		ProbeTimeout: getMillis("PROBE_TIMEOUT_MS", 10*time.Second),
		Concurrency:  getInt("MAX_CONCURRENT_CHECKS", 0, 0),
		DiagnoseDNS:  getBool("DIAGNOSE_DNS", true),

		Mail: Mail{
			Host:       os.Getenv("SMTP_HOST"),
			Port:       getInt("SMTP_PORT", 587, 1),
			Username:   os.Getenv("SMTP_USERNAME"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			Sender:     os.Getenv("SMTP_SENDER"),
			Recipients: splitList(os.Getenv("WARNING_EMAIL_RECIPIENT")),
		},
		Slack: Slack{Webhook: os.Getenv("SLACK_WEBHOOK_URL")},
		SFTP: SFTP{
			Host:           os.Getenv("SFTP_HOST"),
			Port:           getInt("SFTP_PORT", 22, 1),
			Username:       os.Getenv("SFTP_USERNAME"),
			Password:       os.Getenv("SFTP_PASSWORD"),
			KeyPath:        os.Getenv("SFTP_KEY_PATH"),
			KnownHostsPath: os.Getenv("SFTP_KNOWN_HOSTS"),
			RemoteDir:      getEnv("SFTP_REMOTE_DIR", "."),
			Timeout:        getMillis("SFTP_TIMEOUT_MS", 15*time.Second),
		},

		DatabaseURL: os.Getenv("DATABASE_URL"),

		Addr:           getEnv("API_ADDR", "127.0.0.1:8080"),
		PublicAPIKeys:  splitList(os.Getenv("PUBLIC_API_KEYS")),
		AdminAPIKeys:   splitList(os.Getenv("ADMIN_API_KEYS")),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		PublicRPM:      getInt("PUBLIC_RPM", 120, 0),
		PublicBurst:    getInt("PUBLIC_BURST", 60, 1),
		AdminRPM:       getInt("ADMIN_RPM", 6, 0),
		AdminBurst:     getInt("ADMIN_BURST", 2, 1),
		TrustedProxies: getPrefixes("TRUSTED_PROXIES"),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def, min int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= min {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func getMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

// getPrefixes accepts CIDRs and bare addresses; invalid entries are skipped.
func getPrefixes(key string) []netip.Prefix {
	var out []netip.Prefix
	for _, v := range splitList(os.Getenv(key)) {
		if p, err := netip.ParsePrefix(v); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(v); err == nil {
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
