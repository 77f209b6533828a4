package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"course-nlu/internal/discovery"
	"course-nlu/internal/sftpclient"
)

type Config struct {
	// Natural Language Understanding
	NLUAPIKey  string
	NLUURL     string
	IAMURL     string
	NLUVersion string

	// Batch
	Workers  int
	CacheDir string
	CacheTTL time.Duration

	// Discovery collection
	DiscoveryURL           string
	DiscoveryAPIKey        string
	DiscoveryEnvironmentID string
	DiscoveryCollectionID  string
	DiscoveryVersion       string

	// SFTP delivery
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPKnownHosts            string
	SFTPInsecureIgnoreHostKey bool

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() Config {
	return Config{
		// Natural Language Understanding
		NLUAPIKey:  os.Getenv("NATURAL_LANGUAGE_UNDERSTANDING_APIKEY"),
		NLUURL:     strings.TrimRight(os.Getenv("NATURAL_LANGUAGE_UNDERSTANDING_URL"), "/"),
		IAMURL:     getenv("NLU_IAM_URL", "https://iam.cloud.ibm.com"),
		NLUVersion: getenv("NLU_VERSION", "2019-07-12"),

		// Batch
		Workers:  getenvInt("NLU_WORKERS", 1),
		CacheDir: os.Getenv("NLU_CACHE_DIR"),
		CacheTTL: getenvDuration("NLU_CACHE_TTL", 30*24*time.Hour),

		// Discovery collection
		DiscoveryURL:           strings.TrimRight(os.Getenv("DISCOVERY_URL"), "/"),
		DiscoveryAPIKey:        os.Getenv("DISCOVERY_APIKEY"),
		DiscoveryEnvironmentID: os.Getenv("DISCOVERY_ENVIRONMENT_ID"),
		DiscoveryCollectionID:  os.Getenv("DISCOVERY_COLLECTION_ID"),
		DiscoveryVersion:       getenv("DISCOVERY_VERSION", discovery.DefaultVersion),

		// SFTP delivery
		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/inbound"),
		SFTPKnownHosts:            os.Getenv("SFTP_KNOWN_HOSTS"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOST_KEY", false),

		// Logging
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "auto"),
	}
}

// LoadDotEnv seeds the environment from the given .env files (default
// ".env"). Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// Validate reports every setting an enrichment run cannot do without.
func (c Config) Validate() error {
	var errs []error
	if c.NLUAPIKey == "" {
		errs = append(errs, errors.New("missing env NATURAL_LANGUAGE_UNDERSTANDING_APIKEY"))
	}
	if c.NLUURL == "" {
		errs = append(errs, errors.New("missing env NATURAL_LANGUAGE_UNDERSTANDING_URL"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("NLU_WORKERS must be at least 1, got %d", c.Workers))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("NLU_CACHE_TTL must not be negative, got %s", c.CacheTTL))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// ValidateDiscovery reports every setting a document upload cannot do
// without.
func (c Config) ValidateDiscovery() error {
	var errs []error
	for _, v := range []struct{ name, value string }{
		{"DISCOVERY_URL", c.DiscoveryURL},
		{"DISCOVERY_APIKEY", c.DiscoveryAPIKey},
		{"DISCOVERY_ENVIRONMENT_ID", c.DiscoveryEnvironmentID},
		{"DISCOVERY_COLLECTION_ID", c.DiscoveryCollectionID},
	} {
		if strings.TrimSpace(v.value) == "" {
			errs = append(errs, fmt.Errorf("missing env %s", v.name))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// Discovery returns the collection settings.
func (c Config) Discovery() discovery.Config {
	return discovery.Config{
		URL:           c.DiscoveryURL,
		EnvironmentID: c.DiscoveryEnvironmentID,
		CollectionID:  c.DiscoveryCollectionID,
		Version:       c.DiscoveryVersion,
	}
}

// SFTP returns the delivery settings.
func (c Config) SFTP() sftpclient.Config {
	return sftpclient.Config{
		Host:                  c.SFTPHost,
		Port:                  c.SFTPPort,
		User:                  c.SFTPUser,
		Pass:                  c.SFTPPass,
		RemoteDir:             c.SFTPDir,
		KnownHosts:            c.SFTPKnownHosts,
		InsecureIgnoreHostKey: c.SFTPInsecureIgnoreHostKey,
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}
