package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Scoring strategy names. Selection is a configuration choice, never a
// runtime branch on item data.
const (
	StrategyLexical  = "lexical"
	StrategySemantic = "semantic"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where reclaim stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your reclaim instance.
	InstanceURL string

	// Matching configuration
	ScoringStrategy string // RECLAIM_SCORING_STRATEGY (lexical or semantic, default: lexical)
	MatchPending    bool   // RECLAIM_MATCH_PENDING (default: true; match found items before moderation approval)
	NotifyThreshold int    // RECLAIM_NOTIFY_THRESHOLD (default: 60)

	// Embedding provider configuration (semantic strategy only)
	AIProvider       string  // RECLAIM_AI_PROVIDER (default: openai)
	AIAPIKey         string  // RECLAIM_AI_API_KEY
	AIBaseURL        string  // RECLAIM_AI_BASE_URL (default: https://api.openai.com/v1)
	AIModel          string  // RECLAIM_AI_MODEL (default: text-embedding-3-small)
	AIDimensions     int     // RECLAIM_AI_DIMENSIONS (default: 1536)
	AIRequestsPerSec float64 // RECLAIM_AI_RPS (default: 5)

	// Notification delivery configuration
	SMTPHost     string // RECLAIM_SMTP_HOST
	SMTPPort     int    // RECLAIM_SMTP_PORT (default: 587)
	SMTPUsername string // RECLAIM_SMTP_USERNAME
	SMTPPassword string // RECLAIM_SMTP_PASSWORD
	SMTPFrom     string // RECLAIM_SMTP_FROM
	WebhookURL   string // RECLAIM_WEBHOOK_URL (alternative dispatch channel)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// UseSemanticScoring returns true when the semantic strategy is selected and
// an API key is configured.
func (p *Profile) UseSemanticScoring() bool {
	return p.ScoringStrategy == StrategySemantic && p.AIAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnvOrDefault parses a boolean environment variable.
func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1"
}

// getIntEnvOrDefault parses an integer environment variable.
func getIntEnvOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// FromEnv loads configuration from RECLAIM_* environment variables.
func (p *Profile) FromEnv() {
	p.ScoringStrategy = getEnvOrDefault("RECLAIM_SCORING_STRATEGY", StrategyLexical)
	p.MatchPending = getBoolEnvOrDefault("RECLAIM_MATCH_PENDING", true)
	p.NotifyThreshold = getIntEnvOrDefault("RECLAIM_NOTIFY_THRESHOLD", 60)

	p.AIProvider = getEnvOrDefault("RECLAIM_AI_PROVIDER", "openai")
	p.AIAPIKey = os.Getenv("RECLAIM_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("RECLAIM_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIModel = getEnvOrDefault("RECLAIM_AI_MODEL", "text-embedding-3-small")
	p.AIDimensions = getIntEnvOrDefault("RECLAIM_AI_DIMENSIONS", 1536)
	if rps := os.Getenv("RECLAIM_AI_RPS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil && v > 0 {
			p.AIRequestsPerSec = v
		}
	}
	if p.AIRequestsPerSec == 0 {
		p.AIRequestsPerSec = 5
	}

	p.SMTPHost = os.Getenv("RECLAIM_SMTP_HOST")
	p.SMTPPort = getIntEnvOrDefault("RECLAIM_SMTP_PORT", 587)
	p.SMTPUsername = os.Getenv("RECLAIM_SMTP_USERNAME")
	p.SMTPPassword = os.Getenv("RECLAIM_SMTP_PASSWORD")
	p.SMTPFrom = getEnvOrDefault("RECLAIM_SMTP_FROM", "Reclaim Lost & Found <noreply@reclaim.local>")
	p.WebhookURL = os.Getenv("RECLAIM_WEBHOOK_URL")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.ScoringStrategy != StrategyLexical && p.ScoringStrategy != StrategySemantic {
		return errors.Errorf("unknown scoring strategy %q: must be %q or %q", p.ScoringStrategy, StrategyLexical, StrategySemantic)
	}
	if p.ScoringStrategy == StrategySemantic && p.AIAPIKey == "" {
		return errors.New("semantic scoring requires RECLAIM_AI_API_KEY")
	}
	if p.NotifyThreshold < 0 || p.NotifyThreshold > 100 {
		return errors.Errorf("notify threshold %d out of range [0,100]", p.NotifyThreshold)
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "reclaim")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/reclaim"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("reclaim_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
