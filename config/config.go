package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tidyup-backend/model"
)

type Config struct {
	Env      string
	LogLevel string
	Port     string

	MySQLUser     string
	MySQLPassword string
	MySQLHost     string
	MySQLDatabase string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins    []string
	RateLimitRPS   int
	RateLimitBurst int

	RedisAddr    string
	GeminiAPIKey string
	GeminiModel  string

	StartingTokens float64
	EscrowExpiry   time.Duration
	SSOSecrets     map[string]string

	Gamification Gamification
}

// Gamification holds the rules that drive XP, levels, quests and achievements.
type Gamification struct {
	XP              map[string]int      `yaml:"xp"`
	LevelThresholds []int               `yaml:"level_thresholds"`
	Quests          []model.Quest       `yaml:"quests"`
	Achievements    []model.Achievement `yaml:"achievements"`
}

func (c *Config) Development() bool {
	return c.Env == "development"
}

// DSN builds the MySQL data source name.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@%s/%s?parseTime=true&loc=Local&clientFoundRows=true", c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLDatabase)
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Env:           getenv("APP_ENV", "production"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Port:          getenv("PORT", "8080"),
		MySQLUser:     getenv("MYSQL_USER", "user"),
		MySQLPassword: getenv("MYSQL_PWD", "password"),
		MySQLHost:     getenv("MYSQL_HOST", "tcp(127.0.0.1:3306)"),
		MySQLDatabase: getenv("MYSQL_DATABASE", "tidyup_db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.EscrowExpiry, err = durationEnv("ESCROW_EXPIRY", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = intEnv("RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}
	if cfg.StartingTokens, err = floatEnv("STARTING_TOKENS", 100); err != nil {
		return nil, err
	}
	if cfg.SSOSecrets, err = parsePairs(os.Getenv("SSO_SECRETS")); err != nil {
		return nil, fmt.Errorf("SSO_SECRETS: %w", err)
	}

	if cfg.JWTSecret == "" {
		if !cfg.Development() {
			return nil, errors.New("JWT_SECRET is required")
		}
		cfg.JWTSecret = "dev-secret"
	}

	cfg.Gamification = DefaultGamification()
	if path := os.Getenv("GAMIFICATION_FILE"); path != "" {
		g, err := LoadGamification(path)
		if err != nil {
			return nil, err
		}
		cfg.Gamification = *g
	}

	return cfg, nil
}

// LoadGamification reads rules from a YAML file. Sections missing from the
// file keep their defaults.
func LoadGamification(path string) (*Gamification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gamification file: %w", err)
	}
	g := DefaultGamification()
	var override Gamification
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse gamification file: %w", err)
	}
	if override.XP != nil {
		g.XP = override.XP
	}
	if override.LevelThresholds != nil {
		g.LevelThresholds = override.LevelThresholds
	}
	if override.Quests != nil {
		g.Quests = override.Quests
	}
	if override.Achievements != nil {
		g.Achievements = override.Achievements
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

func (g *Gamification) Validate() error {
	if len(g.LevelThresholds) == 0 || g.LevelThresholds[0] != 0 {
		return errors.New("level_thresholds must start at 0")
	}
	for i := 1; i < len(g.LevelThresholds); i++ {
		if g.LevelThresholds[i] <= g.LevelThresholds[i-1] {
			return errors.New("level_thresholds must be strictly increasing")
		}
	}
	for _, q := range g.Quests {
		if q.Code == "" || q.Target <= 0 {
			return fmt.Errorf("quest %q: code and positive target required", q.Code)
		}
		if len(q.Code) > model.MaxCodeLen {
			return fmt.Errorf("quest %q: code longer than %d", q.Code, model.MaxCodeLen)
		}
		switch q.Period {
		case model.PeriodDaily, model.PeriodWeekly, model.PeriodOnce:
		default:
			return fmt.Errorf("quest %q: unknown period %q", q.Code, q.Period)
		}
	}
	for _, a := range g.Achievements {
		if a.Code == "" || a.Threshold <= 0 {
			return fmt.Errorf("achievement %q: code and positive threshold required", a.Code)
		}
		if len(a.Code) > model.MaxCodeLen {
			return fmt.Errorf("achievement %q: code longer than %d", a.Code, model.MaxCodeLen)
		}
	}
	return nil
}

func DefaultGamification() Gamification {
	return Gamification{
		XP: map[string]int{
			model.EventItemListed:     10,
			model.EventTradeCompleted: 50,
			model.EventPostCreated:    5,
			model.EventCommentCreated: 2,
			model.EventMessageSent:    1,
			model.EventDailyLogin:     3,
		},
		LevelThresholds: []int{0, 100, 250, 500, 1000, 2000, 4000, 8000},
		Quests: []model.Quest{
			{Code: "daily_chatter", Title: "Send 5 messages today", Event: model.EventMessageSent, Target: 5, Period: model.PeriodDaily, RewardXP: 10},
			{Code: "daily_lister", Title: "List an item today", Event: model.EventItemListed, Target: 1, Period: model.PeriodDaily, RewardXP: 15, RewardTokens: 1},
			{Code: "weekly_trader", Title: "Complete 3 trades this week", Event: model.EventTradeCompleted, Target: 3, Period: model.PeriodWeekly, RewardXP: 100, RewardTokens: 5},
			{Code: "weekly_voice", Title: "Write 3 community posts this week", Event: model.EventPostCreated, Target: 3, Period: model.PeriodWeekly, RewardXP: 30},
			{Code: "first_steps", Title: "Declutter your first item", Event: model.EventItemListed, Target: 1, Period: model.PeriodOnce, RewardXP: 20, RewardTokens: 2},
		},
		Achievements: []model.Achievement{
			{Code: "first_sale", Title: "First trade", Event: model.EventTradeCompleted, Threshold: 1, RewardXP: 25},
			{Code: "seasoned_trader", Title: "25 trades", Event: model.EventTradeCompleted, Threshold: 25, RewardXP: 250, RewardTokens: 10},
			{Code: "declutterer", Title: "10 items listed", Event: model.EventItemListed, Threshold: 10, RewardXP: 50},
			{Code: "storyteller", Title: "10 community posts", Event: model.EventPostCreated, Threshold: 10, RewardXP: 50},
			{Code: "regular", Title: "Signed in 30 times", Event: model.EventDailyLogin, Threshold: 30, RewardXP: 100},
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePairs parses "a=1,b=2".
func parsePairs(v string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range splitList(v) {
		k, val, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(k) == "" || val == "" {
			return nil, fmt.Errorf("malformed pair %q", part)
		}
		out[strings.ToLower(strings.TrimSpace(k))] = val
	}
	return out, nil
}
