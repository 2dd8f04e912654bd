package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Helper function to get environment variable with fallback default value
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get environment variable as integer with fallback
func GetEnvAsInt(key string, fallback int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func GetEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func GetEnvAsBool(key string, fallback bool) bool {
	valueStr := GetEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// GetEnvAsList splits a comma separated value, dropping empty items.
func GetEnvAsList(key string, fallback []string) []string {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

type DatabaseConfig struct {
	Driver        string // mysql | postgres
	DSN           string
	SlowThreshold time.Duration
}

type AccessConfig struct {
	DSN                 string
	EventTable          string
	GateTable           string
	FirstRunWindow      time.Duration
	ConnectTimeout      time.Duration
	QueryTimeout        time.Duration
	InKeywords          []string
	OutKeywords         []string
	UnmatchedGatePolicy string // check_in | skip
}

type FacilityConfig struct {
	UTCOffsetMinutes int
	FirstWeekday     time.Weekday
}

type JobConfig struct {
	CronSecret     string
	SyncSchedule   string // empty disables the in-process scheduler
	WeeklySchedule string
	LeaseTTL       time.Duration
	Timeout        time.Duration
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != ""
}

type Config struct {
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	Access    AccessConfig
	Facility  FacilityConfig
	Jobs      JobConfig
	Mail      MailConfig
}

// Load reads the whole configuration from the environment. Call godotenv.Load first.
func Load() Config {
	return Config{
		Port:      GetEnv("PORT", "3000"),
		JWTSecret: GetEnv("JWT_SECRET", ""),
		Database: DatabaseConfig{
			Driver:        strings.ToLower(GetEnv("DB_DRIVER", "mysql")),
			DSN:           GetEnv("DB_DSN", "root:@tcp(127.0.0.1:3306)/studyroom?charset=utf8mb4&parseTime=True&loc=UTC"),
			SlowThreshold: GetEnvAsDuration("DB_SLOW_THRESHOLD", 200*time.Millisecond),
		},
		Access: AccessConfig{
			DSN:                 GetEnv("ACCESS_DB_DSN", ""),
			EventTable:          GetEnv("ACCESS_EVENT_TABLE", "tenter"),
			GateTable:           GetEnv("ACCESS_GATE_TABLE", "tgate"),
			FirstRunWindow:      GetEnvAsDuration("ACCESS_FIRST_RUN_WINDOW", 2*time.Minute),
			ConnectTimeout:      GetEnvAsDuration("ACCESS_CONNECT_TIMEOUT", 5*time.Second),
			QueryTimeout:        GetEnvAsDuration("ACCESS_QUERY_TIMEOUT", 15*time.Second),
			InKeywords:          GetEnvAsList("ACCESS_IN_KEYWORDS", []string{"입실", "입구", "entry", "entrance"}),
			OutKeywords:         GetEnvAsList("ACCESS_OUT_KEYWORDS", []string{"퇴실", "출구", "exit"}),
			UnmatchedGatePolicy: strings.ToLower(GetEnv("ACCESS_UNMATCHED_GATE_POLICY", "check_in")),
		},
		Facility: FacilityConfig{
			UTCOffsetMinutes: GetEnvAsInt("FACILITY_UTC_OFFSET_MINUTES", 9*60),
			FirstWeekday:     time.Weekday(GetEnvAsInt("FACILITY_FIRST_WEEKDAY", int(time.Sunday)) % 7),
		},
		Jobs: JobConfig{
			CronSecret:     GetEnv("CRON_SECRET", ""),
			SyncSchedule:   GetEnv("SYNC_SCHEDULE", ""),
			WeeklySchedule: GetEnv("WEEKLY_GOAL_SCHEDULE", ""),
			LeaseTTL:       GetEnvAsDuration("SYNC_LEASE_TTL", 5*time.Minute),
			Timeout:        GetEnvAsDuration("JOB_TIMEOUT", 4*time.Minute),
		},
		Mail: MailConfig{
			Host:     GetEnv("SMTP_HOST", ""),
			Port:     GetEnvAsInt("SMTP_PORT", 587),
			Username: GetEnv("SMTP_USERNAME", ""),
			Password: GetEnv("SMTP_PASSWORD", ""),
			From:     GetEnv("SMTP_FROM", ""),
		},
	}
}
