package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	RequestTimeout time.Duration

	VoyagerBase  string
	VoyagerRPS   int
	LoginTimeout time.Duration

	RedisAddr  string
	RedisDB    int
	RedisPass  string
	SessionTTL time.Duration

	MySQLDSN string // empty disables the audit log

	Location *time.Location

	ProbeWorkers int
	ProbeCheckIn string // YYYY-MM-DD, empty means tomorrow
	ProbeNights  int
	ProbeRooms   int
	ProbeToken   string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric setting")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		VoyagerBase:    env("VOYAGER_BASE_URL", "https://voyagerserver.onrender.com/api"),
		VoyagerRPS:     atoi("VOYAGER_RPS", 5),
		LoginTimeout:   time.Duration(atoi("LOGIN_TIMEOUT_MS", 5000)) * time.Millisecond,
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		SessionTTL:     time.Duration(atoi("SESSION_TTL_SECONDS", 86400)) * time.Second,
		MySQLDSN:       os.Getenv("MYSQL_DSN"),
		Location:       location(env("APP_TZ", "Local")),
		ProbeWorkers:   atoi("PROBE_WORKERS", 3),
		ProbeCheckIn:   os.Getenv("PROBE_CHECK_IN"),
		ProbeNights:    atoi("PROBE_NIGHTS", 1),
		ProbeRooms:     atoi("PROBE_ROOMS", 1),
		ProbeToken:     os.Getenv("VOYAGER_TOKEN"),
	}
	if c.MySQLDSN == "" {
		log.Info().Msg("MYSQL_DSN is empty, audit log disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// location resolves APP_TZ; the calendar day of "today" is taken in it.
func location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("tz", name).Msg("unknown APP_TZ, using local time")
		return time.Local
	}
	return loc
}
