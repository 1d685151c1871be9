package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "log"
    "os"
    "time"

    "github.com/joho/godotenv"

    "github.com/iliyamo/seat-reservation/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env          string // application environment (e.g. "dev", "prod")
    Port         string // HTTP port to listen on
    DB           database.Options
    JWTSecret    string // secret used to verify and mint JWTs

    Reservation ReservationConfig
    Notify      NotifyConfig
}

// ReservationConfig controls the reservation window and the worker pool
// that applies seat mutations.
type ReservationConfig struct {
    SweepInterval  time.Duration // SWEEP_INTERVAL
    RemindAfter    time.Duration // RESERVATION_REMIND_AFTER
    ExpireAfter    time.Duration // RESERVATION_EXPIRE_AFTER
    RemindRepeat   bool          // RESERVATION_REMIND_REPEAT: remind on every sweep
    Workers        int           // RESERVATION_WORKERS
    MaxPrice       int64         // SEAT_MAX_PRICE
    RootReviewerID int64         // ROOT_REVIEWER_ID
}

// NotifyConfig controls notification delivery.  An empty RabbitURL
// means notifications are only written to the process log.
type NotifyConfig struct {
    Buffer          int
    Workers         int
    MaxAttempts     int
    Queue           string
    RabbitURL       string
    ConsumerEnabled bool
    LogDir          string
}

// LoadDotEnv loads variables from a .env file in the working directory
// if one exists.  Variables already set in the environment win.
func LoadDotEnv() {
    if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
        log.Printf("config: could not load .env: %v", err)
    }
}

// Load reads configuration values from the environment and returns a
// Config.  Required variables are enforced by must(); missing values or
// an unusable reservation window cause the program to exit.
func Load() Config {
    LoadDotEnv()
    cfg := Config{
        Env:          envStr("APP_ENV", "dev"),
        Port:         must("APP_PORT"),
        DB:           loadDB(),
        JWTSecret:    must("JWT_SECRET"),
        Reservation: ReservationConfig{
            SweepInterval:  envDur("SWEEP_INTERVAL", 30*time.Second),
            RemindAfter:    envDur("RESERVATION_REMIND_AFTER", 30*time.Minute),
            ExpireAfter:    envDur("RESERVATION_EXPIRE_AFTER", 40*time.Minute),
            RemindRepeat:   envBool("RESERVATION_REMIND_REPEAT", false),
            Workers:        envInt("RESERVATION_WORKERS", 10),
            MaxPrice:       envInt64("SEAT_MAX_PRICE", defaultMaxPrice),
            RootReviewerID: envInt64("ROOT_REVIEWER_ID", 0),
        },
        Notify: NotifyConfig{
            Buffer:          envInt("NOTIFY_BUFFER", 256),
            Workers:         envInt("NOTIFY_WORKERS", 4),
            MaxAttempts:     envInt("NOTIFY_MAX_ATTEMPTS", 3),
            Queue:           envStr("NOTIFY_QUEUE", "seat.notifications"),
            RabbitURL:       firstEnv("RABBITMQ_URL", "AMQP_URL"),
            ConsumerEnabled: envBool("NOTIFY_CONSUMER_ENABLED", true),
            LogDir:          envStr("NOTIFY_LOG_DIR", "logs"),
        },
    }
    if err := cfg.Validate(); err != nil {
        log.Fatalf("invalid configuration: %v", err)
    }
    return cfg
}

const defaultMaxPrice int64 = 10_000_000

// LoadMaxPrice reads SEAT_MAX_PRICE, the seat price ceiling shared by
// the server and seatctl.  Unset or non-positive values fall back to
// the default.
func LoadMaxPrice() int64 {
    LoadDotEnv()
    if p := envInt64("SEAT_MAX_PRICE", defaultMaxPrice); p > 0 {
        return p
    }
    return defaultMaxPrice
}

// LoadDB reads only the database settings.  The seatctl tool uses it.
func LoadDB() database.Options {
    LoadDotEnv()
    return loadDB()
}

func loadDB() database.Options {
    driver := envStr("DB_DRIVER", database.DriverMySQL)
    if driver == database.DriverSQLite {
        return database.Options{Driver: driver, Name: envStr("DB_NAME", "seats.db")}
    }
    return database.Options{
        Driver:  driver,
        User:    must("DB_USER"),
        Pass:    os.Getenv("DB_PASS"),
        Host:    must("DB_HOST"),
        Port:    must("DB_PORT"),
        Name:    must("DB_NAME"),
        SSLMode: os.Getenv("DB_SSLMODE"),
    }
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
    switch c.DB.Driver {
    case database.DriverMySQL, database.DriverPostgres, database.DriverSQLite:
    default:
        return fmt.Errorf("DB_DRIVER %q is not one of mysql, postgres, sqlite3", c.DB.Driver)
    }
    r := c.Reservation
    if r.SweepInterval <= 0 {
        return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", r.SweepInterval)
    }
    if r.RemindAfter <= 0 || r.ExpireAfter <= r.RemindAfter {
        return fmt.Errorf("need 0 < RESERVATION_REMIND_AFTER (%s) < RESERVATION_EXPIRE_AFTER (%s)", r.RemindAfter, r.ExpireAfter)
    }
    if r.MaxPrice <= 0 {
        return fmt.Errorf("SEAT_MAX_PRICE must be positive, got %d", r.MaxPrice)
    }
    return nil
}
