package config // package config loads application configuration from environment variables

import (
    "log"     // log reports configuration errors and halts execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings normalizes URL values
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Payment and SMTP settings are optional:
// when absent the respective subsystem degrades (payments disabled,
// emails logged to stdout instead of sent).
type Config struct {
    Env          string // application environment (e.g. "dev", "prod")
    Port         string // HTTP port to listen on
    DBUser       string // database username
    DBPass       string // database password (optional)
    DBHost       string // database host address
    DBPort       string // database port number
    DBName       string // database name
    JWTSecret    string // secret used to sign JWTs
    AccessTTLMin int    // access token time-to-live in minutes
    BcryptCost   int    // bcrypt cost for password hashing
    ClientURL    string // public client origin for CORS and Stripe redirects
    StripeSecret string // Stripe secret key (empty disables paid checkout)
    SMTPHost     string // SMTP server host (empty switches mail to log-only)
    SMTPPort     int    // SMTP server port
    SMTPUser     string // SMTP username
    SMTPPass     string // SMTP password
    EmailFrom    string // From address on outgoing mail
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:          must("APP_ENV"),
        Port:         must("APP_PORT"),
        DBUser:       must("DB_USER"),
        DBPass:       os.Getenv("DB_PASS"), // empty allowed
        DBHost:       must("DB_HOST"),
        DBPort:       must("DB_PORT"),
        DBName:       must("DB_NAME"),
        JWTSecret:    must("JWT_SECRET"),
        AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
        BcryptCost:   mustInt("BCRYPT_COST"),
        ClientURL:    strings.TrimRight(envDefault("CLIENT_URL", "http://localhost:5173"), "/"),
        StripeSecret: os.Getenv("STRIPE_SECRET_KEY"),
        SMTPHost:     os.Getenv("SMTP_HOST"),
        SMTPPort:     intDefault("SMTP_PORT", 587),
        SMTPUser:     os.Getenv("SMTP_USER"),
        SMTPPass:     os.Getenv("SMTP_PASS"),
        EmailFrom:    envDefault("EMAIL_FROM", "no-reply@eventia.local"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func envDefault(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func intDefault(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return def
    }
    return n
}
