package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultAppPort         = "5000"
	defaultGRPCPort        = "50051"
	defaultAppEnv          = "local"
	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDB         = "bistrobossDb"
	defaultMongoTx         = "auto"
	defaultTokenSecret     = "change-me-in-production"
	defaultTokenTTL        = time.Hour
	defaultPaymentAPIURL   = "https://api.stripe.com"
	defaultPaymentCurrency = "usd"
	defaultRedisAddr       = "localhost:6379"
	defaultQueueDriver     = "memory"
	defaultQueueWorkers    = 2
	defaultStatsCacheTTL   = 30 * time.Second
	defaultSweepInterval   = 5 * time.Minute
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load reads config/app.json and .env once. Real environment variables
// override both files.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":             defaultAppEnv,
		"APP_PORT":            defaultAppPort,
		"GRPC_PORT":           defaultGRPCPort,
		"MONGO_URI":           defaultMongoURI,
		"MONGO_DB":            defaultMongoDB,
		"MONGO_TRANSACTIONS":  defaultMongoTx,
		"ACCESS_TOKEN_SECRET": defaultTokenSecret,
		"PAYMENT_API_URL":     defaultPaymentAPIURL,
		"PAYMENT_CURRENCY":    defaultPaymentCurrency,
		"REDIS_ADDR":          defaultRedisAddr,
		"QUEUE_DRIVER":        defaultQueueDriver,
	}
}

func AppEnv() string  { _ = Load(); return get("APP_ENV", defaultAppEnv) }
func AppPort() string { _ = Load(); return get("APP_PORT", defaultAppPort) }

// GRPCPort returns the health server port. An explicit "off" disables it.
func GRPCPort() string {
	_ = Load()
	port := get("GRPC_PORT", defaultGRPCPort)
	if strings.EqualFold(port, "off") {
		return ""
	}
	return port
}

func IsProduction() bool {
	switch AppEnv() {
	case "production", "prod":
		return true
	}
	return false
}

// ── Store ────────────────────────────────────────────────────────────────────

func MongoURI() string { _ = Load(); return get("MONGO_URI", defaultMongoURI) }
func MongoDB() string  { _ = Load(); return get("MONGO_DB", defaultMongoDB) }

// MongoTransactions returns "auto", "on" or "off".
func MongoTransactions() string {
	_ = Load()
	mode := strings.ToLower(get("MONGO_TRANSACTIONS", defaultMongoTx))
	switch mode {
	case "auto", "on", "off":
		return mode
	default:
		return defaultMongoTx
	}
}

// ── Tokens ───────────────────────────────────────────────────────────────────

func TokenSecret() string { _ = Load(); return get("ACCESS_TOKEN_SECRET", defaultTokenSecret) }

func TokenTTL() time.Duration {
	_ = Load()
	return getDuration("ACCESS_TOKEN_TTL", defaultTokenTTL)
}

// ── Payments ─────────────────────────────────────────────────────────────────

func PaymentSecretKey() string { _ = Load(); return get("PAYMENT_SECRET_KEY", "") }
func PaymentAPIURL() string    { _ = Load(); return get("PAYMENT_API_URL", defaultPaymentAPIURL) }

func PaymentCurrency() string {
	_ = Load()
	return strings.ToLower(get("PAYMENT_CURRENCY", defaultPaymentCurrency))
}

// ── Redis / queue / cache ────────────────────────────────────────────────────

func RedisAddr() string     { _ = Load(); return get("REDIS_ADDR", defaultRedisAddr) }
func RedisPassword() string { _ = Load(); return get("REDIS_PASSWORD", "") }

func QueueDriver() string {
	_ = Load()
	if strings.EqualFold(get("QUEUE_DRIVER", defaultQueueDriver), "redis") {
		return "redis"
	}
	return defaultQueueDriver
}

func QueueWorkers() int {
	_ = Load()
	return getInt("QUEUE_WORKERS", defaultQueueWorkers)
}

func StatsCacheTTL() time.Duration {
	_ = Load()
	return getDuration("STATS_CACHE_TTL", defaultStatsCacheTTL)
}

func ReconcileSweepInterval() time.Duration {
	_ = Load()
	return getDuration("RECONCILE_SWEEP_INTERVAL", defaultSweepInterval)
}

// ── HTTP ─────────────────────────────────────────────────────────────────────

func RateLimitRPS() float64 {
	_ = Load()
	f, err := strconv.ParseFloat(get("RATE_LIMIT_RPS", "20"), 64)
	if err != nil || f <= 0 {
		return 20
	}
	return f
}

func RateLimitBurst() int { _ = Load(); return getInt("RATE_LIMIT_BURST", 40) }

// CORSOrigins splits CORS_ORIGINS on commas.
func CORSOrigins() []string {
	_ = Load()
	var out []string
	for _, o := range strings.Split(get("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func MaxBodyBytes() int64 {
	_ = Load()
	n, err := strconv.ParseInt(get("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n
}

func LogToMongo() bool {
	_ = Load()
	b, _ := strconv.ParseBool(get("LOG_TO_MONGO", "false"))
	return b
}

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeEnviron(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		switch v := val.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case float64, bool:
			out[k] = fmt.Sprint(v)
		}
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

// mergeEnviron lets deployment environments override file-based values for
// any key already known or prefixed like one of ours.
func mergeEnviron(out map[string]string) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		if _, known := out[key]; known || isAppKey(key) {
			out[key] = value
		}
	}
}

func isAppKey(key string) bool {
	for _, prefix := range []string{"APP_", "GRPC_", "MONGO_", "ACCESS_TOKEN_", "PAYMENT_", "REDIS_", "QUEUE_", "STATS_", "RATE_LIMIT_", "CORS_", "LOG_", "MAX_BODY_", "RECONCILE_"} {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(get(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a key at runtime. Intended for tests and CLI flags.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
