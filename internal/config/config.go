package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"rest-tracker/internal/supervisor"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Tracker supervisor.Config
	Notify  struct {
		Command string
	}
	Telegram struct {
		BotToken  string
		ChatID    int64
		RateLimit int
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
		To         string
	}
	SMS struct {
		AccountSID string
		AuthToken  string
		FromNumber string
		To         string
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	DB struct {
		DSN string
	}
	API struct {
		Port       string
		BasePath   string
		MaxClients int
	}
	Logging struct {
		Dir   string
		Level string
	}
	ConsoleAck bool
}

// Load reads an optional .env file, then environment variables, applies
// defaults, and returns a Config.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	var cfg Config
	var errs []string
	fail := func(key string, err error) {
		errs = append(errs, fmt.Sprintf("%s: %v", key, err))
	}

	// Tracker settings
	cfg.Tracker = supervisor.DefaultConfig()
	if v, ok, err := getInt("TRACKER_ROUNDS"); err != nil {
		fail("TRACKER_ROUNDS", err)
	} else if ok {
		cfg.Tracker.Rounds = v
	}
	if v, ok, err := getDuration("TRACKER_BUDGET"); err != nil {
		fail("TRACKER_BUDGET", err)
	} else if ok {
		cfg.Tracker.Budget = v
	}
	if v, ok, err := getDuration("TRACKER_POLL_INTERVAL"); err != nil {
		fail("TRACKER_POLL_INTERVAL", err)
	} else if ok {
		cfg.Tracker.PollInterval = v
	}

	// Notification sinks
	cfg.Notify.Command = os.Getenv("NOTIFY_COMMAND")
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if s := os.Getenv("TELEGRAM_CHAT_ID"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			fail("TELEGRAM_CHAT_ID", err)
		}
		cfg.Telegram.ChatID = id
	}
	if v, ok, err := getInt("TELEGRAM_RATE_LIMIT"); err != nil {
		fail("TELEGRAM_RATE_LIMIT", err)
	} else if ok {
		cfg.Telegram.RateLimit = v
	}
	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	if v, ok, err := getInt("EMAIL_SMTP_PORT"); err != nil {
		fail("EMAIL_SMTP_PORT", err)
	} else if ok {
		cfg.Email.SMTPPort = v
	}
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	cfg.Email.To = os.Getenv("EMAIL_TO")

	cfg.SMS.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.SMS.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.SMS.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	cfg.SMS.To = os.Getenv("SMS_TO")

	// Kafka settings
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")
	if v, ok, err := getInt("WS_MAX_CLIENTS"); err != nil {
		fail("WS_MAX_CLIENTS", err)
	} else if ok {
		cfg.API.MaxClients = v
	}

	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	cfg.ConsoleAck = true
	if s := os.Getenv("CONSOLE_ACK"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			fail("CONSOLE_ACK", err)
		}
		cfg.ConsoleAck = b
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configurations: %v", errs)
	}

	// Apply defaults
	if cfg.Notify.Command == "" {
		cfg.Notify.Command = "notify"
	}
	if cfg.Telegram.RateLimit == 0 {
		cfg.Telegram.RateLimit = 1
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "rest_tracker_ack"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "rest-tracker"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":9191"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.API.MaxClients == 0 {
		cfg.API.MaxClients = 10
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if err := cfg.Tracker.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getInt(key string) (int, bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func getDuration(key string) (time.Duration, bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
