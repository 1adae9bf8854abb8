package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/BTreeMap/BotEngine/internal/api"
	"github.com/BTreeMap/BotEngine/internal/dedup"
	"github.com/BTreeMap/BotEngine/internal/engine"
	"github.com/BTreeMap/BotEngine/internal/flow"
	"github.com/BTreeMap/BotEngine/internal/messaging"
	"github.com/BTreeMap/BotEngine/internal/store"
	"github.com/BTreeMap/BotEngine/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for BotEngine state data
	DefaultStateDir = "/var/lib/botengine"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "botengine.db"
	// DefaultManifestName is the default flow manifest filename
	DefaultManifestName = "flows.toml"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if *flags.verifyToken == "" {
		// Without the verify token the provider handshake can never succeed;
		// fail at startup rather than serve a broken webhook.
		slog.Error("VERIFY_TOKEN is required")
		os.Exit(1)
	}

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	sender, err := buildSender(flags)
	if err != nil {
		slog.Error("Failed to initialize outbound sender", "error", err)
		os.Exit(1)
	}

	states := flow.NewStateManager()
	registry := flow.NewRegistry(*flags.manifest, flow.DefaultFactories(states))
	if err := registry.Load(); err != nil {
		slog.Error("Failed to load flow manifest", "error", err, "path", *flags.manifest)
		os.Exit(1)
	}

	filter := dedup.NewFilter(config.DedupTTL)
	outbound := messaging.NewOutbound(sender, st, messaging.DefaultSendTimeout)
	eng := engine.New(st, filter, states, registry, outbound)

	server := api.NewServer(*flags.apiAddr, *flags.verifyToken, eng)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping BotEngine", "addr", *flags.apiAddr, "channel", *flags.channel, "manifest", *flags.manifest)
	if err := server.Run(ctx); err != nil {
		slog.Error("BotEngine failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("BotEngine exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir      string
	DatabaseURL   string
	VerifyToken   string
	WhatsAppToken string
	PhoneID       string
	Channel       string
	TwilioSID     string
	TwilioToken   string
	TwilioFrom    string
	Manifest      string
	APIAddr       string
	DedupTTL      time.Duration
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	verifyToken *string
	waToken     *string
	phoneID     *string
	channel     *string
	twilioSID   *string
	twilioToken *string
	twilioFrom  *string
	manifest    *string
	apiAddr     *string
}

// initializeLogger sets up structured logging
func initializeLogger() {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if util.ParseBoolEnv("LOG_JSON", false) {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:      os.Getenv("BOTENGINE_STATE_DIR"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		VerifyToken:   os.Getenv("VERIFY_TOKEN"),
		WhatsAppToken: os.Getenv("WHATSAPP_TOKEN"),
		PhoneID:       os.Getenv("WHATSAPP_PHONE_ID"),
		Channel:       os.Getenv("CHANNEL"),
		TwilioSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:    os.Getenv("TWILIO_FROM_NUMBER"),
		Manifest:      os.Getenv("FLOWS_MANIFEST"),
		APIAddr:       os.Getenv("API_ADDR"),
		DedupTTL:      util.ParseDurationEnv("DEDUP_TTL", dedup.DefaultRetention),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No BOTENGINE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.Channel == "" {
		config.Channel = "cloudapi"
	}
	if config.Manifest == "" {
		config.Manifest = filepath.Join(config.StateDir, DefaultManifestName)
	}

	slog.Debug("environment variables loaded",
		"BOTENGINE_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"VERIFY_TOKEN_SET", config.VerifyToken != "",
		"WHATSAPP_TOKEN_SET", config.WhatsAppToken != "",
		"CHANNEL", config.Channel,
		"FLOWS_MANIFEST", config.Manifest,
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for BotEngine data (overrides $BOTENGINE_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN; Postgres URL or SQLite file path (overrides $DATABASE_URL)"),
		verifyToken: flag.String("verify-token", config.VerifyToken, "webhook verification token (overrides $VERIFY_TOKEN)"),
		waToken:     flag.String("whatsapp-token", config.WhatsAppToken, "Cloud API access token (overrides $WHATSAPP_TOKEN)"),
		phoneID:     flag.String("phone-id", config.PhoneID, "Cloud API business phone id (overrides $WHATSAPP_PHONE_ID)"),
		channel:     flag.String("channel", config.Channel, "outbound channel: cloudapi or twilio (overrides $CHANNEL)"),
		twilioSID:   flag.String("twilio-sid", config.TwilioSID, "Twilio account SID (overrides $TWILIO_ACCOUNT_SID)"),
		twilioToken: flag.String("twilio-token", config.TwilioToken, "Twilio auth token (overrides $TWILIO_AUTH_TOKEN)"),
		twilioFrom:  flag.String("twilio-from", config.TwilioFrom, "Twilio WhatsApp from number (overrides $TWILIO_FROM_NUMBER)"),
		manifest:    flag.String("flows-manifest", config.Manifest, "path to the flow catalog manifest (overrides $FLOWS_MANIFEST)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
	}
	flag.Parse()
	return flags
}

// buildStore selects the record store backend from the DSN: a Postgres URL
// uses the Postgres store, anything else is treated as a SQLite file path.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if dsn == "" {
		dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", dsn)
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// buildSender selects the outbound channel implementation.
func buildSender(flags Flags) (messaging.Sender, error) {
	switch *flags.channel {
	case "twilio":
		return messaging.NewTwilioSender(*flags.twilioSID, *flags.twilioToken, *flags.twilioFrom)
	default:
		return messaging.NewCloudAPISender(*flags.waToken, *flags.phoneID)
	}
}
