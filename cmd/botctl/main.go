// Command botctl is the terminal operator tool for BotEngine.
//
// It connects directly to the conversation record store to list chats, show
// history, take over or release a conversation, and send manual replies.
// Manual replies are recorded with the human role at send time, so message
// history is never rewritten after the fact.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BTreeMap/BotEngine/internal/messaging"
	"github.com/BTreeMap/BotEngine/internal/models"
	"github.com/BTreeMap/BotEngine/internal/store"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

const usage = `botctl - BotEngine operator tool

Usage:
  botctl list                      list conversations
  botctl history <contact>         show message history for a contact
  botctl takeover <contact>        suppress the bot for a contact
  botctl release <contact>         hand the conversation back to the bot
  botctl send <contact> <text...>  send a manual reply (recorded as human)

Flags:
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	dbDSN := flag.String("db-dsn", os.Getenv("DATABASE_URL"), "database DSN (overrides $DATABASE_URL)")
	stateDir := flag.String("state-dir", envOr("BOTENGINE_STATE_DIR", "/var/lib/botengine"), "state directory")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	st, err := openStore(*dbDSN, *stateDir)
	if err != nil {
		fatal("failed to open store: %v", err)
	}
	defer st.Close()

	switch args[0] {
	case "list":
		listConversations(st)
	case "history":
		requireArgs(args, 2)
		showHistory(st, args[1])
	case "takeover":
		requireArgs(args, 2)
		setIntervention(st, args[1], true)
	case "release":
		requireArgs(args, 2)
		setIntervention(st, args[1], false)
	case "send":
		requireArgs(args, 3)
		sender, err := buildSender()
		if err != nil {
			fatal("failed to build sender: %v", err)
		}
		if err := sendManual(st, sender, args[1], strings.Join(args[2:], " ")); err != nil {
			fatal("%v", err)
		}
		color.Green("Sent to %s.", args[1])
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireArgs(args []string, n int) {
	if len(args) < n {
		flag.Usage()
		os.Exit(2)
	}
}

func fatal(format string, args ...any) {
	color.Red(format, args...)
	os.Exit(1)
}

func openStore(dsn, stateDir string) (store.Store, error) {
	if dsn == "" {
		dsn = filepath.Join(stateDir, "botengine.db")
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

func listConversations(st store.Store) {
	summaries, err := st.ListConversations()
	if err != nil {
		fatal("failed to list conversations: %v", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No conversations yet.")
		return
	}
	bold := color.New(color.Bold)
	for _, cs := range summaries {
		name := cs.Name
		if name == "" {
			name = cs.ExternalID
		}
		status := color.GreenString("BOT")
		if cs.HumanIntervening {
			status = color.YellowString("HUMAN")
		}
		last := cs.LastMessage
		if len(last) > 40 {
			last = last[:40] + "…"
		}
		bold.Printf("%s", name)
		fmt.Printf(" (%s) [%s] - %q\n", cs.ExternalID, status, last)
	}
}

func showHistory(st store.Store, contact string) {
	messages, err := st.GetMessages(contact)
	if err != nil {
		fatal("failed to load history: %v", err)
	}
	for _, m := range messages {
		ts := m.Timestamp.Format(time.DateTime)
		switch m.Sender {
		case models.SenderClient:
			color.Cyan("[%s] %s: %s", ts, contact, m.Content)
		case models.SenderHuman:
			color.Yellow("[%s] operator: %s", ts, m.Content)
		default:
			fmt.Printf("[%s] bot: %s\n", ts, m.Content)
		}
	}
}

func setIntervention(st store.Store, contact string, intervening bool) {
	if err := st.SetIntervening(contact, intervening); err != nil {
		fatal("failed to update intervention flag: %v", err)
	}
	if intervening {
		color.Yellow("Bot suppressed for %s; you are now handling this chat.", contact)
	} else {
		color.Green("Conversation %s handed back to the bot.", contact)
	}
}

// sendManual records the message with the human role at send time and then
// transmits it through the given channel.
func sendManual(st store.Store, sender messaging.Sender, contact, text string) error {
	if err := st.AddMessage(contact, models.SenderHuman, models.MessageTypeText, text); err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), messaging.DefaultSendTimeout)
	defer cancel()
	if err := sender.SendText(ctx, contact, text); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func buildSender() (messaging.Sender, error) {
	if os.Getenv("CHANNEL") == "twilio" {
		return messaging.NewTwilioSender(
			os.Getenv("TWILIO_ACCOUNT_SID"),
			os.Getenv("TWILIO_AUTH_TOKEN"),
			os.Getenv("TWILIO_FROM_NUMBER"),
		)
	}
	return messaging.NewCloudAPISender(os.Getenv("WHATSAPP_TOKEN"), os.Getenv("WHATSAPP_PHONE_ID"))
}
