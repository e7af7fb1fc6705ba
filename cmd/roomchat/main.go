package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat-sdk-go/roomchat"
)

var rootCmd = &cobra.Command{
	Use:   "roomchat",
	Short: "Terminal client for the roomchat service",
	RunE:  runChat,
}

var (
	flagURL      string
	flagUser     string
	flagRoom     string
	flagPageSize int
	flagLogLevel string
	flagConfig   string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagURL, "url", "", "WebSocket endpoint of the chat server")
	flags.StringVar(&flagUser, "user", "", "username to request after connecting")
	flags.StringVar(&flagRoom, "room", "", "room to join once identified")
	flags.IntVar(&flagPageSize, "page-size", 0, "history page size for join and /more")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&flagConfig, "config", "", "path to the yaml config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	bootLogger := newLogger("info")
	cfg, _, err := loadConfig(&bootLogger, flagConfig)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientCfg := roomchat.DefaultConfig()
	clientCfg.URL = cfg.URL
	clientCfg.Username = cfg.Username
	clientCfg.PageSize = cfg.PageSize

	client := roomchat.NewClient(clientCfg)
	client.SetLogger(roomchat.NewZerologLogger(logger))
	transcript := roomchat.NewTextTranscript()
	client.SetTranscript(transcript)

	joinedOnce := false

	client.OnConnected(func(p roomchat.ConnectedPayload) {
		if p.Username != "" {
			fmt.Printf("session username: %s\n", p.Username)
		}
	})
	client.OnIdentityRequired(func(hint string) {
		fmt.Printf("username required: %s (use /name <username>)\n", hint)
	})
	client.OnUsernameSet(func(name string) {
		fmt.Printf("username set: %s\n", name)
		if !joinedOnce && cfg.Room != "" {
			joinedOnce = true
			if err := client.Join(cfg.Room); err != nil {
				fmt.Printf("join %s: %v\n", cfg.Room, err)
			}
		}
	})
	client.OnJoined(func(room string) {
		fmt.Printf("joined room: %s\n", room)
	})
	client.OnLeft(func(room string) {
		fmt.Printf("left room: %s\n", room)
	})
	client.OnHistory(func(p roomchat.HistoryPayload) {
		fmt.Println(transcript.String())
	})
	client.OnMorePage(func(p roomchat.HistoryPayload) {
		fmt.Println(transcript.String())
	})
	client.OnMessage(func(m roomchat.Message) {
		fmt.Printf("[%s] %s: %s\n", m.Room, m.Username, m.Text)
	})
	client.OnRooms(func(entries []roomchat.RoomStat, active string) {
		if len(entries) == 0 {
			fmt.Println("no rooms yet")
			return
		}
		for _, e := range entries {
			mark := "  "
			if e.Room == active {
				mark = "* "
			}
			fmt.Printf("%s%s (%d messages)\n", mark, e.Room, e.TotalMsgs)
		}
	})
	client.OnControls(func(c roomchat.Controls) {
		logger.Debug().
			Bool("can_send", c.CanSend).
			Bool("can_leave", c.CanLeave).
			Bool("can_load_more", c.CanLoadMore).
			Msg("controls updated")
	})
	client.OnError(func(err error) {
		fmt.Printf("error: %v\n", err)
	})
	client.OnStateChange(func(ch roomchat.StateChange) {
		logger.Info().Stringer("from", ch.Old).Stringer("to", ch.New).Msg("connection state")
		if ch.New == roomchat.StateDisconnected || ch.New == roomchat.StateError {
			fmt.Println("disconnected; in-room actions are disabled")
			stop()
		}
	})

	fmt.Printf("connecting to %s...\n", cfg.URL)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	fmt.Println("commands: /name <user>, /join <room>, /leave, /more, /rooms, /quit; anything else is sent")
	commandLoop(ctx, client)
	return nil
}

func commandLoop(ctx context.Context, client *roomchat.Client) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !handleLine(client, line) {
				return
			}
		}
	}
}

// handleLine executes one input line; it reports false on /quit.
func handleLine(client *roomchat.Client, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}

	var err error
	switch {
	case line == "/quit":
		return false
	case strings.HasPrefix(line, "/name "):
		err = client.SetUsername(strings.TrimPrefix(line, "/name "))
	case strings.HasPrefix(line, "/join "):
		err = client.Join(strings.TrimPrefix(line, "/join "))
	case line == "/leave":
		err = client.Leave()
	case line == "/more":
		err = client.LoadMore()
	case line == "/rooms":
		err = client.RefreshRooms()
	case strings.HasPrefix(line, "/"):
		fmt.Printf("unknown command: %s\n", line)
		return true
	default:
		err = client.Send(line)
	}
	if err != nil {
		fmt.Printf("%v\n", err)
	}
	return true
}

func applyFlagOverrides(cmd *cobra.Command, cfg *Config) {
	if cmd.Flags().Changed("url") {
		cfg.URL = flagURL
	}
	if cmd.Flags().Changed("user") {
		cfg.Username = flagUser
	}
	if cmd.Flags().Changed("room") {
		cfg.Room = flagRoom
	}
	if cmd.Flags().Changed("page-size") {
		cfg.PageSize = flagPageSize
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
}

func newLogger(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
