package main

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Denis16-blip/store-checklist-bot/internal/bridge"
	"github.com/Denis16-blip/store-checklist-bot/internal/checklist"
	"github.com/Denis16-blip/store-checklist-bot/internal/engine"
	"github.com/Denis16-blip/store-checklist-bot/internal/log"
	"github.com/Denis16-blip/store-checklist-bot/internal/session"
	"github.com/Denis16-blip/store-checklist-bot/internal/telegram"
	"github.com/Denis16-blip/store-checklist-bot/internal/version"
	"github.com/Denis16-blip/store-checklist-bot/internal/web"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	flagAddr  string
	flagDebug bool
)

var rootCmd = &cobra.Command{
	Use:          "checklist-bot",
	Short:        "Telegram bot walking store staff through the merchandising checklist",
	Version:      strings.TrimSpace(version.Version().String()),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		cfg, err := loadConfig(os.Getenv)
		if err != nil {
			return err
		}
		if flagAddr != "" {
			cfg.Addr = flagAddr
		}
		log.Init(log.Config{Level: cfg.LogLevel, Console: flagDebug})
		if flagDebug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}

		a := &app{cfg: cfg}
		if err := a.doInit(); err != nil {
			return err
		}
		return a.run(ctx)
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagAddr, "addr", "", "Address to listen on (overrides PORT).")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "Enable console output at debug level.")
}

// config is read-only after loadConfig.
type config struct {
	Token       string
	Secret      string
	BaseURL     string
	AdminChatID int64
	Addr        string
	LogLevel    string
}

func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		Token:    getenv("BOT_TOKEN"),
		Secret:   getenv("TG_SECRET"),
		BaseURL:  strings.TrimSuffix(getenv("BASE_URL"), "/"),
		LogLevel: getenv("LOG_LEVEL"),
	}
	if cfg.Token == "" {
		return config{}, fmt.Errorf("BOT_TOKEN is not set")
	}
	if admin := getenv("TELEGRAM_ADMIN_ID"); admin != "" {
		id, err := strconv.ParseInt(admin, 10, 64)
		if err != nil {
			return config{}, fmt.Errorf("TELEGRAM_ADMIN_ID must be an integer: %v", err)
		}
		cfg.AdminChatID = id
	}
	cfg.Addr = ":" + cmp.Or(getenv("PORT"), "8080")
	return cfg, nil
}

type app struct {
	cfg config

	// initialized by doInit
	httpc    *http.Client
	scrubber *strings.Replacer
	tg       *telegram.Client
	list     *checklist.List
	sessions *session.Store
	eng      *engine.Engine
	bridge   *bridge.Bridge[*telegram.Update]
	mux      *http.ServeMux
	srv      *web.Server
	log      zerolog.Logger
	started  time.Time
}

func (a *app) doInit() error {
	a.started = time.Now()
	a.log = log.WithComponent("app")

	if a.httpc == nil {
		a.httpc = &http.Client{Timeout: 30 * time.Second}
	}

	var scrubPairs []string
	for _, val := range []string{a.cfg.Token, a.cfg.Secret} {
		if val != "" {
			scrubPairs = append(scrubPairs, val, "[EXPUNGED]")
		}
	}
	if len(scrubPairs) > 0 {
		a.scrubber = strings.NewReplacer(scrubPairs...)
	}

	if a.tg == nil {
		a.tg = &telegram.Client{
			Token:      a.cfg.Token,
			HTTPClient: a.httpc,
			Scrubber:   a.scrubber,
		}
	}

	list, err := checklist.Load()
	if err != nil {
		return err
	}
	a.list = list

	a.sessions = session.NewStore()
	a.eng = engine.New(a.list, a.sessions, a.tg, a.cfg.AdminChatID, log.WithComponent("engine"))
	a.bridge = &bridge.Bridge[*telegram.Update]{
		Init:   a.initProvider,
		Handle: a.eng.HandleUpdate,
		Key:    func(u *telegram.Update) int64 { return u.ChatID() },
		Log:    log.WithComponent("bridge"),
	}

	a.initRoutes()
	a.srv = &web.Server{
		Addr:  a.cfg.Addr,
		Mux:   a.mux,
		Ready: a.bridge.Ready,
		Log:   log.WithComponent("web"),
	}
	return nil
}

// initProvider runs on the runtime goroutine; readiness is signalled only
// after it returns nil.
func (a *app) initProvider(ctx context.Context) error {
	me, err := a.tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("getMe: %w", err)
	}
	a.log.Info().Str("bot", me.Username).Int64("bot_id", me.ID).Msg("authenticated with Telegram")

	if a.cfg.BaseURL == "" {
		a.log.Warn().Msg("BASE_URL is not set, skipping webhook registration")
		return nil
	}
	return a.setWebhook(ctx)
}

func (a *app) run(ctx context.Context) error {
	a.bridge.Start(ctx)
	go a.sessions.Janitor(ctx, time.Hour, 24*time.Hour, log.WithComponent("sessions"))
	return a.srv.ListenAndServe(ctx)
}
