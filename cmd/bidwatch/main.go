package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Kunal9s/auctionsync/internal/config"
	"github.com/Kunal9s/auctionsync/internal/countdown"
	"github.com/Kunal9s/auctionsync/internal/metrics"
	"github.com/Kunal9s/auctionsync/internal/reconcile"
	"github.com/Kunal9s/auctionsync/internal/session"

	"github.com/jonboulle/clockwork"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.MetricsAddr != "" {
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	sess, err := session.Open(ctx, cfg, clockwork.NewRealClock())
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session")
	}
	defer sess.Close()

	go watchNotifications(sess)

	statusTicker := time.NewTicker(5 * time.Second)
	defer statusTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			return
		case <-statusTicker.C:
			printStatus(sess)
		}
	}
}

func watchNotifications(sess *session.Session) {
	for n := range sess.Notifications() {
		var ev *zerolog.Event
		switch n.Kind {
		case reconcile.KindOutbid, reconcile.KindConnectionLost,
			reconcile.KindConnectionExhausted, reconcile.KindInitialLoadFailed:
			ev = log.Warn()
		case reconcile.KindBidAcknowledged:
			ev = log.Debug()
		default:
			ev = log.Info()
		}
		ev.Str("kind", string(n.Kind)).
			Str("item_id", n.ItemID).
			Int64("amount", n.Amount).
			Msg(n.Message)
	}
}

func printStatus(sess *session.Session) {
	stats := sess.Stats()
	log.Info().
		Bool("connected", sess.Connected()).
		Int("items", stats.TotalItems).
		Int("active", stats.ActiveAuctions).
		Int("leading", stats.Leading).
		Msg("status")

	now := sess.ServerNow()
	for _, item := range sess.Items() {
		st := countdown.Snapshot(item.EndsAt(), now)
		log.Info().
			Str("item_id", item.ID).
			Str("title", item.Title).
			Int64("current_bid", item.CurrentBid).
			Int("bids", item.BidCount).
			Str("remaining", st.Display).
			Bool("critical", st.Critical).
			Msg("auction")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
