package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/voxlane/console-core/internal/access"
	"github.com/voxlane/console-core/internal/api"
	"github.com/voxlane/console-core/internal/logging"
	"github.com/voxlane/console-core/internal/session"
	"github.com/voxlane/console-core/internal/store"
	"github.com/voxlane/console-core/internal/subscription"
	"github.com/voxlane/console-core/internal/usage"
)

var (
	flagReturnURL   string
	flagInterval    time.Duration
	flagMetricsAddr string

	flagDismissWorkspace string
	flagDismissKind      string
	flagDismissPeriodEnd string
	flagDismissSubID     string
	flagDismissThreshold int
)

type consoleStack struct {
	flags    *store.FlagStore
	fileKV   *store.FileKV
	client   *api.Client
	resolver *access.Resolver
	monitor  *usage.Monitor
	close    func()
}

func buildStack() (*consoleStack, error) {
	logger := logging.Base()

	var (
		kv      store.KV
		fileKV  *store.FileKV
		cleanup = func() {}
		err     error
	)
	switch flagStore {
	case "file":
		fileKV, err = store.NewFileKV(flagDataDir)
		if err != nil {
			return nil, fmt.Errorf("open flag store: %w", err)
		}
		kv = fileKV
	case "sqlite":
		sqliteKV, sqliteErr := store.NewSQLiteKV(flagDataDir)
		if sqliteErr != nil {
			return nil, fmt.Errorf("open flag store: %w", sqliteErr)
		}
		kv = sqliteKV
		cleanup = func() { _ = sqliteKV.Close() }
	case "memory":
		kv = store.NewMemoryKV()
	default:
		return nil, fmt.Errorf("unknown store backend %q", flagStore)
	}

	flags := store.NewFlagStore(kv)
	client := api.New(api.Config{
		BaseURL:            flagAPIURL,
		Tokens:             flags,
		InsecureSkipVerify: flagInsecure,
		Logger:             logger,
	})

	validator := session.NewValidator(flags, client, logger)
	subscriptions := subscription.NewResolver(client, flags, logger)

	return &consoleStack{
		flags:    flags,
		fileKV:   fileKV,
		client:   client,
		resolver: access.NewResolver(validator, subscriptions, client, logger),
		monitor:  usage.NewMonitor(client, flags, logger),
		close:    cleanup,
	}, nil
}

// paymentEvidence reads the payment=success marker off a checkout return URL.
func paymentEvidence(returnURL string) subscription.Evidence {
	if returnURL == "" {
		return subscription.Evidence{}
	}
	parsed, err := url.Parse(returnURL)
	if err != nil {
		return subscription.Evidence{}
	}
	return subscription.Evidence{PaymentSuccess: parsed.Query().Get("payment") == "success"}
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Run one access-resolution pass and print the routing decision",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := buildStack()
		if err != nil {
			return err
		}
		defer stack.close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		decision, err := stack.resolver.Resolve(ctx, paymentEvidence(flagReturnURL))
		if err != nil {
			return fmt.Errorf("resolution pass cancelled: %w", err)
		}
		fmt.Println(decision)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run access resolution on an interval, reloading external flag changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := buildStack()
		if err != nil {
			return err
		}
		defer stack.close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if stack.fileKV != nil {
			watcher, watchErr := store.NewFileWatcher(stack.fileKV, logging.Base())
			if watchErr != nil {
				log.Warn().Err(watchErr).Msg("Flag file watcher unavailable")
			} else if startErr := watcher.Start(); startErr != nil {
				log.Warn().Err(startErr).Msg("Failed to start flag file watcher")
			} else {
				defer watcher.Stop()
			}
		}

		if flagMetricsAddr != "" {
			go serveMetrics(flagMetricsAddr)
		}

		ticker := time.NewTicker(flagInterval)
		defer ticker.Stop()

		ev := paymentEvidence(flagReturnURL)
		for {
			decision, resolveErr := stack.resolver.Resolve(ctx, ev)
			if resolveErr != nil {
				return nil // context cancelled, decision discarded
			}
			fmt.Println(decision)
			// Settlement evidence only applies to the first pass after checkout.
			ev = subscription.Evidence{}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return nil
			}
		}
	},
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("Serving Prometheus metrics")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn().Err(err).Msg("Metrics server stopped")
	}
}

var usageCheckCmd = &cobra.Command{
	Use:   "usage-check",
	Short: "Check the primary workspace for a usage or cancellation nudge",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := buildStack()
		if err != nil {
			return err
		}
		defer stack.close()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		workspaces, err := stack.client.ListMyWorkspaces(ctx)
		if err != nil {
			return fmt.Errorf("list workspaces: %w", err)
		}
		if len(workspaces) == 0 {
			fmt.Println("no workspace")
			return nil
		}

		alert := stack.monitor.Check(ctx, workspaces[0])
		if alert == nil {
			fmt.Println("no alert")
			return nil
		}
		fmt.Printf("[%s] %s\n", alert.Kind, alert.Message)
		return nil
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Record the dismissal of a usage or cancellation nudge",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := buildStack()
		if err != nil {
			return err
		}
		defer stack.close()

		if flagDismissWorkspace == "" {
			return fmt.Errorf("--workspace is required")
		}

		var key store.DismissalKey
		switch store.AlertKind(flagDismissKind) {
		case store.AlertKindUsage:
			if flagDismissPeriodEnd == "" || flagDismissThreshold == 0 {
				return fmt.Errorf("usage dismissals require --period-end and --threshold")
			}
			key = store.UsageDismissal(flagDismissWorkspace, flagDismissPeriodEnd, flagDismissThreshold)
		case store.AlertKindCancelled:
			key = store.CancellationDismissal(flagDismissWorkspace, flagDismissSubID)
		default:
			return fmt.Errorf("unknown alert kind %q", flagDismissKind)
		}

		if err := stack.flags.RecordDismissal(key); err != nil {
			return fmt.Errorf("record dismissal: %w", err)
		}
		fmt.Println("dismissed")
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&flagReturnURL, "return-url", "", "Checkout return URL; payment=success enables settlement retries")

	watchCmd.Flags().StringVar(&flagReturnURL, "return-url", "", "Checkout return URL; payment=success enables settlement retries")
	watchCmd.Flags().DurationVar(&flagInterval, "interval", 30*time.Second, "Delay between resolution passes")
	watchCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9191)")

	dismissCmd.Flags().StringVar(&flagDismissWorkspace, "workspace", "", "Workspace ID the alert belongs to")
	dismissCmd.Flags().StringVar(&flagDismissKind, "kind", "usage", "Alert kind: usage or cancelled")
	dismissCmd.Flags().StringVar(&flagDismissPeriodEnd, "period-end", "", "Billing period end of a usage alert")
	dismissCmd.Flags().StringVar(&flagDismissSubID, "subscription-id", "", "Subscription ID of a cancellation alert")
	dismissCmd.Flags().IntVar(&flagDismissThreshold, "threshold", 0, "Crossed threshold of a usage alert (75 or 90)")
}
