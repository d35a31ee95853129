package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jortega/stocksync/internal/api"
	"github.com/jortega/stocksync/internal/cache"
	"github.com/jortega/stocksync/internal/config"
	"github.com/jortega/stocksync/internal/ledger"
	"github.com/jortega/stocksync/internal/logging"
	"github.com/jortega/stocksync/internal/scanner"
	"github.com/jortega/stocksync/internal/session"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	store := cache.New(cfg.CachePath)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close cache", "error", err)
		}
	}()

	clientOpts := []api.Option{api.WithTimeout(cfg.RequestTimeout), api.WithLogger(logger)}
	sessOpts := []session.Option{}
	if cfg.AuthMode == "bearer" {
		clientOpts = append(clientOpts, api.WithBearerToken(cfg.AuthToken))
		sessOpts = append(sessOpts, session.WithBearerToken(cfg.AuthToken))
	}
	client := api.New(cfg.APIBaseURL, clientOpts...)
	sess := session.New(client, logger, sessOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Email != "" {
		if _, err := sess.Login(ctx, cfg.Email, cfg.Password); err != nil {
			logger.Error("login failed", "error", err)
			return
		}
	} else {
		if _, err := sess.Resume(ctx); err != nil {
			logger.Error("could not resume session, set AUTH_EMAIL/AUTH_PASSWORD to log in", "error", err)
			return
		}
	}

	led := ledger.New(client, store, logger, ledger.Policy{
		PurgeTransactionsOnDelete: cfg.PurgeTransactionsOnDelete,
		ClampNegativeStock:        cfg.ClampNegativeStock,
	})

	if err := led.LoadAll(ctx); err != nil {
		if !api.IsUnavailable(err) {
			logger.Error("failed to load inventory", "error", err)
			return
		}
		logger.Warn("inventory server unreachable, working from cached state", "error", err)
		if err := led.WarmFromCache(ctx); err != nil {
			logger.Error("cache unavailable too", "error", err)
			return
		}
	}

	dec := newLineDecoder()
	wf := scanner.New(led, dec, logger)

	outcomes := make(chan scanner.Outcome, 4)
	go func() {
		if err := wf.Run(ctx, outcomes); err != nil && ctx.Err() == nil {
			logger.Error("scan workflow stopped", "error", err)
		}
		close(outcomes)
	}()
	go func() {
		for out := range outcomes {
			printOutcome(out)
		}
	}()

	runPrompt(ctx, wf, led, sess, dec)
}

// runPrompt is the interactive loop: bare lines are decoded SKU payloads,
// prefixed words are commands.
func runPrompt(ctx context.Context, wf *scanner.Workflow, led *ledger.Ledger, sess *session.Session, dec *lineDecoder) {
	fmt.Println("stocksync ready. Scan a SKU or type: mode <inbound|outbound|lookup>, qty <n>, ok, cancel, summary, items, quit")

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			if err := sess.Logout(ctx); err != nil {
				fmt.Println("logout:", api.UserMessage(err))
			}
			return
		case "mode":
			if len(fields) != 2 {
				fmt.Println("usage: mode <inbound|outbound|lookup>")
				continue
			}
			if err := setMode(wf, fields[1]); err != nil {
				fmt.Println(err)
			}
		case "qty":
			if len(fields) != 2 {
				fmt.Println("usage: qty <n>")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("usage: qty <n>")
				continue
			}
			if err := wf.SetQuantity(n); err != nil {
				fmt.Println(err)
			}
		case "ok":
			out, err := wf.Confirm(ctx)
			if err != nil && out.Message == "" {
				fmt.Println(err)
				continue
			}
			printOutcome(out)
		case "cancel":
			if err := wf.Cancel(); err != nil {
				fmt.Println(err)
			} else {
				fmt.Println("scan discarded, ready to scan")
			}
		case "summary":
			s := led.Summarize()
			fmt.Printf("items: %d  stock: %d  low stock: %d  locations: %d  categories: %d\n",
				s.TotalItems, s.TotalStock, s.LowStockItems, s.Locations, s.Categories)
		case "items":
			for _, it := range led.Items() {
				marker := " "
				if it.LowStock() {
					marker = "!"
				}
				fmt.Printf("%s %-16s %-24s qty=%d\n", marker, it.SKU, it.Name, it.Quantity)
			}
		default:
			if !dec.deliver(line) {
				fmt.Println("scanner is paused, confirm or cancel the pending scan first")
			}
		}
	}
}

func setMode(wf *scanner.Workflow, name string) error {
	switch name {
	case "inbound":
		return wf.SetMode(scanner.ModeInbound)
	case "outbound":
		return wf.SetMode(scanner.ModeOutbound)
	case "lookup":
		return wf.SetMode(scanner.ModeLookup)
	default:
		return fmt.Errorf("unknown mode %q", name)
	}
}

func printOutcome(out scanner.Outcome) {
	switch out.Kind {
	case scanner.OutcomeAwaitingQuantity:
		fmt.Printf("scanned %s: enter qty <n> then ok, or cancel\n", out.SKU)
	case scanner.OutcomeCommitted:
		fmt.Println(out.Message)
	case scanner.OutcomeNeedsCreation:
		fmt.Printf("SKU %s: %s\n", out.SKU, out.Message)
	case scanner.OutcomeFound:
		it := out.Item
		fmt.Printf("%s: %s qty=%d min=%d category=%s\n", it.SKU, it.Name, it.Quantity, it.MinStock, it.Category)
	case scanner.OutcomeNotFound:
		fmt.Printf("SKU %s: item not found\n", out.SKU)
	case scanner.OutcomeFailed:
		fmt.Println("error:", out.Message)
	}
}
