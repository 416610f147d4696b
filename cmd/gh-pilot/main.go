// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Command gh-pilot receives GitHub webhooks and applies the configured rules.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/tari-project/gh-pilot-sub000/internal/actions"
	"github.com/tari-project/gh-pilot-sub000/internal/config"
	"github.com/tari-project/gh-pilot-sub000/internal/dispatch"
	"github.com/tari-project/gh-pilot-sub000/internal/github"
	"github.com/tari-project/gh-pilot-sub000/internal/heuristics"
	"github.com/tari-project/gh-pilot-sub000/internal/merge"
	"github.com/tari-project/gh-pilot-sub000/internal/predicate"
	"github.com/tari-project/gh-pilot-sub000/internal/rules"
	"github.com/tari-project/gh-pilot-sub000/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gh-pilot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile   string
		rulesFile string
		dev       bool
	)

	flagSet := pflag.NewFlagSet("gh-pilot", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "load environment variables from this file if it exists")
	flagSet.StringVar(&rulesFile, "rules", "", "path to the rules file (overrides GHPILOT_RULES_FILE)")
	flagSet.BoolVar(&dev, "dev", false, "human-readable debug logging")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if rulesFile != "" {
		cfg.RulesFile = rulesFile
	}

	log.SetLogger(zap.New(zap.UseDevMode(dev || cfg.Development)))
	logger := log.Log.WithName("gh-pilot")
	ctx = log.IntoContext(ctx, logger)

	ruleSet, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		return err
	}
	logger.Info("Loaded rules", "file", cfg.RulesFile, "rules", ruleSet.Registry.Len())

	httpClient, err := config.NewHTTPClient(ctx, cfg)
	if err != nil {
		return err
	}
	var clientOpts []github.Option
	if cfg.EnterpriseURL != "" {
		clientOpts = append(clientOpts, github.WithEnterpriseURL(cfg.EnterpriseURL))
	}
	provider, err := github.NewClient(httpClient, clientOpts...)
	if err != nil {
		return err
	}

	labels := dispatch.NewWorker("labels", actions.NewExecutor(provider))
	merges := dispatch.NewWorker("merge", merge.NewExecutor(provider))

	dispatcher := dispatch.NewDispatcher(
		ruleSet.Registry,
		predicate.NewEvaluator(heuristics.NewAnalyzer(ruleSet.Heuristics)),
		dispatch.WithRoute(labels, rules.KindAddLabel, rules.KindRemoveLabel, rules.KindCheckConflicts),
		dispatch.WithRoute(merges, rules.KindMerge),
		dispatch.WithFileFetcher(provider),
	)

	server := webhook.NewServer(cfg.Addr, cfg.Port, cfg.WebhookSecret, dispatcher,
		webhook.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		webhook.WithDeliveryCache(cfg.DeliveryCacheSize))

	// Workers stop only after the server has drained accepted deliveries.
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stopWorkers()
		return server.Start(gctx)
	})
	for _, w := range []*dispatch.Worker{labels, merges} {
		g.Go(func() error {
			return w.Start(workerCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Shut down cleanly")
	return nil
}
