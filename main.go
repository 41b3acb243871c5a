package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"masklink/backend/config"
	"masklink/backend/correlate"
	"masklink/backend/hostmask"
	"masklink/backend/logger"
	"masklink/backend/storage"
	"masklink/backend/tui"
)

func main() {
	subnet := flag.Bool("subnet", false, "for hosts that are also an ip address, search the whole /24 subnet")
	depth := flag.Int("depth", 0, "how many correlation iterations to run (0 uses the configured default)")
	ident := flag.Bool("ident", false, "follow idents when expanding")
	plain := flag.Bool("plain", false, "print the result table to stdout instead of the interactive view")
	configPath := flag.String("config", "masklink.ini", "config file path")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] NICK!IDENT@HOST\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	// A malformed seed halts the run before anything touches the store.
	seed, err := hostmask.Parse(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid mask %q: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	params := correlate.Params{
		Seed:         seed,
		Subnet:       *subnet || cfg.Query.Subnet,
		Depth:        *depth,
		FollowIdents: *ident,
	}
	defaults := correlate.DefaultOptions{
		Depth:        cfg.Query.Depth,
		Concurrency:  cfg.Query.Concurrency,
		MaxQPS:       cfg.Query.MaxQPS,
		FollowIdents: cfg.Query.FollowIdents,
	}

	results := make(chan []storage.Sender, 1)

	var log *logrus.Logger
	var ui *tui.App
	if *plain {
		log = logger.New(cfg.LogDataDir, os.Stderr)
	} else {
		ui = tui.New(results)
		log = logger.New(cfg.LogDataDir, ui.LogWriter())
	}
	log.Infof("masklink run %s", uuid.NewString())

	store, err := storage.Open(cfg.Store.Driver, cfg.Store.DSN, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progress := make(chan correlate.Progress, 8)
	go func() {
		for p := range progress {
			log.Debugf("iteration %d: %d queries (%d failed), %d new, %d duplicate",
				p.Iteration, p.Queries, p.Failed, p.Discovered, p.Duplicates)
		}
	}()

	engine := correlate.NewEngine(store, log, defaults)
	go func() {
		senders, err := engine.Run(ctx, params, progress)
		close(progress)
		if err != nil {
			log.WithError(err).Warn("run ended early")
		}
		results <- senders
	}()

	if *plain {
		printTable(<-results)
		return
	}
	if err := ui.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printTable(senders []storage.Sender) {
	sort.SliceStable(senders, func(i, j int) bool {
		return senders[i].Mask.Host.Raw < senders[j].Mask.Host.Raw
	})
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NICK\tIDENT\tHOST\tREALNAME")
	for _, s := range senders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Mask.Nick, s.Mask.Ident, s.Mask.Host.Raw, s.Realname)
	}
	w.Flush()
}
