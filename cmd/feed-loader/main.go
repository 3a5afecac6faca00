package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"siemlite/internal/threat"
)

func main() {
	out := flag.String("out", "threat_feeds.txt", "merged feed file to write")
	timeout := flag.Duration("timeout", 30*time.Second, "overall fetch timeout")
	flag.Parse()

	sources := flag.Args()
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "usage: feed-loader [-out file] [-timeout d] source...")
		fmt.Fprintln(os.Stderr, "a source is a local feed file or an http(s):// URL")
		os.Exit(2)
	}

	set := threat.NewFeedSet()
	refresher := threat.NewRefresher(set)
	for _, src := range sources {
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			refresher.Register(&threat.HTTPFetcher{URL: src})
		} else {
			refresher.Register(&threat.FileFetcher{Path: src})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := refresher.Run(ctx); err != nil {
		slog.Error("feed refresh failed", "err", err)
		os.Exit(1)
	}

	merged := set.Sorted()
	if err := threat.WriteFeed(*out, merged); err != nil {
		slog.Error("writing merged feed", "err", err)
		os.Exit(1)
	}
	slog.Info("merged feed written", "path", *out, "count", len(merged))
}
