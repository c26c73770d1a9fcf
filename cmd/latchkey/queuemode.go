package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"latchkey/catalog"
	"latchkey/config"
	"latchkey/logx"
	"latchkey/queue"
	"latchkey/scanner/engine"
	"latchkey/scanner/target"
)

// maxIdlePasses bounds how many consecutive empty passes across every shard
// a worker tolerates before concluding the queue is drained and exiting,
// the same way the dequeueRunningTask/worker loop this was adapted from
// eventually stops polling a queue nothing is feeding anymore.
const maxIdlePasses = 3

// enqueueProbes pushes every probe onto the distributed queue instead of
// scanning it in this process (SPEC_FULL.md §7.2), so one or more
// `-queue-worker` processes elsewhere can drain it.
func enqueueProbes(ctx context.Context, settings *config.Settings, probes []target.Probe, log *logx.Logger, stdout io.Writer) int {
	q := queue.New(queue.Config{Addr: settings.RedisAddr})
	defer q.Close()

	enqueued := 0
	for _, p := range probes {
		if err := q.Enqueue(ctx, p); err != nil {
			log.Errorf("enqueueing %s: %v", p.URL, err)
			continue
		}
		enqueued++
	}

	fmt.Fprintf(stdout, "enqueued %d of %d probes onto %s\n", enqueued, len(probes), settings.RedisAddr)
	return 0
}

// runQueueWorker drains every shard of the distributed queue, re-attaching
// each dequeued probe's profile from the locally loaded catalogue (the
// queue only carries the profile name across the Redis boundary), scanning
// it through the same engine the direct-scan path uses, and printing any
// matches. It exits once maxIdlePasses consecutive full passes over every
// shard come back empty.
func runQueueWorker(ctx context.Context, settings *config.Settings, cat *catalog.Catalogue, proxyURL *url.URL, fingerprintOnly bool, log *logx.Logger, stdout io.Writer) int {
	q := queue.New(queue.Config{Addr: settings.RedisAddr})
	defer q.Close()

	profilesByName := make(map[string]*catalog.Profile, len(cat.Profiles()))
	for _, p := range cat.Profiles() {
		profilesByName[p.Name] = p
	}

	idle := 0
	for idle < maxIdlePasses {
		dequeuedAny := false

		for shard := 0; shard < q.ShardCount(); shard++ {
			probeURL, profileName, err := q.Dequeue(ctx, shard)
			if err != nil {
				log.Errorf("dequeuing shard %d: %v", shard, err)
				continue
			}
			if probeURL == "" {
				continue
			}
			dequeuedAny = true

			profile, ok := profilesByName[profileName]
			if !ok {
				log.Errorf("dequeued %s for unknown profile %q, skipping", probeURL, profileName)
				continue
			}

			probe := target.Probe{Target: probeURL, Profile: profile, URL: probeURL}
			results := engine.Run(ctx, []target.Probe{probe}, engine.Config{
				Threads:         1,
				Timeout:         settings.Timeout,
				Proxy:           proxyURL,
				FingerprintOnly: fingerprintOnly,
			}, log)

			for _, r := range results {
				for _, m := range r.Matches {
					fmt.Fprintf(stdout, "[+] %s %s:%s at %s\n", m.Profile.Name, m.Credential.Username, m.Credential.Password, m.TargetURL)
				}
			}
		}

		if dequeuedAny {
			idle = 0
			continue
		}

		idle++
		if idle < maxIdlePasses {
			time.Sleep(queue.PollInterval())
		}
	}

	log.Infof("queue drained, exiting")
	return 0
}
