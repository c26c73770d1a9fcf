// Command latchkey scans targets against a catalogue of known default
// credentials (spec.md §1, §6).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"latchkey/catalog"
	"latchkey/config"
	"latchkey/logx"
	"latchkey/scanner/engine"
	"latchkey/scanner/target"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(argv []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("latchkey", flag.ContinueOnError)
	catalogueDir := fs.String("catalogue", "catalogue", "directory of .yml credential profiles")
	subnet := fs.String("subnet", "", "subnet or IP to scan")
	targets := fs.String("targets", "", "file of targets to scan, one per line")
	name := fs.String("name", "", "restrict testing to the supplied profile name")
	category := fs.String("category", "", "restrict testing to the supplied category")
	threads := fs.Int("threads", 10, "number of concurrent workers")
	timeout := fs.Int("timeout", 10, "per-request timeout in seconds")
	proxy := fs.String("proxy", "", "http(s) proxy applied to both schemes")
	redisAddr := fs.String("redis-addr", "", "Redis host:port; when set, probes are pushed onto the distributed queue instead of scanned in-process")
	queueWorker := fs.Bool("queue-worker", false, "drain the distributed queue at -redis-addr, scanning dequeued probes, then exit")
	fingerprintOnly := fs.Bool("fingerprint", false, "fingerprint targets, but don't attempt credentials")
	dryrun := fs.Bool("dryrun", false, "print the expanded URL list, then exit")
	validateOnly := fs.Bool("validate", false, "load and validate the catalogue, then exit")
	dump := fs.Bool("dump", false, "print every loaded credential, then exit")
	contributors := fs.Bool("contributors", false, "print the catalogue's contributor set, then exit")
	verbose := fs.Bool("verbose", false, "verbose output")
	debug := fs.Bool("debug", false, "debug output")

	if err := fs.Parse(argv); err != nil {
		return 2
	}

	minLevel := logx.LevelWarn
	if *verbose {
		minLevel = logx.LevelInfo
	}
	if *debug {
		minLevel = logx.LevelDebug
	}
	if *fingerprintOnly && minLevel > logx.LevelInfo {
		// Need INFO to see fingerprint matches when auth is skipped.
		minLevel = logx.LevelInfo
	}
	log := logx.New("latchkey", minLevel, stdout)

	if *subnet == "" && *targets == "" && !*validateOnly && !*contributors && !*dump && !*queueWorker {
		fmt.Fprintln(stdout, "need to supply a subnet or targets file")
		fs.Usage()
		return 2
	}

	settings, err := config.Load(map[string]string{
		"name":     *name,
		"category": *category,
	})
	if err != nil {
		log.Errorf("config: %v", err)
		return 1
	}
	settings.Threads = *threads
	settings.Timeout = time.Duration(*timeout) * time.Second
	if *redisAddr != "" {
		settings.RedisAddr = *redisAddr
	}

	if *queueWorker {
		if settings.RedisAddr == "" {
			fmt.Fprintln(stdout, "-queue-worker requires -redis-addr")
			return 2
		}
		proxyURL, err := parseProxyFlag(*proxy)
		if err != nil {
			log.Errorf("%v", err)
			return 1
		}
		cat, err := catalog.Load(*catalogueDir, catalog.LoadOptions{Name: *name, Category: *category}, log)
		if err != nil {
			log.Errorf("loading catalogue: %v", err)
			return 1
		}
		return runQueueWorker(context.Background(), settings, cat, proxyURL, *fingerprintOnly, log, stdout)
	}

	proxyURL, err := parseProxyFlag(*proxy)
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	if proxyURL != nil {
		log.Infof("setting proxy to %s", *proxy)
	}

	cat, err := catalog.Load(*catalogueDir, catalog.LoadOptions{Name: *name, Category: *category}, log)
	if err != nil {
		log.Errorf("loading catalogue: %v", err)
		return 1
	}

	if *validateOnly {
		profiles, creds := cat.Stats()
		fmt.Fprintf(stdout, "%d profiles, %d credentials validated\n", profiles, creds)
		return 0
	}

	if *contributors {
		for _, c := range cat.Contributors() {
			fmt.Fprintln(stdout, c)
		}
		if !*dump {
			return 0
		}
	}

	if *dump {
		for _, p := range cat.Profiles() {
			for _, c := range p.Auth.Credentials {
				fmt.Fprintf(stdout, "%s: %s:%s\n", p.Name, c.Username, c.Password)
			}
		}
		return 0
	}

	hosts, err := resolveTargets(*subnet, *targets)
	if err != nil {
		log.Errorf("resolving targets: %v", err)
		return 1
	}
	log.Infof("loaded %d targets", len(hosts))

	probes := target.Expand(hosts, cat.Profiles())

	if *dryrun {
		for _, p := range probes {
			fmt.Fprintln(stdout, p.URL)
		}
		return 0
	}

	if settings.RedisAddr != "" {
		return enqueueProbes(context.Background(), settings, probes, log, stdout)
	}

	log.Infof("scanning %d urls", len(probes))

	results := engine.Run(context.Background(), probes, engine.Config{
		Threads:         settings.Threads,
		Timeout:         settings.Timeout,
		Proxy:           proxyURL,
		FingerprintOnly: *fingerprintOnly,
	}, log)

	for _, r := range results {
		for _, m := range r.Matches {
			fmt.Fprintf(stdout, "[+] %s %s:%s at %s\n", m.Profile.Name, m.Credential.Username, m.Credential.Password, m.TargetURL)
		}
	}

	return 0
}

// parseProxyFlag validates an optional http(s) proxy URL, returning (nil,
// nil) when proxy is empty.
func parseProxyFlag(proxy string) (*url.URL, error) {
	if proxy == "" {
		return nil, nil
	}
	u, err := url.Parse(proxy)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid proxy %q, must be http(s)://host:port", proxy)
	}
	return u, nil
}

// resolveTargets builds the flat host list from --subnet and/or --targets.
func resolveTargets(subnet, targetsFile string) ([]string, error) {
	var hosts []string

	if subnet != "" {
		expanded, err := expandSubnet(subnet)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, expanded...)
	}

	if targetsFile != "" {
		f, err := os.Open(targetsFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if line != "" {
				hosts = append(hosts, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	return hosts, nil
}
