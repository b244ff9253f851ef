// Command rulecore runs a Horn-clause rule-mining job against a
// BadgerDB-backed knowledge base, optionally streaming results to a file
// and/or a libp2p gossip topic in real time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ruleminer/core/config"
	"ruleminer/core/defaultassistant"
	"ruleminer/core/engine"
	"ruleminer/core/kb"
	"ruleminer/core/sink"
)

func main() {
	var (
		kbDir           = flag.String("kb-dir", "data", "Directory for the BadgerDB-backed knowledge base")
		mmapTriples     = flag.String("mmap-triples", "", "Path to a memory-mapped triple-block file (not wired in: setting it aborts startup)")
		rulesOut        = flag.String("rules-out", "rules.tsv", "Rule sink path (.gz suffix enables gzip)")
		minSupport      = flag.Int("min-support", 100, "Minimum support count")
		minInitSupport  = flag.Int("min-initial-support", 100, "Minimum support for seed relations")
		minHeadCoverage = flag.Float64("min-head-coverage", 0.01, "Minimum head coverage")
		minStdConf      = flag.Float64("min-std-confidence", 0.1, "Minimum standard confidence")
		minPCAConf      = flag.Float64("min-pca-confidence", 0.1, "Minimum PCA confidence")
		maxDepth        = flag.Int("max-depth", 3, "Maximum rule depth")
		metric          = flag.String("pruning-metric", "support", "Pruning metric: support|head-coverage")
		nThreads        = flag.Int("n-threads", 0, "Worker pool size (0 = GOMAXPROCS)")
		realTime        = flag.Bool("real-time", true, "Stream rules to the sink as they are confirmed")
		skyline         = flag.Bool("skyline", true, "Enable skyline (Pareto) output suppression")
		perfectPrune    = flag.Bool("perfect-rule-pruning", true, "Stop refining confidence-1 rules")
		upperBoundPrune = flag.Bool("upper-bound-pruning", true, "Gate exact confidence computation on cheap bounds")
		allowConstants  = flag.Bool("allow-constants", true, "Allow constant-bearing atoms")
		enforceConst    = flag.Bool("enforce-constants", false, "Require at least one constant atom per emitted rule")
		typeRelation    = flag.Uint64("type-relation", 0, "Relation id treated as a type/is-a relation for depth accounting")
		seeds           = flag.String("seeds", "", "Comma-separated relation ids to seed from (default: all relations)")
		pubsubEnabled   = flag.Bool("pubsub", false, "Gossip emitted rules over libp2p")
		p2pPort         = flag.Int("p2p-port", 4101, "P2P listen port")
		peerMultiaddr   = flag.String("peer-multiaddr", "", "Multiaddr of a peer to connect to")
		metricsAddr     = flag.String("metrics-addr", "", "Address to serve /metrics on (empty disables it)")
		verbose         = flag.Bool("verbose", false, "Enable verbose diagnostic logging")
	)
	flag.Parse()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Printf("[METRICS] serving on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Printf("[METRICS] server exited: %v", err)
			}
		}()
	}

	cfg := config.Default()
	cfg.MinSupport = *minSupport
	cfg.MinInitialSupport = *minInitSupport
	cfg.MinHeadCoverage = *minHeadCoverage
	cfg.MinStdConfidence = *minStdConf
	cfg.MinPCAConfidence = *minPCAConf
	cfg.MaxDepth = *maxDepth
	cfg.NThreads = *nThreads
	cfg.RealTime = *realTime
	cfg.Skyline = *skyline
	cfg.PerfectRulePrune = *perfectPrune
	cfg.UpperBoundPrune = *upperBoundPrune
	cfg.AllowConstants = *allowConstants
	cfg.EnforceConstants = *enforceConst
	cfg.Verbose = *verbose
	if strings.EqualFold(*metric, "head-coverage") {
		cfg.PruningMetric = config.HeadCoverage
	}

	store, err := openKB(*kbDir, *mmapTriples)
	if err != nil {
		log.Fatalf("[FATAL] failed to open knowledge base: %v", err)
	}
	defer store.Close()

	a := defaultassistant.New(store, cfg, uint32(*typeRelation))

	var sinks []sink.Sink
	fileSink, err := sink.NewFileSink(*rulesOut)
	if err != nil {
		log.Fatalf("[FATAL] failed to open rule sink %s: %v", *rulesOut, err)
	}
	sinks = append(sinks, fileSink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *pubsubEnabled {
		ps, err := sink.NewPubSubSink(ctx, *p2pPort, *peerMultiaddr)
		if err != nil {
			log.Fatalf("[FATAL] failed to start pubsub sink: %v", err)
		}
		sinks = append(sinks, ps)
	}

	out := sink.Sink(sinks[0])
	if len(sinks) > 1 {
		out = sink.NewMultiSink(sinks...)
	}

	eng, err := engine.New(cfg, a, out)
	if err != nil {
		log.Fatalf("[FATAL] invalid configuration: %v", err)
	}

	seedIDs, err := parseSeeds(*seeds)
	if err != nil {
		log.Fatalf("[FATAL] invalid -seeds: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("[RULECORE] shutdown signal received, finishing in-flight mining...")
		cancel()
	}()

	log.Printf("[RULECORE] starting mining run: min_support=%d max_depth=%d n_threads=%d",
		cfg.MinSupport, cfg.MaxDepth, cfg.NThreads)

	result, err := eng.Mine(seedIDs)
	if err != nil {
		log.Fatalf("[FATAL] mining run failed: %v", err)
	}

	log.Printf("[RULECORE] mining complete: %s rules emitted, %s candidates dequeued, queue peak depth=%s",
		humanize.Comma(int64(len(result.Rules))),
		humanize.Comma(int64(result.QueueStats.TotalDequeued)),
		humanize.Comma(int64(result.QueueStats.PeakDepth)))
}

func openKB(dataDir, mmapPath string) (kb.KB, error) {
	if mmapPath != "" {
		// The index table for a memory-mapped corpus is expected to live
		// alongside the block file; callers producing such a corpus are
		// responsible for building and persisting that table themselves.
		return nil, fmt.Errorf("cmd/rulecore: -mmap-triples requires a prebuilt index table, none wired in this entrypoint")
	}
	return kb.OpenBadgerKB(dataDir)
}

func parseSeeds(s string) ([]uint32, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("seed id %q: %w", p, err)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}
