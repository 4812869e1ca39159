package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zixian-cai/hwgc-soft/addr"
	"github.com/zixian-cai/hwgc-soft/gc"
	"github.com/zixian-cai/hwgc-soft/heap"
	"github.com/zixian-cai/hwgc-soft/memory/cache"
	"github.com/zixian-cai/hwgc-soft/memory/dram"
	"github.com/zixian-cai/hwgc-soft/memory/ptw"
	"github.com/zixian-cai/hwgc-soft/snapshot/loader"
)

// Cache geometry is fixed rather than CLI-selectable: spec.md §6's flag
// surface does not expose it, only --page-size (which the VIPT invariant
// check below must stay compatible with). 64 sets of 8 ways gives a
// 32KB, 64-byte-line L1-like cache; log2(64)=6 set-index bits fit inside
// every supported page size's offset (the smallest, FourKB, has 12).
const (
	cacheSets = 64
	cacheWays = 8
)

var (
	flagObjectModel string
	flagProcessors  int
	flagAlgorithm   string
	flagUseDRAMSim3 bool
	flagDRAMSim3Cfg string
	flagTopology    string
	flagPageSize    string
	flagStatsDB     string
	flagRoots       string
	flagSafetyBound int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <snapshot-path> [<snapshot-path>...]",
	Short: "Run the distributed marking simulation over one or more heap snapshots.",
	Args:  cobra.MinimumNArgs(1),
}

func init() {
	simulateCmd.RunE = runSimulate
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&flagObjectModel, "object-model", "OpenJDK",
		"object header/reference-slot layout: OpenJDK or Bidirectional")
	simulateCmd.Flags().IntVarP(&flagProcessors, "processors", "p", 1,
		"number of per-rank processors (1-8)")
	simulateCmd.Flags().StringVarP(&flagAlgorithm, "algorithm", "a", "NMPGC",
		"simulation algorithm: NMPGC or IdealTraceUtilization")
	simulateCmd.Flags().BoolVar(&flagUseDRAMSim3, "use-dramsim3", false,
		"use the cycle-accurate external DRAM backend instead of the naive model")
	simulateCmd.Flags().StringVar(&flagDRAMSim3Cfg, "dramsim3-config", "",
		"path to a DRAMSim3 config file (taken from $HWGC_DRAMSIM3_CONFIG when the flag is not passed; there is no built-in default config)")
	simulateCmd.Flags().StringVar(&flagTopology, "topology", "Line",
		"interconnect topology: Line, Ring, or FullyConnected")
	simulateCmd.Flags().StringVar(&flagPageSize, "page-size", "FourMB",
		"TLB/cache page size: FourKB, TwoMB, FourMB, or OneGB")
	simulateCmd.Flags().StringVar(&flagStatsDB, "stats-db", "",
		"if set, persist the final statistics table to this SQLite file")
	simulateCmd.Flags().StringVar(&flagRoots, "roots", "single",
		"root-seeding policy: single (all roots to processor 0) or home-rank")
	simulateCmd.Flags().IntVar(&flagSafetyBound, "safety-bound", gc.DefaultSafetyBound,
		"maximum global ticks before a non-terminating simulation is treated as a fatal bug")
}

func parseObjectModelFlag(s string) (gc.ObjectModelKind, error) {
	switch s {
	case "OpenJDK":
		return gc.OpenJDK, nil
	case "Bidirectional":
		return gc.Bidirectional, nil
	default:
		return 0, fmt.Errorf("unknown --object-model %q (want OpenJDK or Bidirectional)", s)
	}
}

func parseAlgorithmFlag(s string) (gc.Algorithm, error) {
	switch s {
	case "NMPGC":
		return gc.NMPGC, nil
	case "IdealTraceUtilization":
		return gc.IdealTraceUtilization, nil
	default:
		return 0, fmt.Errorf("unknown --algorithm %q (want NMPGC or IdealTraceUtilization)", s)
	}
}

func parseTopologyFlag(s string) (gc.TopologyKind, error) {
	switch s {
	case "Line":
		return gc.Line, nil
	case "Ring":
		return gc.Ring, nil
	case "FullyConnected":
		return gc.FullyConnected, nil
	default:
		return 0, fmt.Errorf("unknown --topology %q (want Line, Ring, or FullyConnected)", s)
	}
}

func parsePageSizeFlag(s string) (ptw.PageSize, error) {
	switch s {
	case "FourKB":
		return ptw.FourKB, nil
	case "TwoMB":
		return ptw.TwoMB, nil
	case "FourMB":
		return ptw.FourMB, nil
	case "OneGB":
		return ptw.OneGB, nil
	default:
		return 0, fmt.Errorf("unknown --page-size %q (want FourKB, TwoMB, FourMB, or OneGB)", s)
	}
}

func parseRootsFlag(s string) (gc.RootDistribution, error) {
	switch s {
	case "single":
		return gc.SingleSeed, nil
	case "home-rank":
		return gc.HomeRank, nil
	default:
		return 0, fmt.Errorf("unknown --roots %q (want single or home-rank)", s)
	}
}

// buildConfig assembles and validates a gc.Config from the parsed flags.
// Every error here is a configuration inconsistency per spec.md §7: fatal
// at startup, reported with a descriptive message, never a panic.
func buildConfig(snapshotPaths []string) (gc.Config, error) {
	cfg := gc.DefaultConfig()
	cfg.SnapshotPaths = snapshotPaths
	cfg.Processors = flagProcessors
	cfg.UseDRAMSim3 = flagUseDRAMSim3
	cfg.DRAMSim3ConfigPath = flagDRAMSim3Cfg
	cfg.StatsDBPath = flagStatsDB
	cfg.SafetyBound = flagSafetyBound

	if !simulateCmd.Flags().Changed("dramsim3-config") {
		if env := os.Getenv("HWGC_DRAMSIM3_CONFIG"); env != "" {
			cfg.DRAMSim3ConfigPath = env
		}
	}

	var err error
	if cfg.ObjectModel, err = parseObjectModelFlag(flagObjectModel); err != nil {
		return gc.Config{}, err
	}
	if cfg.Algorithm, err = parseAlgorithmFlag(flagAlgorithm); err != nil {
		return gc.Config{}, err
	}
	if cfg.Topology, err = parseTopologyFlag(flagTopology); err != nil {
		return gc.Config{}, err
	}
	if cfg.PageSize, err = parsePageSizeFlag(flagPageSize); err != nil {
		return gc.Config{}, err
	}
	if cfg.RootDistribution, err = parseRootsFlag(flagRoots); err != nil {
		return gc.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return gc.Config{}, err
	}
	return cfg, nil
}

// loadSnapshots decodes every path with the self-contained record format
// (see snapshot/loader) and merges the results into one heap.Snapshot,
// per spec.md §6's "one or more snapshot file paths" positional argument.
func loadSnapshots(paths []string) (*heap.Snapshot, error) {
	l := loader.New(loader.RecordDecoder{})
	snapshots := make([]*heap.Snapshot, 0, len(paths))
	for _, p := range paths {
		snap, err := l.Load(p)
		if err != nil {
			return nil, &gc.SnapshotError{Path: p, Err: err}
		}
		snapshots = append(snapshots, snap)
	}
	return heap.Merge(snapshots...), nil
}

// buildRankModel constructs the DRAM backend shared by every cache built
// for this run. The naive model is fully implemented; DRAMSim3 is an
// external collaborator (spec.md §1) this repository never implements a
// concrete backend for, so --use-dramsim3 fails descriptively rather than
// silently falling back to the naive model or fabricating a stub.
func buildRankModel(cfg gc.Config) (dram.RankModel, error) {
	if !cfg.UseDRAMSim3 {
		return dram.NewNaive(), nil
	}
	return nil, fmt.Errorf(
		"--use-dramsim3 requires a concrete DRAMSim3 ExternalBackend binding, " +
			"which is an external collaborator not built into this simulator; " +
			"wire a dram.ExternalBackend implementation and pass it through " +
			"dram.NewDRAMSim3Adaptor to enable this flag")
}

func buildObjectModel(kind gc.ObjectModelKind) heap.ObjectModel {
	switch kind {
	case gc.Bidirectional:
		return heap.Bidirectional{}
	default:
		return heap.OpenJDK{}
	}
}

func runSimulate(_ *cobra.Command, args []string) error {
	cfg, err := buildConfig(args)
	if err != nil {
		return err
	}

	snapshot, err := loadSnapshots(cfg.SnapshotPaths)
	if err != nil {
		return err
	}

	rankModel, err := buildRankModel(cfg)
	if err != nil {
		return err
	}

	cacheFactory := func(addr.RankID) cache.Cache {
		return cache.NewSetAssociative(cacheSets, cacheWays, rankModel, cfg.PageSize)
	}
	model := buildObjectModel(cfg.ObjectModel)

	orchestrator, err := gc.New(cfg, snapshot, cacheFactory, model)
	if err != nil {
		return err
	}

	var statsDB *gc.StatsDB
	if cfg.StatsDBPath != "" {
		statsDB, err = gc.OpenStatsDB(cfg.StatsDBPath)
		if err != nil {
			return err
		}
	}

	stats := orchestrator.Run()
	printStats(stats)

	if statsDB != nil {
		if err := statsDB.Write(stats); err != nil {
			return err
		}
	}

	return nil
}

func printStats(stats gc.Stats) {
	fmt.Printf("total_ticks:    %d\n", stats.TotalTicks)
	fmt.Printf("utilization:    %.4f\n", stats.Utilization)
	fmt.Printf("read_hit_rate:  %.4f\n", stats.ReadHitRate)
	fmt.Printf("write_hit_rate: %.4f\n", stats.WriteHitRate)
	fmt.Printf("tlb_hit_rate:   %.4f\n", stats.TLBHitRate)
	fmt.Printf("marked_objects: %d\n", stats.MarkedObjects)
	fmt.Printf("host_id:        %s\n", stats.Host.ID)
	fmt.Printf("host_cpus:      %d\n", stats.Host.CPUs)

	fmt.Println("links:")
	for _, l := range stats.Links {
		fmt.Printf("  %d->%d  forwarded=%d  peak_flits=%d  peak_GB/s=%.3f  avg_GB/s=%.3f\n",
			l.From, l.To, l.MessagesForwarded, l.PeakFlitsPerTick, l.PeakGBps, l.AvgGBps)
	}
}
