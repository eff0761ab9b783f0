// Command ownertriebench exercises ownership.TrieArray the way
// iotaledger-trie.go/examples/trie_bench exercises iotaledger-trie.go's
// Merkle trie: generate a synthetic workload, bulk-insert it, and report
// timing and memory stats. Subcommands:
//
//	gen      generate a random range file
//	run      insert a range file (or an in-memory generated one) and report stats
//	snapshot run then flatten and persist a snapshot to the configured backend
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/factgraph/ownertrie/config"
	"github.com/factgraph/ownertrie/ownerset"
	"github.com/factgraph/ownertrie/ownership"
	"github.com/factgraph/ownertrie/storage"
)

const usage = "USAGE: ownertriebench [-n=<num ranges>] [-maxspan=<n>] [-maxgap=<n>] [-config=<path>] <gen|run|snapshot> <file>\n"

var (
	num      = flag.Int("n", 10_000, "number of ranges to generate")
	maxSpan  = flag.Int("maxspan", 64, "maximum keys per generated range")
	maxGap   = flag.Int("maxgap", 256, "maximum keys skipped between generated ranges")
	seed     = flag.Int64("seed", 1, "seed for the range generator")
	cfgPath  = flag.String("config", "", "path to a YAML config file; defaults if empty")
	numOwner = flag.Int("owners", 4, "number of distinct owners to draw from per range")
)

func must(err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	flag.Parse()
	tail := flag.Args()
	if len(tail) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}
	cmd, fname := tail[0], tail[1]

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		must(err)
	}
	must(flag.Set("v", strconv.Itoa(cfg.Verbosity)))

	switch cmd {
	case "gen":
		genFile(fname)
	case "run":
		runFile(fname, cfg)
	case "snapshot":
		snapshotFile(fname, cfg)
	default:
		fmt.Print(usage)
		os.Exit(1)
	}
}

func genFile(fname string) {
	f, err := os.Create(fname)
	must(err)
	defer func() { _ = f.Close() }()

	w := NewRangeStreamWriter(f)
	it := NewRandRangeIterator(RandRangeParams{
		Seed:      *seed,
		NumRanges: *num,
		MaxSpan:   *maxSpan,
		MaxGap:    *maxGap,
	})
	it.Iterate(func(r ownership.Range) bool {
		must(w.Write(r))
		return true
	})
	glog.Infof("wrote %d ranges to %s", w.Count(), fname)
	fmt.Printf("wrote %d ranges to %s\n", w.Count(), fname)
}

// buildTrie either reads ranges from fname (if it exists) or generates
// them on the fly, then bulk-inserts them into a fresh TrieArray. The
// trie's arena slab size is taken from cfg.ArenaSlabHint so a config tuned
// for a large bulk load cuts down on slab growth during the run.
func buildTrie(fname string, cfg config.Config) (*ownership.TrieArray[*ownerset.Set], int) {
	tr := ownership.NewWithArenaSlabSize[*ownerset.Set](cfg.ArenaSlabHint)
	count := 0

	insert := func(r ownership.Range) bool {
		owner := ownerset.Owner(count % *numOwner)
		err := tr.Insert([]ownership.Range{r}, ownerset.Combinator(ownerset.New(owner)))
		must(err)
		count++
		if count%100_000 == 0 {
			glog.Infof("inserted %d ranges", count)
		}
		return true
	}

	if f, err := os.Open(fname); err == nil {
		defer func() { _ = f.Close() }()
		must(NewRangeStreamIterator(f).Iterate(insert))
		return tr, count
	}

	it := NewRandRangeIterator(RandRangeParams{
		Seed:      *seed,
		NumRanges: *num,
		MaxSpan:   *maxSpan,
		MaxGap:    *maxGap,
	})
	it.Iterate(insert)
	return tr, count
}

func runFile(fname string, cfg config.Config) {
	start := time.Now()
	tr, count := buildTrie(fname, cfg)
	elapsed := time.Since(start)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	var leaves int
	tr.Foreach(func(s *ownerset.Set) (*ownerset.Set, bool) {
		leaves++
		return s, false
	})

	fmt.Printf("inserted %d ranges in %v (%.0f ranges/sec)\n", count, elapsed, float64(count)/elapsed.Seconds())
	fmt.Printf("resulting payload leaves: %d\n", leaves)
	fmt.Printf("heap alloc: %.2f MB\n", float64(mem.Alloc)/(1024*1024))
}

func snapshotFile(fname string, cfg config.Config) {
	tr, count := buildTrie(fname, cfg)
	flat, err := tr.Flatten(0, ownership.Key(count)*ownership.Key(*maxSpan+*maxGap)+1)
	must(err)

	var kv storage.KVStore
	switch cfg.Backend {
	case config.BackendBadger:
		db, closeFn, err := storage.OpenBadger(cfg.BadgerDir)
		must(err)
		defer func() { _ = closeFn() }()
		kv = storage.NewHiveAdaptor(db, storage.SnapshotPrefix)
	default:
		kv = storage.NewHiveAdaptor(storage.OpenMemory(), storage.SnapshotPrefix)
	}

	encode := func(s *ownerset.Set) []byte {
		if s == nil {
			return nil
		}
		out := make([]byte, len(s.Owners())*4)
		for i, o := range s.Owners() {
			out[i*4] = byte(o)
			out[i*4+1] = byte(o >> 8)
			out[i*4+2] = byte(o >> 16)
			out[i*4+3] = byte(o >> 24)
		}
		return out
	}
	must(storage.WriteSnapshot[*ownerset.Set](kv, 0, flat, encode))
	fmt.Printf("wrote snapshot for %d ranges (backend=%s)\n", count, cfg.Backend)
}
