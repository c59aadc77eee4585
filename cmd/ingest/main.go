// Command ingest builds the knowledge index from one or more document files
// and persists it, replacing whatever index was there before. It is an
// offline tool; the brain process loads the result at startup.
package main

// #region imports
import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pepper-tutor/go-brain/internal/config"
	"github.com/pepper-tutor/go-brain/internal/embedding"
	"github.com/pepper-tutor/go-brain/internal/knowledge"
	"github.com/pepper-tutor/go-brain/internal/logging"
)

// #endregion

// #region main
func main() {
	cfgPath := envOr("BRAIN_CONFIG", "brain.yaml")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ingest <file-or-dir> [...]")
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config %s: %v", cfgPath, err)
	}

	logger, err := logging.New(cfg.Logging.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	docs, err := collectDocuments(os.Args[1:])
	if err != nil {
		log.Fatalf("read documents: %v", err)
	}

	embedder, err := embedding.New(cfg.Embedder)
	if err != nil {
		log.Fatalf("init embedder: %v", err)
	}

	splitter, err := knowledge.NewSplitter(cfg.Index)
	if err != nil {
		log.Fatalf("init splitter: %v", err)
	}
	builder := knowledge.NewBuilder(splitter, embedder, cfg.Index.EmbedWorkers, logger)

	fmt.Println("=== Knowledge Ingest ===")
	fmt.Printf("  DB: %s | Embedder: %s\n", cfg.Index.DBPath, embedder.Identity())
	fmt.Printf("  Window: %d chars, overlap %d\n", cfg.Index.WindowSize, cfg.Index.WindowOverlap)
	fmt.Printf("  Documents: %d\n", len(docs))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	ix, err := builder.BuildAll(ctx, docs)
	if err != nil {
		log.Fatalf("build index: %v", err)
	}

	store, err := knowledge.NewStore(cfg.Index.DBPath)
	if err != nil {
		log.Fatalf("open index store: %v", err)
	}
	defer store.Close()

	if err := store.Save(ctx, ix); err != nil {
		log.Fatalf("save index: %v", err)
	}

	fmt.Printf("Indexed %d passages in %v. Done.\n", ix.Len(), time.Since(start).Round(time.Millisecond))
}

// #endregion main

// #region documents

// collectDocuments reads each argument in the order given; directories
// contribute their regular files in name order (os.ReadDir sorts), so
// re-runs produce the same ordinals.
func collectDocuments(args []string) ([]knowledge.Document, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}

	docs := make([]knowledge.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, knowledge.Document{Name: filepath.Base(p), Text: string(data)})
	}
	return docs, nil
}

// #endregion

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
