// Command brain runs the interactive serving loop: it loads the persisted
// knowledge index, wires the retrieval and dispatch pipeline, and answers
// learner utterances read from stdin.
package main

// #region imports
import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/pepper-tutor/go-brain/internal/analytics"
	"github.com/pepper-tutor/go-brain/internal/brain"
	"github.com/pepper-tutor/go-brain/internal/config"
	"github.com/pepper-tutor/go-brain/internal/dispatch"
	"github.com/pepper-tutor/go-brain/internal/embedding"
	"github.com/pepper-tutor/go-brain/internal/gateway"
	"github.com/pepper-tutor/go-brain/internal/knowledge"
	"github.com/pepper-tutor/go-brain/internal/logging"
	"github.com/pepper-tutor/go-brain/internal/prompt"
	"github.com/pepper-tutor/go-brain/internal/retrieval"
)

// #endregion

// degradedReply is spoken when every backend attempt failed. The session
// keeps going; the pipeline fault stays on stderr, not in the child's face.
const degradedReply = "Hmm, my thoughts are a bit slow right now. Ask me again in a moment!"

// #region main
func main() {
	cfgPath := envOr("BRAIN_CONFIG", "brain.yaml")
	userID := envOr("BRAIN_USER", "local-user")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config %s: %v", cfgPath, err)
	}

	logger, err := logging.New(cfg.Logging.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	// Load the persisted index into the holder.
	store, err := knowledge.NewStore(cfg.Index.DBPath)
	if err != nil {
		log.Fatalf("open index store: %v", err)
	}
	ix, err := store.Load(context.Background())
	store.Close()
	if err != nil {
		log.Fatalf("load index (run ingest first?): %v", err)
	}
	holder := &knowledge.Holder{}
	holder.Swap(ix)

	embedder, err := embedding.New(cfg.Embedder)
	if err != nil {
		log.Fatalf("init embedder: %v", err)
	}
	if got := embedder.Identity(); got != ix.Embedder {
		log.Fatalf("embedder mismatch: index built with %s, configured %s", ix.Embedder, got)
	}

	backends, err := gateway.NewBackends(cfg.Backends)
	if err != nil {
		log.Fatalf("init backends: %v", err)
	}
	router, err := gateway.NewRouter(cfg.Routes, backends, cfg.Dispatch.PerCallTimeout.Std(), logger)
	if err != nil {
		log.Fatalf("init router: %v", err)
	}

	var sink dispatch.Sink = dispatch.NopSink{}
	if cfg.Analytics.DBPath != "" {
		recorder, err := analytics.NewRecorder(cfg.Analytics.DBPath, logger)
		if err != nil {
			log.Fatalf("open analytics store: %v", err)
		}
		defer recorder.Close()
		sink = recorder
	}

	handler := dispatch.NewHandler(router, sink, cfg.Dispatch, logger)

	templates := prompt.DefaultTemplates()
	for task, tmpl := range cfg.Templates {
		templates[task] = tmpl
	}
	composer := prompt.NewComposer(cfg.Prompt, templates)
	retriever := retrieval.NewRetriever(embedder, logger)

	b := brain.New(holder, retriever, composer, handler, cfg.Retrieval.TopKDefault, logger)

	fmt.Println("Tutor brain ready.")
	fmt.Printf("  Index: %d passages (%s) | User: %s\n", ix.Len(), ix.Embedder, userID)
	fmt.Println("Type an utterance ('task <name>' to switch, 'quit' to exit):")

	repl(b, userID)
}

// #endregion main

// #region repl
func repl(b *brain.Brain, userID string) {
	scanner := bufio.NewScanner(os.Stdin)
	task := prompt.TaskHint
	persona := prompt.Persona{UserID: userID, AgeBand: prompt.AgeKid}
	var turns []prompt.Turn

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if name, ok := strings.CutPrefix(line, "task "); ok {
			task = prompt.TaskType(strings.TrimSpace(name))
			fmt.Printf("[task set to %s]\n", task)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		resp, err := b.Respond(ctx, brain.Request{
			Task:        task,
			Utterance:   line,
			Persona:     persona,
			RecentTurns: turns,
		})
		cancel()

		reply := degradedReply
		switch {
		case err == nil:
			reply = resp.Text
		case isDispatchFailure(err):
			log.Printf("dispatch failed: %v", err)
		default:
			log.Printf("pipeline error: %v", err)
			continue
		}

		fmt.Printf("\n%s\n\n", reply)
		turns = append(turns,
			prompt.Turn{Role: prompt.RoleUser, Content: line, At: time.Now()},
			prompt.Turn{Role: prompt.RoleAssistant, Content: reply, At: time.Now()},
		)
	}
}

func isDispatchFailure(err error) bool {
	var failure *dispatch.Failure
	return errors.As(err, &failure)
}

// #endregion

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
