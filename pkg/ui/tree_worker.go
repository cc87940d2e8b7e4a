package ui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/cpick/pkg/loader"
	"github.com/vanderheijden86/cpick/pkg/model"
	"github.com/vanderheijden86/cpick/pkg/watcher"
)

// WorkerState represents the current state of the tree worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is reloading the tree.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string    // "read", "decode"
	Cause   error     // The underlying error
	Time    time.Time // When the error occurred
	Retries int       // Consecutive failures including this one
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// TreeReloadedMsg is sent when the data files changed and decoded cleanly.
type TreeReloadedMsg struct {
	Tree []model.Node
	Hash string
}

// TreeErrorMsg is sent when a reload fails. The previous tree stays live.
type TreeErrorMsg struct {
	Err error
}

// WorkerConfig configures the TreeWorker.
type WorkerConfig struct {
	Paths         []string
	Keys          model.KeyMapping
	DebounceDelay time.Duration
	// Program receives reload messages. Send takes precedence when set.
	Program *tea.Program
	Send    func(tea.Msg)
}

// TreeWorker watches the data files and reloads the tree off the UI thread.
type TreeWorker struct {
	paths []string
	keys  model.KeyMapping
	send  func(tea.Msg)

	mu         sync.RWMutex
	state      WorkerState
	dirty      bool // True if a change came in while processing
	started    bool
	lastHash   string
	lastError  *WorkerError
	errorCount int

	watchers []*watcher.Watcher
	trigger  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTreeWorker creates a worker for cfg.Paths. Stdin cannot be watched and is
// skipped.
func NewTreeWorker(cfg WorkerConfig) (*TreeWorker, error) {
	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = watcher.DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &TreeWorker{
		paths:   cfg.Paths,
		keys:    cfg.Keys,
		send:    cfg.Send,
		state:   WorkerIdle,
		trigger: make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	if w.send == nil && cfg.Program != nil {
		w.send = cfg.Program.Send
	}

	for _, path := range cfg.Paths {
		if path == loader.Stdin {
			continue
		}
		fw, err := watcher.NewWatcher(path, watcher.WithDebounceDuration(cfg.DebounceDelay))
		if err != nil {
			cancel()
			return nil, err
		}
		w.watchers = append(w.watchers, fw)
	}
	return w, nil
}

// SetProgram routes messages to p. Call before Start.
func (w *TreeWorker) SetProgram(p *tea.Program) {
	w.mu.Lock()
	w.send = p.Send
	w.mu.Unlock()
}

// Start begins watching. Start is idempotent.
func (w *TreeWorker) Start() error {
	w.mu.Lock()
	if w.started || w.state == WorkerStopped {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	for _, fw := range w.watchers {
		if err := fw.Start(); err != nil {
			return err
		}
		w.wg.Add(1)
		go w.forward(fw)
	}
	w.wg.Add(1)
	go w.processLoop()
	return nil
}

// Stop halts the worker. Stop is idempotent.
func (w *TreeWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	w.mu.Unlock()

	w.cancel()
	for _, fw := range w.watchers {
		fw.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		// Timeout waiting for graceful shutdown
	}
}

// TriggerRefresh reloads now, as if a file had changed.
func (w *TreeWorker) TriggerRefresh() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// State returns the current worker state.
func (w *TreeWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// LastError returns the most recent error (nil if the last reload succeeded).
func (w *TreeWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// LastHash returns the content hash of the last tree sent.
func (w *TreeWorker) LastHash() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHash
}

// SetBaseline records hash as already shown, so an unchanged file does not
// produce a reload.
func (w *TreeWorker) SetBaseline(hash string) {
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()
}

func (w *TreeWorker) forward(fw *watcher.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-fw.Changed():
			w.TriggerRefresh()
		}
	}
}

func (w *TreeWorker) processLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.trigger:
			w.process()
		}
	}
}

// process reloads the tree once, and again if a change arrived meanwhile.
func (w *TreeWorker) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		if w.state == WorkerProcessing {
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	msg := w.reload()

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	send := w.send
	w.mu.Unlock()

	if msg != nil && send != nil {
		send(msg)
	}
	if wasDirty {
		w.TriggerRefresh()
	}
}

// safeCompute executes fn and recovers from any panics.
func (w *TreeWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

// recordError tracks an error and updates error state.
func (w *TreeWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

// reload reads and decodes every file. It returns nil when the content is
// unchanged since the last tree sent.
func (w *TreeWorker) reload() tea.Msg {
	start := time.Now()

	var sources [][]byte
	if werr := w.safeCompute("read", func() error {
		for _, path := range w.paths {
			if path == loader.Stdin {
				continue
			}
			data, err := loader.ReadSource(path)
			if err != nil {
				return err
			}
			sources = append(sources, data)
		}
		return nil
	}); werr != nil {
		log.Printf("warning: reloading tree: %v", werr)
		w.recordError(werr)
		return TreeErrorMsg{Err: werr}
	}

	hash := HashSources(sources)
	if hash == w.LastHash() {
		w.recordError(nil)
		return nil
	}

	var tree []model.Node
	if werr := w.safeCompute("decode", func() error {
		i := 0
		for _, path := range w.paths {
			if path == loader.Stdin {
				continue
			}
			format, err := loader.FormatOf(path)
			if err != nil {
				return err
			}
			nodes, err := loader.DecodeTree(sources[i], path, format, w.keys)
			if err != nil {
				return err
			}
			tree = append(tree, nodes...)
			i++
		}
		return nil
	}); werr != nil {
		log.Printf("warning: reloading tree: %v", werr)
		w.recordError(werr)
		return TreeErrorMsg{Err: werr}
	}

	w.recordError(nil)
	w.SetBaseline(hash)
	log.Printf("reloaded tree: %d roots from %d files in %v (hash=%s)", len(tree), len(sources), time.Since(start), hashPrefix(hash))
	return TreeReloadedMsg{Tree: tree, Hash: hash}
}

// HashSources returns a content hash over raw file contents in order.
func HashSources(sources [][]byte) string {
	h := sha256.New()
	for _, src := range sources {
		fmt.Fprintf(h, "%d:", len(src))
		h.Write(src)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// hashPrefix returns up to 16 characters of hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
