package stubserver

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ayushhunt/jobhelp-sub000/internal/errors"
)

// CertWatcher watches certificate files and serves the freshest key pair
// to the TLS stack. Reloads are debounced so an atomic cert rotation
// (write key, write cert, rename) triggers a single reload.
type CertWatcher struct {
	mu sync.RWMutex

	certFile string
	keyFile  string

	current     *tls.Certificate
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	maxRetries int
	retryDelay time.Duration

	stopChan   chan struct{}
	reloadChan chan struct{}

	onReload func(success bool, err error)
	logger   *errors.Logger

	running bool
}

// NewCertWatcher creates a watcher for the given cert/key pair. The initial
// certificate is loaded eagerly so a bad pair fails at startup, not on the
// first handshake.
func NewCertWatcher(certFile, keyFile string, debounceDelay time.Duration, maxRetries int, retryDelay time.Duration, logger *errors.Logger) (*CertWatcher, error) {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelay == 0 {
		retryDelay = time.Second
	}

	cw := &CertWatcher{
		certFile:      certFile,
		keyFile:       keyFile,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		maxRetries:    maxRetries,
		retryDelay:    retryDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		logger:        logger,
	}

	if err := cw.loadCertificate(); err != nil {
		return nil, err
	}

	return cw, nil
}

// SetReloadCallback registers a callback invoked after each reload attempt
func (cw *CertWatcher) SetReloadCallback(fn func(success bool, err error)) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.onReload = fn
}

// GetCertificate implements tls.Config.GetCertificate
func (cw *CertWatcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cw.mu.RLock()
	defer cw.mu.RUnlock()

	if cw.current == nil {
		return nil, fmt.Errorf("no certificate loaded")
	}
	return cw.current, nil
}

// LeafExpiryUnix returns the NotAfter time of the current leaf certificate
// as a unix timestamp, or 0 when no certificate is loaded
func (cw *CertWatcher) LeafExpiryUnix() float64 {
	cw.mu.RLock()
	defer cw.mu.RUnlock()

	if cw.current == nil || cw.current.Leaf == nil {
		return 0
	}
	return float64(cw.current.Leaf.NotAfter.Unix())
}

// Start begins watching the certificate files for changes
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cw.fsWatcher = watcher

	if err := cw.recordModTimes(); err != nil {
		cw.closeWatcher()
		return fmt.Errorf("failed to record initial modification times: %w", err)
	}

	for _, file := range cw.watchedFiles() {
		if err := cw.watchFile(file); err != nil && cw.logger != nil {
			cw.logger.Warn("Failed to watch certificate file", "file", file, "error", err)
		}
	}

	cw.running = true
	go cw.watchLoop()

	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher started",
			"files", cw.watchedFiles(),
			"debounce_delay", cw.debounceDelay)
	}
	return nil
}

// Stop stops the certificate file watcher
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}

	close(cw.stopChan)

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}

	if cw.fsWatcher != nil {
		if err := cw.fsWatcher.Close(); err != nil {
			if cw.logger != nil {
				cw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	cw.running = false

	if cw.logger != nil {
		cw.logger.Info("Certificate file watcher stopped")
	}
	return nil
}

// IsRunning returns whether the watcher is currently running
func (cw *CertWatcher) IsRunning() bool {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.running
}

// GetWatchedFiles returns the list of files being watched
func (cw *CertWatcher) GetWatchedFiles() []string {
	return cw.watchedFiles()
}

func (cw *CertWatcher) watchedFiles() []string {
	files := []string{}
	if cw.certFile != "" {
		files = append(files, cw.certFile)
	}
	if cw.keyFile != "" {
		files = append(files, cw.keyFile)
	}
	return files
}

// loadCertificate parses the key pair from disk and swaps it in
func (cw *CertWatcher) loadCertificate() error {
	cert, err := tls.LoadX509KeyPair(cw.certFile, cw.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate pair: %w", err)
	}
	cw.current = &cert
	return nil
}

// reloadWithRetry attempts the reload a few times. Cert rotations are not
// atomic across two files, so the first attempt can see a mismatched pair.
func (cw *CertWatcher) reloadWithRetry() {
	var lastErr error
	for attempt := 0; attempt < cw.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(cw.retryDelay)
		}

		cw.mu.Lock()
		lastErr = cw.loadCertificate()
		callback := cw.onReload
		cw.mu.Unlock()

		if lastErr == nil {
			if callback != nil {
				callback(true, nil)
			}
			return
		}
	}

	cw.mu.RLock()
	callback := cw.onReload
	cw.mu.RUnlock()

	if callback != nil {
		callback(false, lastErr)
	}
}

func (cw *CertWatcher) closeWatcher() {
	if cw.fsWatcher != nil {
		if closeErr := cw.fsWatcher.Close(); closeErr != nil && cw.logger != nil {
			cw.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
	}
}

// watchFile adds a file and its directory to the watcher. The directory is
// watched too so atomic writes (rename over the file) are observed.
func (cw *CertWatcher) watchFile(file string) error {
	if err := cw.fsWatcher.Add(file); err != nil {
		if os.IsNotExist(err) {
			dir := filepath.Dir(file)
			if err := cw.fsWatcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", dir, err)
			}
			if cw.logger != nil {
				cw.logger.Info("Watching directory for certificate file",
					"file", file, "directory", dir)
			}
		} else {
			return fmt.Errorf("failed to watch file %s: %w", file, err)
		}
	}

	dir := filepath.Dir(file)
	if err := cw.fsWatcher.Add(dir); err != nil {
		if cw.logger != nil {
			cw.logger.Warn("Failed to watch directory for atomic writes",
				"directory", dir, "error", err)
		}
	}

	return nil
}

func (cw *CertWatcher) recordModTimes() error {
	for _, file := range cw.watchedFiles() {
		stat, err := os.Stat(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat file %s: %w", file, err)
		}
		cw.lastModTime[file] = stat.ModTime()
	}
	return nil
}

// hasFileChanged checks whether the file on disk is newer than last seen
func (cw *CertWatcher) hasFileChanged(file string) bool {
	stat, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			if _, exists := cw.lastModTime[file]; exists {
				delete(cw.lastModTime, file)
				return true
			}
		}
		return false
	}

	lastMod, exists := cw.lastModTime[file]
	if !exists || stat.ModTime().After(lastMod) {
		cw.lastModTime[file] = stat.ModTime()
		return true
	}

	return false
}

func (cw *CertWatcher) hasAnyFileChanged() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	changed := false
	for _, file := range cw.watchedFiles() {
		if cw.hasFileChanged(file) {
			changed = true
		}
	}
	return changed
}

// watchLoop is the main event loop for file watching
func (cw *CertWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.shouldProcessEvent(event) {
				cw.scheduleReload()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			if cw.logger != nil {
				cw.logger.LogError(err, "File watcher error")
			}

		case <-cw.reloadChan:
			if cw.hasAnyFileChanged() {
				if cw.logger != nil {
					cw.logger.Info("Certificate files changed, reloading")
				}
				cw.reloadWithRetry()
			}

		case <-cw.stopChan:
			return
		}
	}
}

// shouldProcessEvent filters events down to writes/creates/renames of the
// watched files
func (cw *CertWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	matched := false
	for _, file := range cw.watchedFiles() {
		if event.Name == file || filepath.Base(event.Name) == filepath.Base(file) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleReload schedules a debounced reload
func (cw *CertWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}

	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, func() {
		select {
		case cw.reloadChan <- struct{}{}:
		default:
		}
	})
}
