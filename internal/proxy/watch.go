package proxy

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/internal/gateway"
)

// credentialFile is the minimal rotation payload: editors rewrite this
// file and the running proxy picks up the new client credentials.
type credentialFile struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type credentialWatcher struct {
	path    string
	gateway *gateway.Client
	watcher *fsnotify.Watcher
	logger  *log.Logger
}

func newCredentialWatcher(path string, gw *gateway.Client, logger *log.Logger) (*credentialWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to create credentials watcher", err)
	}

	// Watch the directory, not the file: editors replace files by rename
	// and a file-level watch would go stale after the first rotation.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, faults.NewTypedError(faults.InternalError, "failed to watch credentials directory", err)
	}

	return &credentialWatcher{
		path:    filepath.Clean(path),
		gateway: gw,
		watcher: watcher,
		logger:  logger,
	}, nil
}

func (w *credentialWatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("credentials watcher error: %v", err)
		}
	}
}

func (w *credentialWatcher) reload() {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Printf("failed to read credentials file: %v", err)
		return
	}

	var creds credentialFile
	if err := yaml.Unmarshal(raw, &creds); err != nil {
		w.logger.Printf("credentials file is not valid YAML: %v", err)
		return
	}
	if strings.TrimSpace(creds.ClientID) == "" || strings.TrimSpace(creds.ClientSecret) == "" {
		w.logger.Printf("credentials file is incomplete, ignoring rotation")
		return
	}

	w.gateway.SetCredentials(creds.ClientID, creds.ClientSecret)
	w.logger.Printf("rotated gateway credentials for client %q", creds.ClientID)
}

func (w *credentialWatcher) close() {
	_ = w.watcher.Close()
}
