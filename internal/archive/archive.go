// Package archive keeps raw artifacts of the WhatsApp channel on local disk:
// an append-only log of every webhook payload and the images contacts send.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// WebhookLog appends raw webhook payloads to a single text file. Each record
// is "[<local time>]\n<json>\n\n".
type WebhookLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewWebhookLog returns a log writing to path. An empty path disables it.
func NewWebhookLog(path string) *WebhookLog {
	return &WebhookLog{path: path, now: time.Now}
}

// Append writes one record. The payload is re-encoded compactly, keeping
// non-ASCII text as is.
func (w *WebhookLog) Append(payload []byte) error {
	if w == nil || w.path == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return fmt.Errorf("archive: compact payload: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	ts := w.now().Format("2006-01-02 15:04:05.000000")
	_, err = fmt.Fprintf(f, "[%s]\n%s\n\n", ts, buf.Bytes())
	return err
}

// ImageDir stores inbound attachments as "<dir>/<from>_<unix>.png".
type ImageDir struct {
	dir string
}

// NewImageDir returns a store rooted at dir.
func NewImageDir(dir string) *ImageDir {
	return &ImageDir{dir: dir}
}

// SaveImage writes data and returns the file path. The directory is created
// on first use.
func (d *ImageDir) SaveImage(ctx context.Context, from string, data []byte, at time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%d.png", filepath.Base(from), at.Unix())
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
