package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// remoteTimeout bounds one delivery to the log sink.
const remoteTimeout = 3 * time.Second

// RemoteHandler posts each record as a JSON object to a log ingestion
// endpoint with bearer auth. Delivery failures are ignored.
type RemoteHandler struct {
	endpoint string
	token    string
	level    slog.Leveler
	client   *http.Client
	attrs    []slog.Attr
	group    string
}

// NewRemoteHandler returns a handler shipping records at or above level.
func NewRemoteHandler(endpoint, token string, level slog.Leveler) *RemoteHandler {
	return &RemoteHandler{
		endpoint: endpoint,
		token:    token,
		level:    level,
		client:   &http.Client{Timeout: remoteTimeout},
	}
}

// Enabled reports whether level meets the configured minimum.
func (h *RemoteHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle sends rec synchronously, giving up after remoteTimeout or when ctx
// is cancelled. It always returns nil.
func (h *RemoteHandler) Handle(ctx context.Context, rec slog.Record) error {
	payload := map[string]any{
		"dt":      rec.Time.UTC().Format(time.RFC3339Nano),
		"level":   strings.ToLower(rec.Level.String()),
		"message": rec.Message,
	}
	for _, a := range h.attrs {
		addAttr(payload, h.group, a)
	}
	rec.Attrs(func(a slog.Attr) bool {
		addAttr(payload, h.group, a)
		return true
	})

	body, err := json.Marshal(payload)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil
	}
	_ = resp.Body.Close()
	return nil
}

// WithAttrs returns a copy that adds attrs to every record.
func (h *RemoteHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &c
}

// WithGroup returns a copy that prefixes subsequent keys with name.
func (h *RemoteHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group = joinKey(h.group, name)
	return &c
}

func addAttr(m map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := joinKey(prefix, a.Key)
		for _, ga := range a.Value.Group() {
			addAttr(m, p, ga)
		}
		return
	}

	v := a.Value.Any()
	if err, ok := v.(error); ok {
		v = err.Error()
	}
	m[joinKey(prefix, a.Key)] = v
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}
