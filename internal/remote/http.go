package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPStore talks JSON to a snapshot server:
//
//	GET  {base}/v1/snapshot  -> 200 snapshot body, 404 no data yet
//	PUT  {base}/v1/snapshot  -> 204 on success
//
// Requests authenticate with basic auth from the pass credentials.
type HTTPStore struct {
	base   string
	client *http.Client
	log    *zap.Logger
}

// NewHTTPStore builds a store for baseURL. A zero timeout falls back to 30s.
func NewHTTPStore(baseURL string, timeout time.Duration, log *zap.Logger) *HTTPStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPStore{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (s *HTTPStore) LoadSnapshot(ctx context.Context, creds Credentials) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/v1/snapshot", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(creds.Username, creds.Password)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var snap Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		s.log.Debug("remote snapshot loaded",
			zap.Int("accounts", len(snap.Accounts)),
			zap.Int("transactions", len(snap.Transactions)),
			zap.String("syncId", snap.SyncID))
		return &snap, nil
	case http.StatusNotFound:
		// first sync for this identity
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: load snapshot: status %d", ErrUnreachable, resp.StatusCode)
	}
}

func (s *HTTPStore) SaveSnapshot(ctx context.Context, creds Credentials, snap *Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.base+"/v1/snapshot", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(creds.Username, creds.Password)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: save snapshot: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: save snapshot: status %d", ErrUnreachable, resp.StatusCode)
	}
	s.log.Debug("remote snapshot saved", zap.String("syncId", snap.SyncID))
	return nil
}
