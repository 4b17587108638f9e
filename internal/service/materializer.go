package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"clipcast/internal/domain"
	"clipcast/internal/infra"
	"clipcast/internal/storage"
)

// ArtifactMaterializer copies a completed remote asset into durable storage
// and returns a long-lived retrieval reference.
type ArtifactMaterializer interface {
	Materialize(ctx context.Context, ownerID, jobID, assetURI string) (string, error)
}

// Materializer downloads render output from the provider's time-limited URI
// and commits it to the configured blob store. The storage key is derived
// from (ownerID, jobID), so re-materializing the same job overwrites the
// same object instead of duplicating it.
type Materializer struct {
	store      storage.BlobStore
	httpClient *http.Client
	urlExpiry  time.Duration
	logger     infra.Logger
}

// MaterializerOptions configures a Materializer.
type MaterializerOptions struct {
	Store      storage.BlobStore
	HTTPClient *http.Client
	URLExpiry  time.Duration
	Logger     infra.Logger
}

// NewMaterializer constructs a Materializer with sane defaults.
func NewMaterializer(opts MaterializerOptions) (*Materializer, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("materializer: blob store is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	expiry := opts.URLExpiry
	if expiry <= 0 {
		expiry = 30 * 24 * time.Hour
	}
	return &Materializer{
		store:      opts.Store,
		httpClient: httpClient,
		urlExpiry:  expiry,
		logger:     opts.Logger,
	}, nil
}

// ArtifactKey returns the deterministic storage key for a job's output.
func ArtifactKey(ownerID, jobID string) string {
	return fmt.Sprintf("videos/%s/%s.mp4", ownerID, jobID)
}

// Materialize fetches the asset and persists it, returning a signed URL.
func (m *Materializer) Materialize(ctx context.Context, ownerID, jobID, assetURI string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURI, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build fetch request: %v", domain.ErrFetchFailed, err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: asset fetch status %d", domain.ErrFetchFailed, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read asset body: %v", domain.ErrFetchFailed, err)
	}

	key := ArtifactKey(ownerID, jobID)
	if err := m.store.Put(ctx, key, "video/mp4", data); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}
	url, err := m.store.SignedURL(ctx, key, m.urlExpiry)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}

	m.logger.Debug().
		Str("job_id", jobID).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("artifact materialized")
	return url, nil
}

var _ ArtifactMaterializer = (*Materializer)(nil)
