package docstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/travisim/Farmify-sub001/internal/config"
)

// Store is the content-addressed document store. Storing the same bytes
// twice yields the same identifier; documents are immutable.
type Store interface {
	Store(ctx context.Context, data []byte) (string, error)
}

// Checksum returns the hex sha256 of a document, the checksum farmers and
// verifiers recompute independently of the store.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HTTPStore uploads documents to an IPFS-compatible add endpoint.
type HTTPStore struct {
	apiURL     string
	httpClient *http.Client
}

// Init builds the document store client from config.
func Init(cfg config.DocStoreConfig) (*HTTPStore, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("docstore api_url is required")
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPStore{
		apiURL:     cfg.APIURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Store uploads the document and returns its content identifier.
func (s *HTTPStore) Store(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "document")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/api/v0/add", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("document upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("document upload failed: status %d", resp.StatusCode)
	}

	var result struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.Hash == "" {
		return "", fmt.Errorf("document upload returned no content identifier")
	}
	return result.Hash, nil
}
