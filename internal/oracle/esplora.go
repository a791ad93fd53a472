package oracle

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseSize bounds a block-explorer response body.
const maxResponseSize = 1024 * 1024

// EsploraOracle resolves block headers against an Esplora/Blockstream-style
// REST API. Any compatible server works; BaseURL is fully configurable.
type EsploraOracle struct {
	BaseURL string
	Client  *http.Client
}

// NewEsploraOracle constructs an oracle against baseURL (e.g.
// "https://blockstream.info/api").
func NewEsploraOracle(baseURL string) *EsploraOracle {
	return &EsploraOracle{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// GetBlockHeader implements Oracle for the Bitcoin chain by resolving the
// block hash at height, then fetching that block's header fields.
func (e *EsploraOracle) GetBlockHeader(ctx context.Context, chain string, height uint64) (*BlockHeader, error) {
	if chain != Bitcoin {
		return nil, fmt.Errorf("oracle: esplora backend only supports %s, got %s", Bitcoin, chain)
	}

	hash, err := e.getBlockHash(ctx, height)
	if err != nil {
		return nil, err
	}

	var block struct {
		Timestamp  int64  `json:"timestamp"`
		MerkleRoot string `json:"merkle_root"`
	}
	if err := e.getJSON(ctx, fmt.Sprintf("/block/%s", hash), &block); err != nil {
		return nil, err
	}

	rootBytes, err := hex.DecodeString(block.MerkleRoot)
	if err != nil || len(rootBytes) != 32 {
		return nil, fmt.Errorf("oracle: malformed merkle root for block %s", hash)
	}
	var root [32]byte
	// Esplora reports merkle_root in big-endian display order; the
	// on-wire attestation check compares against the little-endian form,
	// so reverse it here.
	for i := 0; i < 32; i++ {
		root[i] = rootBytes[31-i]
	}

	return &BlockHeader{
		Height:     height,
		MerkleRoot: root,
		Time:       uint32(block.Timestamp),
	}, nil
}

func (e *EsploraOracle) getBlockHash(ctx context.Context, height uint64) (string, error) {
	body, err := e.get(ctx, fmt.Sprintf("/block-height/%d", height))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (e *EsploraOracle) getJSON(ctx context.Context, path string, v interface{}) error {
	body, err := e.get(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func (e *EsploraOracle) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle: unexpected status %d from %s", resp.StatusCode, path)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}
