package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a lookup finds no matching row.
var ErrNotFound = errors.New("postgres: not found")

// FingerprintRepo persists CacheEntry rows keyed by their fingerprint.
type FingerprintRepo struct {
	client *Client
}

// NewFingerprintRepo builds a repository over client.
func NewFingerprintRepo(client *Client) *FingerprintRepo {
	return &FingerprintRepo{client: client}
}

// Get returns the cache entry for key, or ErrNotFound.
func (r *FingerprintRepo) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	row := r.client.pool.QueryRow(ctx, `
		SELECT scenario_id, key, inputs, result, provider_mix, created_at, updated_at
		FROM fingerprint_cache WHERE key = $1`, key)

	var (
		entry       models.CacheEntry
		inputsBytes []byte
		resultBytes []byte
	)
	if err := row.Scan(&entry.ScenarioID, &entry.Key, &inputsBytes, &resultBytes, &entry.ProviderMix, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get fingerprint entry: %w", err)
	}
	if err := json.Unmarshal(inputsBytes, &entry.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs: %w", err)
	}
	if err := json.Unmarshal(resultBytes, &entry.Result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &entry, nil
}

// Upsert writes entry, overwriting any existing row with the same key:
// writes are idempotent by key.
func (r *FingerprintRepo) Upsert(ctx context.Context, entry models.CacheEntry) error {
	inputsBytes, err := json.Marshal(entry.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	resultBytes, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = r.client.pool.Exec(ctx, `
		INSERT INTO fingerprint_cache (key, scenario_id, proposal_hash, inputs, result, provider_mix, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (key) DO UPDATE SET
			inputs = EXCLUDED.inputs,
			result = EXCLUDED.result,
			provider_mix = EXCLUDED.provider_mix,
			updated_at = now()`,
		entry.Key, entry.ScenarioID, entry.Inputs.ProposalHash, inputsBytes, resultBytes, entry.ProviderMix)
	if err != nil {
		return fmt.Errorf("upsert fingerprint entry: %w", err)
	}
	return nil
}

// InvalidateScenario deletes every entry for scenarioID.
func (r *FingerprintRepo) InvalidateScenario(ctx context.Context, scenarioID string) error {
	_, err := r.client.pool.Exec(ctx, `DELETE FROM fingerprint_cache WHERE scenario_id = $1`, scenarioID)
	if err != nil {
		return fmt.Errorf("invalidate scenario cache: %w", err)
	}
	return nil
}
