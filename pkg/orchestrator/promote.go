package orchestrator

import (
	"context"
	"time"

	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/session"
)

// PromoteResult is Promote's return shape: whether the result came from
// cache, the cache key, the full multi-agent result, and the provider
// mix that produced it.
type PromoteResult struct {
	Cached      bool
	Key         string
	Result      *models.MultiAgentResponse
	ProviderMix string
}

// Promote runs SimulateSync's same interpret → cache-check → pipeline
// sequence but reports whether the result came from the cache and under
// which key, so a caller can distinguish a cache hit from a fresh run
// without re-deriving the key itself.
func (o *Orchestrator) Promote(ctx context.Context, threads *session.Threads, req Request) (*PromoteResult, error) {
	start := time.Now()

	result, err := o.interpreter.Interpret(ctx, threads, req.Message)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return &PromoteResult{Result: clarificationResponse(req.SessionID, result)}, nil
	}

	key := o.buildCacheKey(req, result.Proposal)
	if o.cache != nil {
		if entry, ok := o.cache.Lookup(ctx, key); ok {
			resp := entry.Result
			resp.SessionID = req.SessionID
			return &PromoteResult{Cached: true, Key: key, Result: &resp, ProviderMix: entry.ProviderMix}, nil
		}
	}

	resp, err := o.runPipeline(ctx, threads, req, result.Proposal, key, start)
	if err != nil {
		return nil, err
	}
	return &PromoteResult{Cached: false, Key: key, Result: resp, ProviderMix: o.providerMix()}, nil
}
