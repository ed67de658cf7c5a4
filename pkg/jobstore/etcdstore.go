package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/civicsim/orchestrator/pkg/models"
)

const keyPrefix = "/civicsim/jobs/"

// etcdStore is the networked JobStore backend: each job is one etcd key
// under a lease whose TTL matches the configured job retention, so
// abandoned jobs expire without an explicit sweep.
type etcdStore struct {
	client *clientv3.Client
	ttl    time.Duration
}

func newEtcdStore(ctx context.Context, endpoints []string, ttl time.Duration) (*etcdStore, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to etcd: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Status(pingCtx, endpoints[0]); err != nil {
		client.Close()
		return nil, fmt.Errorf("etcd status check: %w", err)
	}

	return &etcdStore{client: client, ttl: ttl}, nil
}

func jobKey(jobID string) string { return keyPrefix + jobID }

func (s *etcdStore) Create(ctx context.Context, job *models.SimulationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	lease, err := s.client.Grant(ctx, int64(s.ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("grant lease: %w", err)
	}

	_, err = s.client.Put(ctx, jobKey(job.JobID), string(payload), clientv3.WithLease(lease.ID))
	if err != nil {
		return fmt.Errorf("put job: %w", err)
	}
	return nil
}

func (s *etcdStore) Get(ctx context.Context, jobID string) (*models.SimulationJob, error) {
	resp, err := s.client.Get(ctx, jobKey(jobID))
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrJobNotFound
	}

	var job models.SimulationJob
	if err := json.Unmarshal(resp.Kvs[0].Value, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// Update performs a read-modify-write guarded by an etcd transaction that
// only commits if the key's mod revision hasn't changed since the read,
// giving single-writer-per-job semantics even across multiple orchestrator
// processes sharing the same etcd cluster.
func (s *etcdStore) Update(ctx context.Context, jobID string, mutate func(*models.SimulationJob)) (*models.SimulationJob, error) {
	key := jobKey(jobID)

	for {
		resp, err := s.client.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("get job for update: %w", err)
		}
		if len(resp.Kvs) == 0 {
			return nil, ErrJobNotFound
		}

		var job models.SimulationJob
		if err := json.Unmarshal(resp.Kvs[0].Value, &job); err != nil {
			return nil, fmt.Errorf("decode job for update: %w", err)
		}
		mutate(&job)

		payload, err := json.Marshal(&job)
		if err != nil {
			return nil, fmt.Errorf("encode updated job: %w", err)
		}

		modRev := resp.Kvs[0].ModRevision
		txnResp, err := s.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(key), "=", modRev)).
			Then(clientv3.OpPut(key, string(payload), clientv3.WithIgnoreLease())).
			Commit()
		if err != nil {
			return nil, fmt.Errorf("commit job update: %w", err)
		}
		if txnResp.Succeeded {
			return &job, nil
		}
		// Another writer updated the job between our read and write; retry.
	}
}

func (s *etcdStore) Delete(ctx context.Context, jobID string) error {
	_, err := s.client.Delete(ctx, jobKey(jobID))
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func (s *etcdStore) Close() error {
	return s.client.Close()
}
