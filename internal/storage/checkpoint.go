package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finvista/evograph/internal/util"
	"github.com/finvista/evograph/pkg/common"
	"github.com/finvista/evograph/pkg/engine"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3CheckpointStore persists per-partition link results as JSON objects
// under checkpoints/<runID>/<partition>.json so an interrupted full run can
// resume on another worker.
type S3CheckpointStore struct {
	client s3API
}

// s3API narrows what the checkpoint store needs from the S3 surface so
// tests can fake it.
type s3API interface {
	getFile(ctx context.Context, key string) ([]byte, error)
	putFile(ctx context.Context, key string, data []byte, contentType string) error
	deleteKeys(ctx context.Context, prefix string) error
}

// NewS3CheckpointStore wraps an S3 client as an engine.CheckpointStore.
// A nil client yields a nil store, which the engine treats as "no
// checkpointing".
func NewS3CheckpointStore(client *s3.Client) *S3CheckpointStore {
	if client == nil {
		return nil
	}
	return &S3CheckpointStore{client: &realS3{client: client}}
}

var _ engine.CheckpointStore = (*S3CheckpointStore)(nil)

func checkpointKey(runID string, partition int) string {
	return fmt.Sprintf("checkpoints/%s/%d.json", runID, partition)
}

// Load returns the links saved for the partition, with found=false when no
// checkpoint exists yet.
func (s *S3CheckpointStore) Load(ctx context.Context, runID string, partition int) ([]common.EvolutionLink, bool, error) {
	data, err := s.client.getFile(ctx, checkpointKey(runID, partition))
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var links []common.EvolutionLink
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, false, fmt.Errorf("failed to decode checkpoint %s/%d: %w", runID, partition, err)
	}
	return links, true, nil
}

// Save persists the partition's links, overwriting any previous checkpoint
// for the same partition. Transient S3 failures are retried; losing a
// checkpoint would force the partition to recompute on resume.
func (s *S3CheckpointStore) Save(ctx context.Context, runID string, partition int, links []common.EvolutionLink) error {
	data, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint %s/%d: %w", runID, partition, err)
	}
	return util.RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
		return s.client.putFile(ctx, checkpointKey(runID, partition), data, "application/json")
	})
}

// Clear removes all checkpoints for the run. Called after a successful
// commit; leftover checkpoints are harmless but would accumulate.
func (s *S3CheckpointStore) Clear(ctx context.Context, runID string) error {
	return s.client.deleteKeys(ctx, fmt.Sprintf("checkpoints/%s/", runID))
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}

type realS3 struct {
	client *s3.Client
}

func (r *realS3) getFile(ctx context.Context, key string) ([]byte, error) {
	return GetFile(ctx, r.client, key)
}

func (r *realS3) putFile(ctx context.Context, key string, data []byte, contentType string) error {
	return PutFile(ctx, r.client, key, data, contentType)
}

func (r *realS3) deleteKeys(ctx context.Context, prefix string) error {
	keys, err := ListKeys(ctx, r.client, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := DeleteFile(ctx, r.client, key); err != nil {
			return err
		}
	}
	return nil
}
