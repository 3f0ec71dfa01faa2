package job

import (
	"context"
)

const retryBatchLimit = 20

// IndexRetrier is the slice of the indexing service the retry job drives.
type IndexRetrier interface {
	RetryUnindexed(ctx context.Context, limit int) error
}

// IndexRetryJob re-runs indexing for documents whose ingestion never
// completed, e.g. because the process restarted mid-pipeline or the AI
// provider was down at upload time.
type IndexRetryJob struct {
	indexer IndexRetrier
}

func NewIndexRetryJob(indexer IndexRetrier) *IndexRetryJob {
	return &IndexRetryJob{indexer: indexer}
}

func (j *IndexRetryJob) Name() string {
	return "index_retry"
}

func (j *IndexRetryJob) Run(ctx context.Context) error {
	return j.indexer.RetryUnindexed(ctx, retryBatchLimit)
}
