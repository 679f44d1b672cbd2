package s3

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/seqlab/modisco/blobstore"
)

// fakeDDB is an in-memory DDBClient honoring the conditional write the
// commit log relies on.
type fakeDDB struct {
	mu    sync.Mutex
	items []map[string]types.AttributeValue
}

func attrS(item map[string]types.AttributeValue, key string) string {
	return item[key].(*types.AttributeValueMemberS).Value
}

func attrN(item map[string]types.AttributeValue, key string) uint64 {
	v, _ := strconv.ParseUint(item[key].(*types.AttributeValueMemberN).Value, 10, 64)
	return v
}

func (f *fakeDDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if attrS(it, "prefix") == attrS(in.Item, "prefix") && attrN(it, "version") == attrN(in.Item, "version") {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := in.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS).Value

	var head map[string]types.AttributeValue
	for _, it := range f.items {
		if attrS(it, "prefix") != prefix {
			continue
		}
		if head == nil || attrN(it, "version") > attrN(head, "version") {
			head = it
		}
	}
	out := &dynamodb.QueryOutput{}
	if head != nil {
		out.Items = []map[string]types.AttributeValue{head}
	}
	return out, nil
}

// staleDDB answers every head query with "empty", modeling a publisher that
// read the log before a competitor committed.
type staleDDB struct{ *fakeDDB }

func (s *staleDDB) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

func TestCommitLogAdvances(t *testing.T) {
	ctx := context.Background()
	ddb := &fakeDDB{}

	at := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	log := NewCommitLog(ddb, "modisco-commits", "results/")
	log.now = func() time.Time { return at }

	v, err := log.Commit(ctx, "run1.tar.gz")
	require.NoError(t, err)
	require.Equal(t, uint64(1), v)

	v, err = log.Commit(ctx, "run2.tar.gz")
	require.NoError(t, err)
	require.Equal(t, uint64(2), v)

	head, err := log.Head(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), head.Version)
	require.Equal(t, "run2.tar.gz", head.Name)
	require.Equal(t, at, head.CommittedAt)

	// Logs under another prefix are independent.
	other := NewCommitLog(ddb, "modisco-commits", "staging/")
	v, err = other.Commit(ctx, "run1.tar.gz")
	require.NoError(t, err)
	require.Equal(t, uint64(1), v)
}

func TestCommitLogEmptyHead(t *testing.T) {
	log := NewCommitLog(&fakeDDB{}, "modisco-commits", "results/")
	_, err := log.Head(context.Background())
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCommitLogConflict(t *testing.T) {
	ctx := context.Background()
	ddb := &fakeDDB{}

	log := NewCommitLog(ddb, "modisco-commits", "results/")
	_, err := log.Commit(ctx, "run1.tar.gz")
	require.NoError(t, err)

	// A publisher with a stale head races for the taken version and loses.
	stale := NewCommitLog(&staleDDB{ddb}, "modisco-commits", "results/")
	_, err = stale.Commit(ctx, "run1b.tar.gz")
	require.ErrorIs(t, err, ErrCommitConflict)

	head, err := log.Head(ctx)
	require.NoError(t, err)
	require.Equal(t, "run1.tar.gz", head.Name)
}
