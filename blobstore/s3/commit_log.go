package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/seqlab/modisco/blobstore"
)

// ErrCommitConflict is returned when another publisher committed the same
// version first.
var ErrCommitConflict = errors.New("commit conflict: concurrent publisher")

// DDBClient is the subset of the DynamoDB API the commit log uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitLog records published archive blobs in DynamoDB. S3 has no
// compare-and-swap, so the log provides the ordering: each push under a store
// prefix gets a monotonically increasing version, and a conditional write
// rejects the loser when two publishers race for the same version.
//
// Table schema: partition key "prefix" (S), sort key "version" (N);
// attributes "name" (S) and "committed_at" (S, RFC 3339).
type CommitLog struct {
	client DDBClient
	table  string
	prefix string
	now    func() time.Time
}

// NewCommitLog creates a commit log over the given table. prefix scopes the
// log to one blob store prefix; it is the partition key.
func NewCommitLog(client DDBClient, table, prefix string) *CommitLog {
	return &CommitLog{
		client: client,
		table:  table,
		prefix: prefix,
		now:    time.Now,
	}
}

// CommitRecord is one entry of the log.
type CommitRecord struct {
	Version     uint64
	Name        string
	CommittedAt time.Time
}

// Commit appends a record for the named blob and returns its version. A
// concurrent publisher racing for the same version gets ErrCommitConflict;
// the caller retries or gives up.
func (l *CommitLog) Commit(ctx context.Context, name string) (uint64, error) {
	head, err := l.Head(ctx)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return 0, err
	}
	version := head.Version + 1

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item: map[string]types.AttributeValue{
			"prefix":       &types.AttributeValueMemberS{Value: l.prefix},
			"version":      &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"name":         &types.AttributeValueMemberS{Value: name},
			"committed_at": &types.AttributeValueMemberS{Value: l.now().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return 0, ErrCommitConflict
		}
		return 0, fmt.Errorf("commit version %d: %w", version, err)
	}
	return version, nil
}

// Head returns the latest record, or blobstore.ErrNotFound when the log is
// empty for this prefix.
func (l *CommitLog) Head(ctx context.Context) (CommitRecord, error) {
	resp, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(l.table),
		KeyConditionExpression: aws.String("#p = :prefix"),
		ExpressionAttributeNames: map[string]string{
			"#p": "prefix",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: l.prefix},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return CommitRecord{}, fmt.Errorf("query commit log: %w", err)
	}
	if len(resp.Items) == 0 {
		return CommitRecord{}, blobstore.ErrNotFound
	}
	return decodeRecord(resp.Items[0])
}

func decodeRecord(item map[string]types.AttributeValue) (CommitRecord, error) {
	var r CommitRecord

	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return r, errors.New("commit log: missing version attribute")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return r, fmt.Errorf("commit log: bad version: %w", err)
	}
	nameAttr, ok := item["name"].(*types.AttributeValueMemberS)
	if !ok {
		return r, errors.New("commit log: missing name attribute")
	}

	r.Version = version
	r.Name = nameAttr.Value
	if at, ok := item["committed_at"].(*types.AttributeValueMemberS); ok {
		if t, err := time.Parse(time.RFC3339Nano, at.Value); err == nil {
			r.CommittedAt = t
		}
	}
	return r, nil
}
