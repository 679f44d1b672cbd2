// Command modisco inspects, converts and transfers motif-discovery result
// archives.
//
// Usage:
//
//	modisco inspect <archive>...
//	modisco upgrade <src> <dst>
//	modisco downgrade <src> <dst>
//	modisco push [-s3-bucket b | -store dir] [-prefix p] [-bwlimit n] [-ddb-table t] <archive> <name>
//	modisco pull [-s3-bucket b | -store dir] [-prefix p] [-bwlimit n] <name> <archive>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/seqlab/modisco"
	"github.com/seqlab/modisco/blobstore"
	s3store "github.com/seqlab/modisco/blobstore/s3"
	"github.com/seqlab/modisco/resource"
	"github.com/seqlab/modisco/schema"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "modisco:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("missing subcommand")
	}

	ctx := context.Background()
	logger := modisco.NewTextLogger(slog.LevelInfo)

	switch args[0] {
	case "inspect":
		return cmdInspect(ctx, logger, args[1:])
	case "upgrade":
		return cmdConvert(ctx, logger, args[1:], modisco.Upgrade)
	case "downgrade":
		return cmdConvert(ctx, logger, args[1:], modisco.Downgrade)
	case "push":
		return cmdPush(ctx, args[1:])
	case "pull":
		return cmdPull(ctx, args[1:])
	case "-h", "--help", "help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  modisco inspect <archive>...
  modisco upgrade <src> <dst>
  modisco downgrade <src> <dst>
  modisco push [flags] <archive> <name>
  modisco pull [flags] <name> <archive>`)
}

// cmdInspect detects the layout of each archive and, for current-layout
// archives, loads and summarizes the contents. Archives are processed
// concurrently; the first failure cancels the rest.
func cmdInspect(ctx context.Context, logger *modisco.Logger, paths []string) error {
	if len(paths) == 0 {
		return errors.New("inspect: no archives given")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			v, err := modisco.DetectVersion(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if v != schema.VersionCurrent {
				fmt.Printf("%s\tlayout=%s\n", path, v)
				return nil
			}

			result, err := modisco.Load(ctx, path, modisco.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s\tlayout=%s\ttasks=%d\tseqlets=%d\tmetaclusters=%d\n",
				path, v, len(result.TaskNames), len(result.FinalSeqlets), len(result.Metaclusters))
			return nil
		})
	}
	return g.Wait()
}

func cmdConvert(ctx context.Context, logger *modisco.Logger, args []string, convert func(context.Context, string, string, ...modisco.Option) error) error {
	if len(args) != 2 {
		return errors.New("convert: want <src> <dst>")
	}

	err := convert(ctx, args[0], args[1], modisco.WithLogger(logger))
	if errors.Is(err, modisco.ErrLossyConversion) {
		// The destination is complete; the error only reports the loss.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return nil
	}
	return err
}

type transferFlags struct {
	fs       *flag.FlagSet
	storeDir string
	s3Bucket string
	prefix   string
	bwLimit  int64
	ddbTable string

	awsCfg *aws.Config
}

func newTransferFlags(name string) *transferFlags {
	tf := &transferFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	tf.fs.StringVar(&tf.storeDir, "store", "", "local blob store directory")
	tf.fs.StringVar(&tf.s3Bucket, "s3-bucket", "", "S3 bucket name")
	tf.fs.StringVar(&tf.prefix, "prefix", "", "key prefix inside the store")
	tf.fs.Int64Var(&tf.bwLimit, "bwlimit", 0, "transfer bandwidth limit in bytes/sec (0 = unlimited)")
	tf.fs.StringVar(&tf.ddbTable, "ddb-table", "", "DynamoDB table recording push commits (S3 only)")
	return tf
}

func (tf *transferFlags) awsConfig(ctx context.Context) (aws.Config, error) {
	if tf.awsCfg == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, err
		}
		tf.awsCfg = &cfg
	}
	return *tf.awsCfg, nil
}

func (tf *transferFlags) store(ctx context.Context) (blobstore.BlobStore, error) {
	switch {
	case tf.s3Bucket != "":
		cfg, err := tf.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return s3store.NewStore(awss3.NewFromConfig(cfg), tf.s3Bucket, tf.prefix), nil
	case tf.storeDir != "":
		return blobstore.NewLocalStore(tf.storeDir), nil
	default:
		return nil, errors.New("either -store or -s3-bucket is required")
	}
}

func (tf *transferFlags) controller() *resource.Controller {
	if tf.bwLimit <= 0 {
		return nil
	}
	return resource.NewController(resource.Config{
		MaxTransfers:       1,
		IOLimitBytesPerSec: tf.bwLimit,
	})
}

func cmdPush(ctx context.Context, args []string) error {
	tf := newTransferFlags("push")
	if err := tf.fs.Parse(args); err != nil {
		return err
	}
	rest := tf.fs.Args()
	if len(rest) != 2 {
		return errors.New("push: want <archive> <name>")
	}
	if tf.ddbTable != "" && tf.s3Bucket == "" {
		return errors.New("push: -ddb-table requires -s3-bucket")
	}

	store, err := tf.store(ctx)
	if err != nil {
		return err
	}
	if err := blobstore.Upload(ctx, store, rest[1], rest[0], tf.controller()); err != nil {
		return err
	}

	if tf.ddbTable != "" {
		cfg, err := tf.awsConfig(ctx)
		if err != nil {
			return err
		}
		log := s3store.NewCommitLog(dynamodb.NewFromConfig(cfg), tf.ddbTable, tf.prefix)
		version, err := log.Commit(ctx, rest[1])
		if err != nil {
			return fmt.Errorf("push: %w", err)
		}
		fmt.Printf("committed %s as version %d\n", rest[1], version)
	}
	return nil
}

func cmdPull(ctx context.Context, args []string) error {
	tf := newTransferFlags("pull")
	if err := tf.fs.Parse(args); err != nil {
		return err
	}
	rest := tf.fs.Args()
	if len(rest) != 2 {
		return errors.New("pull: want <name> <archive>")
	}

	store, err := tf.store(ctx)
	if err != nil {
		return err
	}
	return blobstore.Download(ctx, store, rest[0], rest[1], tf.controller())
}
