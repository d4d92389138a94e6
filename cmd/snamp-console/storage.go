package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/snamp-platform/snamp-go/pkg/config"
	"github.com/snamp-platform/snamp-go/pkg/mda"
)

// openStorage returns the acceptor value storage selected by cfg and a
// function releasing it.
func openStorage(ctx context.Context, cfg config.Storage) (mda.Storage, func(), error) {
	switch cfg.Type {
	case "", config.StorageMemory:
		return mda.NewMemoryStorage(), func() {}, nil
	case config.StorageNATS:
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("snamp-console"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	kv, err := openBucket(ctx, js, cfg.Bucket)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	release := func() {
		if err := nc.Drain(); err != nil {
			log.Printf("NATS drain: %v", err)
		}
	}
	return mda.NewKVStorage(kv, cfg.Timeout.Std()), release, nil
}

// openBucket gets the bucket, creating it on first use.
func openBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "SNAMP passive resource values",
		History:     1,
	})
	if errors.Is(err, jetstream.ErrBucketExists) {
		return js.KeyValue(ctx, bucket)
	}
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return kv, nil
}
