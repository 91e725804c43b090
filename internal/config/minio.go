package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// PublicPrefix is the object prefix readable without credentials; picture
// binaries are served from it through their web path.
const PublicPrefix = "pictures/"

func NewMinIOClient(ctx context.Context, cfg *Config, log zerolog.Logger) (*minio.Client, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := ensureBucket(ctx, client, cfg.MinIOBucket, log); err != nil {
		return nil, err
	}

	policy, err := publicReadPolicy(cfg.MinIOBucket, PublicPrefix)
	if err != nil {
		return nil, err
	}
	if err := client.SetBucketPolicy(ctx, cfg.MinIOBucket, policy); err != nil {
		log.Warn().Err(err).Str("bucket", cfg.MinIOBucket).Msg("failed to set bucket policy, web paths may not resolve")
	}

	return client, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string, log zerolog.Logger) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	log.Info().Str("bucket", bucket).Msg("created MinIO bucket")
	return nil
}

func publicReadPolicy(bucket, prefix string) (string, error) {
	type statement struct {
		Effect    string   `json:"Effect"`
		Principal string   `json:"Principal"`
		Action    []string `json:"Action"`
		Resource  []string `json:"Resource"`
	}
	policy := struct {
		Version   string      `json:"Version"`
		Statement []statement `json:"Statement"`
	}{
		Version: "2012-10-17",
		Statement: []statement{{
			Effect:    "Allow",
			Principal: "*",
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/" + prefix + "*"},
		}},
	}

	data, err := json.Marshal(policy)
	return string(data), err
}
