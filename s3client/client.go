package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"wordforms.dev/declensions/logger"
)

type EnvironmentConfig struct {
	BucketName  string `envconfig:"DFL_S3_BUCKET" required:"true"`
	Region      string `envconfig:"DFL_AWS_REGION" required:"true"`
	Environment string `envconfig:"DFL_ENV" default:"prod"`
	AwsEndpoint string `envconfig:"DFL_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"DFL_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"DFL_AWS_ACCESS_KEY" default:""`
}

type Client struct {
	sess       *session.Session
	bucketName string
	dflLogger  zerolog.Logger
}

var sdkLogger = logger.NewLogger("S3-SDK")

func New() (*Client, error) {
	dflLogger := logger.NewLogger("S3Client")
	var env EnvironmentConfig
	if err := envconfig.Process("", &env); err != nil {
		dflLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	sess, err := newSession(env, dflLogger)
	if err != nil {
		return nil, err
	}
	return &Client{
		sess:       sess,
		bucketName: env.BucketName,
		dflLogger:  dflLogger,
	}, nil
}

func (client *Client) Upload(ctx context.Context, key string, data []byte) error {
	keyLogger := client.dflLogger.With().Str("key", key).Str("bucket", client.bucketName).Logger()
	uploader := s3manager.NewUploader(client.sess.Copy(&aws.Config{Logger: sdkLog(key)}))
	keyLogger.Debug().Int("bytes", len(data)).Msg("Uploading the file")
	_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(client.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		keyLogger.Err(err).Msg("Failed to upload file")
	}
	return err
}

func (client *Client) Download(ctx context.Context, key string) ([]byte, error) {
	keyLogger := client.dflLogger.With().Str("key", key).Str("bucket", client.bucketName).Logger()
	downloader := s3manager.NewDownloader(client.sess.Copy(&aws.Config{Logger: sdkLog(key)}))
	buf := aws.NewWriteAtBuffer([]byte{})

	keyLogger.Debug().Msg("Downloading file")
	size, err := downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(client.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		keyLogger.Err(err).Msg("Failed to download file")
		return nil, err
	}
	keyLogger.Debug().Msgf("Downloaded %v bytes", size)
	return buf.Bytes(), nil
}

func (client *Client) Close() {}

// newSession prefers the instance role and falls back to static credentials
// from the environment.
func newSession(env EnvironmentConfig, dflLogger zerolog.Logger) (*session.Session, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:     aws.String(env.Region),
		MaxRetries: aws.Int(4),
	})
	if err == nil {
		if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err == nil {
			dflLogger.Info().Msg("S3 session initialized using instance credentials")
			return sess, nil
		}
	}
	dflLogger.Info().Msg("Could not initialize S3 session using instance credentials, trying env credentials")

	if env.AccessKeyID == "" || env.AccessKey == "" {
		return nil, errors.New("could not initialize S3 session: no credentials in environment")
	}
	cfg := aws.NewConfig().
		WithRegion(env.Region).
		WithMaxRetries(4).
		WithCredentials(credentials.NewStaticCredentials(env.AccessKeyID, env.AccessKey, ""))
	if env.Environment == "dev" && env.AwsEndpoint != "" {
		cfg = cfg.WithEndpoint(env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	sess, err = session.NewSession(cfg)
	if err != nil {
		dflLogger.Err(err).Msg("Could not initialize S3 session")
		return nil, fmt.Errorf("could not initialize S3 session: %w", err)
	}
	dflLogger.Info().Msg("S3 session initialized using env credentials")
	return sess, nil
}

type s3Logger struct {
	dflLogger zerolog.Logger
}

func sdkLog(key string) *s3Logger {
	return &s3Logger{sdkLogger.With().Str("key", key).Logger()}
}

func (l *s3Logger) Log(v ...interface{}) {
	l.dflLogger.Debug().Msg(fmt.Sprint(v...))
}
