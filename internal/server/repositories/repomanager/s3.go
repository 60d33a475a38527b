package repomanager

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/medkeeper/internal/server/config"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/medkeeper/internal/server/repositories/users"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3RepositoryManager keeps profiles, users and refresh tokens in one
// S3-compatible bucket under separate prefixes.
type S3RepositoryManager struct {
	profiles      *profiles.S3Repository
	users         *users.S3Repository
	refreshTokens *refreshtokens.S3Repository
}

func NewS3RepositoryManager(ctx context.Context, c *config.Config) (*S3RepositoryManager, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(c.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,     // MINIO_ROOT_USER
			c.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3RepositoryManager{
		profiles:      profiles.NewS3Repository(client, c.S3Bucket),
		users:         users.NewS3Repository(client, c.S3Bucket),
		refreshTokens: refreshtokens.NewS3Repository(client, c.S3Bucket),
	}, nil
}

// RunMigrations is a no-op: the bucket is expected to exist.
func (m *S3RepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *S3RepositoryManager) Profiles() profiles.Repository      { return m.profiles }
func (m *S3RepositoryManager) Users() users.Repository            { return m.users }
func (m *S3RepositoryManager) RefreshTokens() refreshtokens.Repository {
	return m.refreshTokens
}
func (m *S3RepositoryManager) Close() error { return nil }
