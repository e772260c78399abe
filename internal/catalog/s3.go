package catalog

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/gated/internal/errors"
)

// S3Lister lists objects in an S3 bucket.
//
// Example usage:
//
//	client := catalog.NewS3Client(catalog.S3Options{Region: "eu-west-1"})
//	lister := catalog.NewS3Lister(client, "my-bucket", "public/")
type S3Lister struct {
	client s3.ListObjectsV2APIClient
	bucket string
	prefix string
}

// NewS3Lister creates a lister for bucket. Every listing is restricted to
// keys under root; returned keys are full object keys.
func NewS3Lister(client s3.ListObjectsV2APIClient, bucket, root string) *S3Lister {
	return &S3Lister{
		client: client,
		bucket: bucket,
		prefix: root,
	}
}

// List implements Lister using ListObjectsV2 pagination.
func (s *S3Lister) List(ctx context.Context, prefix string, limit int) ([]Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + prefix),
	}
	if limit > 0 && limit < 1000 {
		input.MaxKeys = aws.Int32(int32(limit))
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)

	var objects []Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.New(errors.CodeCatalogBackend).
				WithDetailf("listing s3://%s/%s failed", s.bucket, s.prefix+prefix).
				Wrap(err)
		}

		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         aws.ToString(obj.ETag),
			})
			if limit > 0 && len(objects) == limit {
				return objects, nil
			}
		}
	}
	return objects, nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	Region string

	// Endpoint overrides the service endpoint, for S3-compatible stores.
	Endpoint string

	UsePathStyle bool

	// Credentials defaults to the AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY
	// and AWS_SESSION_TOKEN environment variables, or anonymous access when
	// they are unset.
	Credentials aws.CredentialsProvider
}

// NewS3Client builds an S3 client without loading shared AWS config files.
func NewS3Client(opts S3Options) *s3.Client {
	creds := opts.Credentials
	if creds == nil {
		creds = EnvCredentials()
	}

	o := s3.Options{
		Region:       opts.Region,
		Credentials:  creds,
		UsePathStyle: opts.UsePathStyle,
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return s3.New(o)
}

// EnvCredentials reads static credentials from the environment.
func EnvCredentials() aws.CredentialsProvider {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")

	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "EnvCredentials",
		}, nil
	})
}
