package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/lessonvars/internal/errors"
)

// maxDocumentSize caps how much of a remote declaration document is read.
const maxDocumentSize = 4 << 20

// ObjectGetter is the subset of *s3.Client used to fetch declaration
// documents. Tests substitute a fake.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// LoadS3 fetches and parses a declaration document stored in S3.
func LoadS3(ctx context.Context, client ObjectGetter, bucket, key string) (*Registry, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("E104").Wrapf("s3 get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxDocumentSize+1))
	if err != nil {
		return nil, errors.New("E104").Wrapf("s3 read s3://%s/%s: %w", bucket, key, err)
	}
	if len(data) > maxDocumentSize {
		return nil, errors.New("E104").Wrapf("s3://%s/%s is larger than %d bytes", bucket, key, maxDocumentSize)
	}

	return parse("s3://"+bucket+"/"+key, data)
}

// NewS3Client builds an S3 client for region. Credentials are taken from
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN; when they
// are unset requests are sent anonymously, which suits public buckets.
func NewS3Client(region string) *s3.Client {
	opts := s3.Options{Region: region}

	if id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		token := os.Getenv("AWS_SESSION_TOKEN")
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     id,
					SecretAccessKey: secret,
					SessionToken:    token,
					Source:          "Environment",
				}, nil
			}))
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}

	return s3.New(opts)
}

// Location identifies where a declaration document lives.
type Location struct {
	// Path is a filesystem path. Empty for S3 locations.
	Path string

	Bucket string
	Key    string
}

// IsS3 reports whether the location refers to an S3 object.
func (l Location) IsS3() bool {
	return l.Bucket != ""
}

// String renders the location in the form accepted by ParseLocation.
func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// ParseLocation accepts either a filesystem path or s3://bucket/key.
func ParseLocation(uri string) (Location, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		if uri == "" {
			return Location{}, fmt.Errorf("empty declaration location")
		}
		return Location{Path: uri}, nil
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return Location{}, fmt.Errorf("s3 location %q must look like s3://bucket/key", uri)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Load reads the declarations at loc. newClient is only called for S3
// locations.
func Load(ctx context.Context, loc Location, newClient func() ObjectGetter) (*Registry, error) {
	if !loc.IsS3() {
		return LoadFile(loc.Path)
	}
	if newClient == nil {
		return nil, errors.New("E104").Wrapf("no S3 client configured for %s", loc)
	}
	return LoadS3(ctx, newClient(), loc.Bucket, loc.Key)
}
