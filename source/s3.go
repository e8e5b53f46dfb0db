package source

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type S3 struct {
	svc    s3iface.S3API
	bucket string
	prefix string
}

func NewS3(bucket, prefix, region string, anonymous bool) (*S3, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg := &aws.Config{Region: aws.String(region)}
	if anonymous {
		cfg.Credentials = credentials.AnonymousCredentials
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return NewS3WithClient(s3.New(sess), bucket, prefix), nil
}

func NewS3WithClient(svc s3iface.S3API, bucket, prefix string) *S3 {
	return &S3{svc: svc, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(joinKey(s.prefix, name)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return obj.Body, nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	full := joinKey(s.prefix, prefix)

	// Paginate to collect every key under the prefix
	var token *string
	names := []string{}
	for {
		resp, err := s.svc.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(full),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range resp.Contents {
			key := aws.StringValue(obj.Key)
			if s.prefix != "" {
				key = strings.TrimPrefix(key, s.prefix+"/")
			}
			names = append(names, key)
		}
		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
		token = resp.NextContinuationToken
	}
	sort.Strings(names)
	return names, nil
}
