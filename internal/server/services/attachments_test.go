package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/projecthub/internal/common"
	sc "github.com/dmitrijs2005/projecthub/internal/server/config"
	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testS3Config() *sc.Config {
	return &sc.Config{
		S3Region:              "us-east-1",
		S3RootUser:            "minioadmin",
		S3RootPassword:        "minioadmin",
		S3BaseEndpoint:        "http://127.0.0.1:9000",
		S3Bucket:              "attachments",
		AttachmentURLValidity: 10 * time.Minute,
	}
}

// stubPresign swaps the S3 seams for fakes that record the signed key.
func stubPresign(t *testing.T) *string {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	var key string
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
			t.Fatalf("BaseEndpoint not applied: %v", opts.BaseEndpoint)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		if po.Expires != 10*time.Minute {
			t.Fatalf("expires not applied: %v", po.Expires)
		}
		if *in.Bucket != "attachments" {
			t.Fatalf("bucket mismatch: %q", *in.Bucket)
		}
		key = *in.Key
		return &v4.PresignedHTTPRequest{URL: "http://put/" + key, Method: http.MethodPut}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		key = *in.Key
		return &v4.PresignedHTTPRequest{URL: "http://get/" + key, Method: http.MethodGet}, nil
	}
	return &key
}

func TestAttachmentService_PresignUploadAndDownload(t *testing.T) {
	key := stubPresign(t)
	e := newTestEnv(t, guard.Open, nil)
	ctx := context.Background()
	_, caller := e.mkUser(t, "pm@example.com")
	p, err := e.projects.Create(ctx, caller, ProjectInput{Name: "Portal", Description: "Web"})
	require.NoError(t, err)

	up, err := e.attachments.PresignUpload(ctx, caller, p.Project.ID, " spec.pdf ")
	require.NoError(t, err)
	want := "projects/" + p.Project.ID + "/spec.pdf"
	assert.Equal(t, want, up.Key)
	assert.Equal(t, want, *key)
	assert.Equal(t, http.MethodPut, up.Method)
	assert.Equal(t, "http://put/"+want, up.URL)

	down, err := e.attachments.PresignDownload(ctx, caller, p.Project.ID, "spec.pdf")
	require.NoError(t, err)
	assert.Equal(t, want, down.Key)
	assert.Equal(t, http.MethodGet, down.Method)
	assert.Equal(t, "http://get/"+want, down.URL)
}

func TestAttachmentService_Rejects(t *testing.T) {
	stubPresign(t)
	e := newTestEnv(t, guard.Owner, nil)
	ctx := context.Background()
	_, oc := e.mkUser(t, "pm@example.com")
	_, other := e.mkUser(t, "dev@example.com")
	p, err := e.projects.Create(ctx, oc, ProjectInput{Name: "Portal", Description: "Web"})
	require.NoError(t, err)

	for _, name := range []string{"", "../etc/passwd", "a/b", `a\b`, ".."} {
		_, err := e.attachments.PresignUpload(ctx, oc, p.Project.ID, name)
		assert.ErrorIs(t, err, common.ErrValidation, "name %q", name)
	}

	_, err = e.attachments.PresignUpload(ctx, nil, p.Project.ID, "x.txt")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = e.attachments.PresignUpload(ctx, oc, "00000000-0000-0000-0000-000000000000", "x.txt")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = e.attachments.PresignUpload(ctx, other, p.Project.ID, "x.txt")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = e.attachments.PresignDownload(ctx, other, p.Project.ID, "x.txt")
	assert.NoError(t, err)
}

func TestAttachmentService_PresignErrors(t *testing.T) {
	stubPresign(t)
	e := newTestEnv(t, guard.Open, nil)
	ctx := context.Background()
	_, caller := e.mkUser(t, "pm@example.com")
	p, err := e.projects.Create(ctx, caller, ProjectInput{Name: "Portal", Description: "Web"})
	require.NoError(t, err)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("put-fail")
	}
	_, err = e.attachments.PresignUpload(ctx, caller, p.Project.ID, "x.txt")
	assert.ErrorIs(t, err, common.ErrTransport)
	assert.ErrorContains(t, err, "put-fail")

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = e.attachments.PresignDownload(ctx, caller, p.Project.ID, "x.txt")
	assert.ErrorIs(t, err, common.ErrTransport)
	assert.ErrorContains(t, err, "load-fail")
}
