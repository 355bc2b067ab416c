package services

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	sc "github.com/dmitrijs2005/projecthub/internal/server/config"
	"github.com/dmitrijs2005/projecthub/internal/server/guard"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AttachmentService hands out presigned object-storage URLs for files
// attached to projects.
type AttachmentService struct {
	repomanager repomanager.RepositoryManager
	guard       *guard.Guard
	config      *sc.Config
	logger      logging.Logger
}

func NewAttachmentService(m repomanager.RepositoryManager, g *guard.Guard, config *sc.Config, logger logging.Logger) *AttachmentService {
	return &AttachmentService{
		repomanager: m,
		guard:       g,
		config:      config,
		logger:      logger.With("module", "attachments"),
	}
}

// AttachmentKey returns the storage key of file name on project projectID.
func AttachmentKey(projectID, name string) string {
	return "projects/" + projectID + "/" + name
}

func cleanAttachmentName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", common.NewValidationError("file_name", msgRequired)
	}
	if strings.ContainsAny(name, `/\`) || name != path.Base(name) || name == "." || name == ".." {
		return "", common.NewValidationError("file_name", "Enter a plain file name.")
	}
	if len(name) > 255 {
		return "", common.NewValidationError("file_name", "Ensure this field has no more than 255 characters.")
	}
	return name, nil
}

func (s *AttachmentService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", common.ErrTransport, err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// project loads the project and, for writes, applies the mutation policy.
func (s *AttachmentService) project(ctx context.Context, caller *auth.Caller, projectID string, write bool) (*models.Project, error) {
	if err := s.guard.Require(caller); err != nil {
		return nil, err
	}
	p, err := s.repomanager.Projects(s.repomanager.DB()).GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if write {
		if err := s.guard.CanMutate(caller, p.CreatedBy); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// PresignUpload returns a PUT ticket for file name on the project.
func (s *AttachmentService) PresignUpload(ctx context.Context, caller *auth.Caller, projectID, name string) (*models.AttachmentTicket, error) {
	name, err := cleanAttachmentName(name)
	if err != nil {
		return nil, err
	}
	p, err := s.project(ctx, caller, projectID, true)
	if err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := AttachmentKey(p.ID, name)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.AttachmentURLValidity))
	if err != nil {
		return nil, fmt.Errorf("%w: presign put: %v", common.ErrTransport, err)
	}

	s.logger.Info(ctx, "attachment upload presigned", "project_id", p.ID, "key", key, "by", caller.UserID)
	return &models.AttachmentTicket{Key: key, Method: http.MethodPut, URL: req.URL}, nil
}

// PresignDownload returns a GET ticket for file name on the project.
func (s *AttachmentService) PresignDownload(ctx context.Context, caller *auth.Caller, projectID, name string) (*models.AttachmentTicket, error) {
	name, err := cleanAttachmentName(name)
	if err != nil {
		return nil, err
	}
	p, err := s.project(ctx, caller, projectID, false)
	if err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := AttachmentKey(p.ID, name)

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.AttachmentURLValidity))
	if err != nil {
		return nil, fmt.Errorf("%w: presign get: %v", common.ErrTransport, err)
	}

	return &models.AttachmentTicket{Key: key, Method: http.MethodGet, URL: req.URL}, nil
}
