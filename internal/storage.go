package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ContentStore reads and writes the byte content of document sections.
// Sections are addressed by (creator, document name, 0-based index).
type ContentStore interface {
	// CreateDocument makes room for a new document and its empty sections.
	CreateDocument(creator, name string, sections int) error
	Read(creator, name string, section int) (string, error)
	Write(creator, name string, section int, content string) error
}

// FileStore keeps section content in flat files under a root directory,
// one file per section: <root>/<creator>/<name>/<name>_<i> (1-based).
type FileStore struct {
	root string
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create docs root %s: %w", dir, err)
	}
	return &FileStore{root: dir}, nil
}

// Root returns the docs root directory.
func (fs *FileStore) Root() string {
	return fs.root
}

func (fs *FileStore) sectionPath(creator, name string, section int) string {
	return filepath.Join(fs.root, creator, name, fmt.Sprintf("%s_%d", name, section+1))
}

func (fs *FileStore) CreateDocument(creator, name string, sections int) error {
	dir := filepath.Join(fs.root, creator, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create document directory %s: %w", dir, err)
	}
	for i := 0; i < sections; i++ {
		// O_EXCL so a duplicate creation fails instead of truncating
		// section files that already hold content
		f, err := os.OpenFile(fs.sectionPath(creator, name, i), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			return fmt.Errorf("failed to create section file: %w", err)
		}
		f.Close()
	}
	return nil
}

func (fs *FileStore) Read(creator, name string, section int) (string, error) {
	data, err := os.ReadFile(fs.sectionPath(creator, name, section))
	if err != nil {
		return "", fmt.Errorf("failed to read section: %w", err)
	}
	return string(data), nil
}

func (fs *FileStore) Write(creator, name string, section int, content string) error {
	if err := os.WriteFile(fs.sectionPath(creator, name, section), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write section: %w", err)
	}
	return nil
}

// RemoveAll deletes the whole docs tree. Called on shutdown when
// CLEAN_ON_EXIT is set.
func (fs *FileStore) RemoveAll() error {
	return os.RemoveAll(fs.root)
}

// S3Store keeps section content as S3 objects, one object per section.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store creates a new S3-backed content store.
func NewS3Store(bucket, region string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET_NAME environment variable is required")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

func (s *S3Store) sectionKey(creator, name string, section int) string {
	return fmt.Sprintf("docs/%s/%s/%s_%d", creator, name, name, section+1)
}

func (s *S3Store) CreateDocument(creator, name string, sections int) error {
	for i := 0; i < sections; i++ {
		if err := s.Write(creator, name, i, ""); err != nil {
			return err
		}
	}
	return nil
}

func (s *S3Store) Read(creator, name string, section int) (string, error) {
	result, err := s.client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.sectionKey(creator, name, section)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download section from S3: %w", err)
	}
	defer result.Body.Close()

	content, err := io.ReadAll(result.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read section content: %w", err)
	}
	return string(content), nil
}

func (s *S3Store) Write(creator, name string, section int, content string) error {
	_, err := s.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.sectionKey(creator, name, section)),
		Body:        bytes.NewReader([]byte(content)),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload section to S3: %w", err)
	}
	return nil
}

// SectionExists checks if a section object exists in S3.
func (s *S3Store) SectionExists(creator, name string, section int) (bool, error) {
	_, err := s.client.HeadObject(context.TODO(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.sectionKey(creator, name, section)),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check section existence: %w", err)
	}
	return true, nil
}
