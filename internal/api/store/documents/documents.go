package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/talentledger/anchor-service/internal/api/publishing"
)

// S3DocumentArchive keeps the exact document submitted for each operation so
// a completed publication can always be reconstructed, whatever the Ledger
// did with it.
type S3DocumentArchive struct {
	s3            *s3.Client
	archiveBucket string
}

func NewS3DocumentArchive(s3Client *s3.Client, archiveBucket string) *S3DocumentArchive {
	return &S3DocumentArchive{
		s3:            s3Client,
		archiveBucket: archiveBucket,
	}
}

type archivedDocument struct {
	OperationID string                `json:"operationId"`
	Metadata    archivedMetadata      `json:"metadata"`
	Content     json.RawMessage       `json:"content"`
	Options     archivedSubmitOptions `json:"options"`
}

type archivedMetadata struct {
	Source     string `json:"source"`
	RecordKind string `json:"recordKind"`
	RecordID   string `json:"recordId"`
}

type archivedSubmitOptions struct {
	Privacy  string `json:"privacy,omitempty"`
	Epochs   int    `json:"epochs,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

func (a *S3DocumentArchive) SaveDocument(ctx context.Context, operationID string, document publishing.Document) error {
	key := ArchiveKey(operationID)
	archived := archivedDocument{
		OperationID: operationID,
		Metadata: archivedMetadata{
			Source:     document.Metadata.Source,
			RecordKind: string(document.Metadata.RecordKind),
			RecordID:   document.Metadata.RecordID,
		},
		Content: document.Content,
		Options: archivedSubmitOptions{
			Privacy:  document.Options.Privacy,
			Epochs:   document.Options.Epochs,
			Priority: document.Options.Priority,
		},
	}
	documentBytes, err := json.Marshal(archived)
	if err != nil {
		return fmt.Errorf("error marshalling document for uploading to %s/%s: %w",
			a.archiveBucket,
			key,
			err)
	}
	putIn := s3.PutObjectInput{
		Bucket:      aws.String(a.archiveBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(documentBytes),
		ContentType: aws.String("application/json"),
	}
	if _, err := a.s3.PutObject(ctx, &putIn); err != nil {
		return fmt.Errorf("error writing document to %s/%s: %w", a.archiveBucket, key, err)
	}
	return nil
}

func ArchiveKey(operationID string) string {
	return fmt.Sprintf("submissions/%s.json", operationID)
}
