package mocks

import (
	"context"

	"github.com/talentledger/anchor-service/internal/api/publishing"
)

type SaveDocumentFunc func(ctx context.Context, operationID string, document publishing.Document) error

type DocumentArchive struct {
	SaveDocumentFunc
}

func NewMockDocumentArchive() *DocumentArchive {
	return &DocumentArchive{}
}

func (a *DocumentArchive) WithSaveDocumentFunc(f SaveDocumentFunc) *DocumentArchive {
	a.SaveDocumentFunc = f
	return a
}

func (a *DocumentArchive) SaveDocument(ctx context.Context, operationID string, document publishing.Document) error {
	if a.SaveDocumentFunc == nil {
		panic("mock SaveDocument function not set")
	}
	return a.SaveDocumentFunc(ctx, operationID, document)
}
