package mocks

import (
	"context"
	"time"

	"github.com/talentledger/anchor-service/internal/api/publishing"
	"github.com/talentledger/anchor-service/internal/api/store/records"
)

type GetRecordFunc func(ctx context.Context, recordID string) (records.Record, error)
type GetRecordByOperationFunc func(ctx context.Context, operationID string) (records.Record, error)
type StartPublishFunc func(ctx context.Context, recordID, operationID string, handle publishing.Handle) error
type FinishPublishFunc func(ctx context.Context, recordID string, outcome publishing.FinishOutcome) error
type ListStalePublishingFunc func(ctx context.Context, olderThan time.Time) ([]publishing.StaleOperation, error)

type RecordsStore struct {
	GetRecordFunc
	GetRecordByOperationFunc
	StartPublishFunc
	FinishPublishFunc
	ListStalePublishingFunc
}

func NewMockRecordsStore() *RecordsStore {
	return &RecordsStore{}
}

func (s *RecordsStore) WithGetRecordFunc(f GetRecordFunc) *RecordsStore {
	s.GetRecordFunc = f
	return s
}

func (s *RecordsStore) WithGetRecordByOperationFunc(f GetRecordByOperationFunc) *RecordsStore {
	s.GetRecordByOperationFunc = f
	return s
}

func (s *RecordsStore) WithStartPublishFunc(f StartPublishFunc) *RecordsStore {
	s.StartPublishFunc = f
	return s
}

func (s *RecordsStore) WithFinishPublishFunc(f FinishPublishFunc) *RecordsStore {
	s.FinishPublishFunc = f
	return s
}

func (s *RecordsStore) WithListStalePublishingFunc(f ListStalePublishingFunc) *RecordsStore {
	s.ListStalePublishingFunc = f
	return s
}

func (s *RecordsStore) GetRecord(ctx context.Context, recordID string) (records.Record, error) {
	if s.GetRecordFunc == nil {
		panic("mock GetRecord function not set")
	}
	return s.GetRecordFunc(ctx, recordID)
}

func (s *RecordsStore) GetRecordByOperation(ctx context.Context, operationID string) (records.Record, error) {
	if s.GetRecordByOperationFunc == nil {
		panic("mock GetRecordByOperation function not set")
	}
	return s.GetRecordByOperationFunc(ctx, operationID)
}

func (s *RecordsStore) StartPublish(ctx context.Context, recordID, operationID string, handle publishing.Handle) error {
	if s.StartPublishFunc == nil {
		panic("mock StartPublish function not set")
	}
	return s.StartPublishFunc(ctx, recordID, operationID, handle)
}

func (s *RecordsStore) FinishPublish(ctx context.Context, recordID string, outcome publishing.FinishOutcome) error {
	if s.FinishPublishFunc == nil {
		panic("mock FinishPublish function not set")
	}
	return s.FinishPublishFunc(ctx, recordID, outcome)
}

func (s *RecordsStore) ListStalePublishing(ctx context.Context, olderThan time.Time) ([]publishing.StaleOperation, error) {
	if s.ListStalePublishingFunc == nil {
		panic("mock ListStalePublishing function not set")
	}
	return s.ListStalePublishingFunc(ctx, olderThan)
}
