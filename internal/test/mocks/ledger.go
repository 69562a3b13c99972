package mocks

import (
	"context"

	"github.com/talentledger/anchor-service/internal/api/publishing"
)

type SubmitFunc func(ctx context.Context, document publishing.Document) (publishing.SubmitResult, error)
type CheckStatusFunc func(ctx context.Context, handle publishing.Handle) (publishing.StatusResult, error)

type Ledger struct {
	SubmitFunc
	CheckStatusFunc
}

func NewMockLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) WithSubmitFunc(f SubmitFunc) *Ledger {
	l.SubmitFunc = f
	return l
}

func (l *Ledger) WithCheckStatusFunc(f CheckStatusFunc) *Ledger {
	l.CheckStatusFunc = f
	return l
}

func (l *Ledger) Submit(ctx context.Context, document publishing.Document) (publishing.SubmitResult, error) {
	if l.SubmitFunc == nil {
		panic("mock Submit function not set")
	}
	return l.SubmitFunc(ctx, document)
}

func (l *Ledger) CheckStatus(ctx context.Context, handle publishing.Handle) (publishing.StatusResult, error) {
	if l.CheckStatusFunc == nil {
		panic("mock CheckStatus function not set")
	}
	return l.CheckStatusFunc(ctx, handle)
}
