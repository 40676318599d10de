package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

type recordingSink struct {
	calls []domain.Table
	err   error
}

func (s *recordingSink) Write(ctx context.Context, table domain.Table, records []domain.Record) error {
	s.calls = append(s.calls, table)
	return s.err
}

func TestMultiSink(t *testing.T) {
	first, second := &recordingSink{}, &recordingSink{}
	sink := NewMultiSink(first, second)

	err := sink.Write(context.Background(), domain.TableAds, []domain.Record{{"id": "a"}})
	assert.NoError(t, err)
	assert.Equal(t, []domain.Table{domain.TableAds}, first.calls)
	assert.Equal(t, []domain.Table{domain.TableAds}, second.calls)

	boom := errors.New("disk full")
	failing, skipped := &recordingSink{err: boom}, &recordingSink{}

	err = NewMultiSink(failing, skipped).Write(context.Background(), domain.TableAds, nil)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, skipped.calls)
}
