package repository

import (
	"context"

	"github.com/vfg2006/snapchat-ads-extractor/internal/domain"
)

type Sink interface {
	Write(ctx context.Context, table domain.Table, records []domain.Record) error
}

// MultiSink repassa cada escrita a todos os sinks, na ordem; o primeiro erro interrompe
type MultiSink []Sink

func NewMultiSink(sinks ...Sink) MultiSink {
	return MultiSink(sinks)
}

func (m MultiSink) Write(ctx context.Context, table domain.Table, records []domain.Record) error {
	for _, sink := range m {
		if err := sink.Write(ctx, table, records); err != nil {
			return err
		}
	}
	return nil
}
