package gateways

import (
	"context"

	"github.com/ochairo/modulescanner/internal/domain/entities"
)

// ReportWriter serializes report rows
type ReportWriter interface {
	WriteHeader() error
	WriteRow(row entities.ReportRow) error
	Rows() int
	Flush() error
}

// ReportStore publishes a finished report
type ReportStore interface {
	Put(ctx context.Context, key string, content []byte) error
}
