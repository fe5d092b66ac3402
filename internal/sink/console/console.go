// Package console writes entity changes as JSON lines.
package console

import (
	"context"
	"encoding/json"
	"io"

	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/governance/entity"
)

type (
	Sink struct {
		writer io.Writer
	}

	line struct {
		BlockNumber uint64               `json:"blockNumber"`
		BlockHash   string               `json:"blockHash"`
		Change      *entity.EntityChange `json:"change"`
	}
)

func New(writer io.Writer) *Sink {
	return &Sink{writer: writer}
}

// Apply writes one line per change, in order.
func (s *Sink) Apply(ctx context.Context, changes *entity.EntityChanges) error {
	encoder := json.NewEncoder(s.writer)
	for _, change := range changes.Changes {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := encoder.Encode(&line{
			BlockNumber: changes.BlockNumber,
			BlockHash:   changes.BlockHash,
			Change:      change,
		}); err != nil {
			return xerrors.Errorf("failed to write change %v: %w", change.Key(), err)
		}
	}

	return nil
}
