package decoder

import (
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/governance/layout"
)

var (
	ErrMissingTopics    = xerrors.New("missing topics")
	ErrMissingTimestamp = xerrors.New("missing timestamp")

	ErrPayloadOutOfRange = layout.ErrPayloadOutOfRange
	ErrMalformedString   = layout.ErrMalformedString
)

const (
	ReasonMissingTopics    = "missing_topics"
	ReasonMissingTimestamp = "missing_timestamp"
	ReasonOutOfRange       = "payload_out_of_range"
	ReasonMalformedString  = "malformed_string"
	ReasonUnknown          = "unknown"
)

// ReasonOf classifies a decode error into a metric-friendly tag.
func ReasonOf(err error) string {
	switch {
	case xerrors.Is(err, ErrMissingTopics):
		return ReasonMissingTopics
	case xerrors.Is(err, ErrMissingTimestamp):
		return ReasonMissingTimestamp
	case xerrors.Is(err, ErrPayloadOutOfRange):
		return ReasonOutOfRange
	case xerrors.Is(err, ErrMalformedString):
		return ReasonMalformedString
	default:
		return ReasonUnknown
	}
}
