// Package decoder turns matched governance logs into typed records.
// A log that cannot be decoded yields a Failure instead of a record; nothing is ever partially decoded.
package decoder

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/coinbase/chaingov/internal/blockchain/model"
	"github.com/coinbase/chaingov/internal/governance/types"
)

type (
	Event string

	Failure struct {
		Event           Event
		LogIndex        uint32
		TransactionHash common.Hash
		Reason          error
	}

	// Outcome holds either a record or a failure.
	Outcome struct {
		Proposal *types.Proposal
		Vote     *types.Vote
		Failure  *Failure
	}
)

const (
	EventProposalCreated Event = "proposal_created"
	EventVoteCast        Event = "vote_cast"
)

func (e Event) String() string {
	return string(e)
}

func (f *Failure) Error() string {
	return string(f.Event) + " log " + f.TransactionHash.Hex() + "#" + formatIndex(f.LogIndex) + ": " + f.Reason.Error()
}

func (f *Failure) Unwrap() error {
	return f.Reason
}

// ReasonTag is the classified reason, used as a metric tag.
func (f *Failure) ReasonTag() string {
	return ReasonOf(f.Reason)
}

func (o Outcome) Ok() bool {
	return o.Failure == nil
}

func newFailure(event Event, log *model.Log, reason error) Outcome {
	return Outcome{
		Failure: &Failure{
			Event:           event,
			LogIndex:        log.Index,
			TransactionHash: log.TransactionHash,
			Reason:          reason,
		},
	}
}
