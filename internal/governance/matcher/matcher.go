// Package matcher selects the logs emitted by the governance contract for one event signature.
package matcher

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/coinbase/chaingov/internal/blockchain/model"
)

type Matcher struct {
	contract  common.Address
	signature common.Hash
}

func New(contract common.Address, signature common.Hash) *Matcher {
	return &Matcher{
		contract:  contract,
		signature: signature,
	}
}

// Match reports whether the log was emitted by the contract and carries the signature as topic 0.
// A log without topics never matches.
func (m *Matcher) Match(log *model.Log) bool {
	if log == nil || log.Address != m.contract {
		return false
	}

	topic, ok := log.Topic(0)
	return ok && topic == m.signature
}

func (m *Matcher) Contract() common.Address {
	return m.contract
}

func (m *Matcher) Signature() common.Hash {
	return m.signature
}
