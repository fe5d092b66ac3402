// Package types holds the typed governance records decoded from a single block.
package types

type (
	Proposal struct {
		// Id is the decimal text of the 256-bit proposal id.
		Id string `json:"id"`
		// Proposer is the lowercase 0x-prefixed hex of the proposer address.
		Proposer     string `json:"proposer"`
		Description  string `json:"description"`
		CreationTime uint64 `json:"creationTime"`
		// Values is never populated by the ProposalCreated decoder.
		Values []string `json:"values"`
	}

	Vote struct {
		// Id is the transaction hash and the log index within the block, joined by a hyphen.
		Id         string `json:"id"`
		Voter      string `json:"voter"`
		ProposalId string `json:"proposalId"`
		Weight     string `json:"weight"`
		Choice     uint8  `json:"choice"`
		Reason     string `json:"reason"`
	}

	// Proposals are kept in the order their logs appear in the block.
	Proposals []*Proposal

	// Votes are kept in the order their logs appear in the block.
	Votes []*Vote

	Choice string
)

const (
	ChoiceAgainst Choice = "AGAINST"
	ChoiceFor     Choice = "FOR"
	ChoiceAbstain Choice = "ABSTAIN"
	ChoiceUnknown Choice = "UNKNOWN"
)

// ChoiceOf maps the raw support byte of a vote. Values other than 0, 1 and 2 are UNKNOWN.
func ChoiceOf(support uint8) Choice {
	switch support {
	case 0:
		return ChoiceAgainst
	case 1:
		return ChoiceFor
	case 2:
		return ChoiceAbstain
	default:
		return ChoiceUnknown
	}
}

func (c Choice) String() string {
	return string(c)
}

// ChoiceName returns the enumerated choice of the vote.
func (v *Vote) ChoiceName() Choice {
	return ChoiceOf(v.Choice)
}
