package commands

import (
	contractsv1 "atomsi/contracts/gen/events/v1"
	"atomsi/contexts/community-experience/reputation-ledger/domain/entities"
)

// ConsumedEventTypes are the events that produce activities.
var ConsumedEventTypes = []contractsv1.EventType{
	contractsv1.EventProposalCreated,
	contractsv1.EventProposalVoted,
	contractsv1.EventTransactionApproved,
	contractsv1.EventTransactionExecuted,
}

// ActivityFromEvent derives the activity for the acting member of an event.
// ok is false for events that carry no member activity.
func ActivityFromEvent(event contractsv1.DomainEvent) (cmd RecordActivityCommand, ok bool, err error) {
	cmd.OccurredAt = event.Timestamp
	switch event.EventType {
	case contractsv1.EventProposalCreated:
		var data contractsv1.ProposalCreatedData
		if err := event.Decode(&data); err != nil {
			return RecordActivityCommand{}, false, err
		}
		cmd.MemberAddress = data.Proposer
		cmd.Type = entities.ActivityProposalSubmission
		cmd.RelatedID = data.ProposalID
		cmd.Description = "submitted proposal " + data.Title
	case contractsv1.EventProposalVoted:
		var data contractsv1.ProposalVotedData
		if err := event.Decode(&data); err != nil {
			return RecordActivityCommand{}, false, err
		}
		cmd.MemberAddress = data.Voter
		cmd.Type = entities.ActivityVoting
		cmd.RelatedID = data.ProposalID
		cmd.Description = "voted " + data.Vote
		cmd.Metadata = map[string]any{"vote": data.Vote, "voting_power": data.VotingPower}
	case contractsv1.EventTransactionApproved:
		var data contractsv1.TransactionApprovedData
		if err := event.Decode(&data); err != nil {
			return RecordActivityCommand{}, false, err
		}
		cmd.MemberAddress = data.Approver
		cmd.Type = entities.ActivityTreasuryApproval
		cmd.RelatedID = data.TransactionID
		cmd.Description = "approved treasury transaction"
	case contractsv1.EventTransactionExecuted:
		var data contractsv1.TransactionExecutedData
		if err := event.Decode(&data); err != nil {
			return RecordActivityCommand{}, false, err
		}
		cmd.MemberAddress = data.ExecutedBy
		cmd.Type = entities.ActivityTreasuryExecution
		cmd.RelatedID = data.TransactionID
		cmd.Description = "executed treasury transaction"
		cmd.Metadata = map[string]any{"token": data.Token, "amount": data.Amount}
	default:
		return RecordActivityCommand{}, false, nil
	}
	return cmd, cmd.MemberAddress != "", nil
}
