package escalation

import (
	"fmt"

	"github.com/pulsegate/pulsegate/pkg/signal"
)

// Stage subjects, indexed by the stage just entered. Stage 0 never sends.
var stageSubjects = map[int]string{
	1: "A friendly reminder about your open invoice",
	2: "Your invoice is still outstanding",
	3: "Action needed: overdue balance on your account",
	4: "Final notice before account escalation",
	5: "Account escalated for review",
}

func ownerMessage(accountID string, stage int, sig signal.PaymentSignals, tone float64) MessageRequest {
	return MessageRequest{
		AccountID: accountID,
		Recipient: RecipientOwner,
		Stage:     stage,
		Subject:   stageSubjects[stage],
		Body:      ownerBody(stage, sig),
		Tone:      tone,
	}
}

func escalationMessage(accountID string, sig signal.PaymentSignals, tone float64) MessageRequest {
	return MessageRequest{
		AccountID: accountID,
		Recipient: RecipientEscalation,
		Stage:     TerminalStage,
		Subject:   fmt.Sprintf("Handoff: account %s exhausted the dunning ladder", accountID),
		Body: fmt.Sprintf(
			"Account %s has completed all automated outreach stages without resolution. "+
				"Oldest invoice is %d days overdue with %.2f outstanding. "+
				"Manual follow-up is required; no further automated messages will be drafted.",
			accountID, sig.DaysOverdue, sig.OutstandingAmount),
		Tone: tone,
	}
}

func ownerBody(stage int, sig signal.PaymentSignals) string {
	base := fmt.Sprintf(
		"Our records show an invoice %d days overdue with an outstanding balance of %.2f.",
		sig.DaysOverdue, sig.OutstandingAmount)

	switch stage {
	case 1:
		return base + " This may simply have slipped through; the invoice is attached for convenience."
	case 2:
		return base + " We have not yet received a response to our earlier reminder."
	case 3:
		return base + " Please arrange payment or contact us to discuss terms."
	case 4:
		return base + " Without a response, the account will be escalated for manual review."
	case TerminalStage:
		return base + " The account has been escalated to our team for direct follow-up."
	default:
		return base
	}
}
