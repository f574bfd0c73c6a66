package order

import "slices"

// Op names a ledger operation.
type Op string

const (
	OpCreateDraft   Op = "create draft"
	OpUpdateDraft   Op = "update draft"
	OpAccept        Op = "accept"
	OpProcess       Op = "process"
	OpPrepare       Op = "prepare"
	OpDeliver       Op = "deliver"
	OpPay           Op = "record payment"
	OpClose         Op = "close"
	OpCancel        Op = "cancel"
	OpResendInvoice Op = "resend invoice"
	OpStatusUpdate  Op = "send status update"
	// OpAdvance covers AdvanceStatus targets outside the table.
	OpAdvance Op = "advance status"
)

type transition struct {
	to      Status
	allowed func(o *Order) bool
}

func from(statuses ...Status) func(o *Order) bool {
	return func(o *Order) bool {
		return slices.Contains(statuses, o.Status)
	}
}

var transitions = map[Op]transition{
	OpUpdateDraft: {to: StatusDraft, allowed: from(StatusDraft)},
	OpAccept:      {to: StatusAccepted, allowed: from(StatusDraft)},
	OpProcess:     {to: StatusProcessing, allowed: from(StatusAccepted)},
	OpPrepare:     {to: StatusPrepared, allowed: from(StatusProcessing)},
	// Delivered is logged on the timeline but the order rests in Awaiting Payment.
	OpDeliver: {to: StatusAwaitingPayment, allowed: from(StatusPrepared)},
	OpPay:     {to: StatusPaid, allowed: from(StatusDelivered, StatusAwaitingPayment)},
	OpClose: {to: StatusClosed, allowed: func(o *Order) bool {
		return o.PaymentStatus == PaymentPaid && !o.Status.Terminal()
	}},
	OpCancel: {to: StatusCancelled, allowed: from(StatusDraft, StatusAccepted, StatusProcessing, StatusPrepared)},
}

// advanceOps maps an AdvanceStatus target to its operation.
var advanceOps = map[Status]Op{
	StatusProcessing: OpProcess,
	StatusPrepared:   OpPrepare,
	StatusDelivered:  OpDeliver,
}

// CanApply reports whether op may run against o. Operations that do not
// change status, such as resending an invoice, are not covered.
func CanApply(o *Order, op Op) bool {
	t, ok := transitions[op]
	return ok && t.allowed(o)
}

func checkTransition(o *Order, op Op) error {
	if !CanApply(o, op) {
		return &TransitionError{Op: op, From: o.Status}
	}

	return nil
}

// NextStatuses lists the targets AdvanceStatus accepts from s.
func NextStatuses(s Status) []Status {
	var next []Status

	o := &Order{Status: s}
	for _, target := range []Status{StatusProcessing, StatusPrepared, StatusDelivered} {
		if CanApply(o, advanceOps[target]) {
			next = append(next, target)
		}
	}

	return next
}
