package negotiation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/insurance-a2a/internal/agent"
	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/session"
)

// AcceptOffer runs the payment setup exchange for an offered record. The
// record is closed and the payment held once setup completes.
func (e *Engine) AcceptOffer(ctx context.Context, sessionID string, out Emitter, negotiationID string) error {
	x, neg, ok := e.claim(ctx, sessionID, negotiationID, out)
	if !ok {
		return nil
	}
	_ = e.registry.SetStatus(sessionID, negotiationID, domain.StatusAccepted)
	offer := *neg.LastOffer
	kind := agent.ClassifyInsurance(neg.Requirements)
	e.logger.Info("Offer accepted", "session_id", sessionID, "negotiation_id", negotiationID, "premium", offer.Premium)

	e.say(ctx, sessionID, out, agent.RequesterPersona, fmt.Sprintf(
		"Excellent choice! I'm setting up the payment for your %s with TATA AIG now.", kind.Label()))

	e.spawn(x, func(sctx context.Context) {
		pay, result := runStage(sctx, x, stage[domain.PaymentDetails]{
			call: func(c context.Context) (domain.PaymentDetails, error) {
				return e.provider.PreparePayment(c, kind, offer)
			},
			fallback: func(error) domain.PaymentDetails { return e.provider.FallbackPayment(kind) },
			steps:    func(domain.PaymentDetails) []string { return agent.PaymentSteps },
		})
		if result != stageDone {
			return
		}
		if err := e.registry.HoldPayment(sessionID, domain.PendingPayment{
			NegotiationID: negotiationID,
			Kind:          kind,
			Offer:         offer,
			Payment:       pay,
		}); err != nil {
			return
		}
		e.registry.MarkCompletedTransaction(sessionID, pay.PaymentID)
		e.registry.CloseNegotiation(sessionID, negotiationID)

		msg := botMessage(agent.ProviderPersona, paymentMessage(pay), e.opts.Now())
		msg.PaymentData = &pay
		msg.NegotiationID = negotiationID
		x.emit(sctx, EventBotMessage, msg)
	})
	return nil
}

// RejectOffer asks the provider for an improved offer. The record keeps its
// id and returns to offered with the new offer.
func (e *Engine) RejectOffer(ctx context.Context, sessionID string, out Emitter, negotiationID, feedback string) error {
	x, neg, ok := e.claim(ctx, sessionID, negotiationID, out)
	if !ok {
		return nil
	}
	previous := *neg.LastOffer
	if err := e.checkRenegotiationLimit(neg); err != nil {
		x.release()
		e.logger.Info("Renegotiation refused", "session_id", sessionID, "negotiation_id", negotiationID, "rounds", neg.Rounds, "error", err)
		msg := botMessage(agent.RequesterPersona, fmt.Sprintf(
			"I've already negotiated %d rounds with TATA AIG and %s is their final offer. You can accept it or we can leave it here.",
			neg.Rounds, previous.Premium), e.opts.Now())
		msg.Offer = &previous
		msg.NegotiationID = negotiationID
		e.emit(ctx, sessionID, out, Event{EventBotMessage, msg})
		return nil
	}
	_ = e.registry.SetStatus(sessionID, negotiationID, domain.StatusRenegotiating)
	kind := agent.ClassifyInsurance(neg.Requirements)
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		feedback = "The user would like a better price."
	}

	e.say(ctx, sessionID, out, agent.RequesterPersona, "Understood. Let me push TATA AIG for better terms.")

	e.spawn(x, func(sctx context.Context) {
		prop, result := runStage(sctx, x, stage[domain.Proposal]{
			call: func(c context.Context) (domain.Proposal, error) {
				return e.provider.Renegotiate(c, kind, previous, feedback)
			},
			fallback: func(error) domain.Proposal { return e.provider.ImprovedProposal(kind, previous) },
			steps:    func(p domain.Proposal) []string { return stepsOr(p.Steps, defaultNegotiationSteps) },
		})
		if result != stageDone {
			return
		}
		e.deliverOffer(sctx, x, prop, offerMessage(prop, true))
	})
	return nil
}

func (e *Engine) checkRenegotiationLimit(neg session.Negotiation) error {
	if e.opts.MaxRenegotiations > 0 && neg.Rounds >= e.opts.MaxRenegotiations {
		return fmt.Errorf("%w: %d rounds", ErrRenegotiationLimit, neg.Rounds)
	}
	return nil
}

// CompletePayment issues the policy for a successful payment.
func (e *Engine) CompletePayment(ctx context.Context, sessionID string, out Emitter, conf domain.PaymentConfirmation) error {
	if !strings.EqualFold(strings.TrimSpace(conf.Status), "success") {
		e.logger.Info("Payment not successful", "session_id", sessionID, "payment_id", conf.PaymentID, "status", conf.Status)
		e.say(ctx, sessionID, out, agent.RequesterPersona,
			"It looks like the payment didn't go through. No money has been taken; you can retry whenever you're ready.")
		return nil
	}
	pending, ok := e.registry.TakePayment(sessionID, conf.PaymentID)
	if !ok {
		e.emitError(ctx, sessionID, out, msgPolicyNotFound)
		return nil
	}
	e.say(ctx, sessionID, out, agent.RequesterPersona, "Payment received! I'm asking TATA AIG to issue your policy.")

	x := &exchange{engine: e, sessionID: sessionID, negotiationID: pending.NegotiationID, service: domain.ServicePolicyInfo, out: out}
	e.spawn(x, func(sctx context.Context) {
		doc, result := runStage(sctx, x, stage[domain.PolicyDocument]{
			call: func(c context.Context) (domain.PolicyDocument, error) {
				return e.provider.IssuePolicy(c, pending, conf)
			},
			steps: func(domain.PolicyDocument) []string { return agent.PolicySteps },
		})
		switch result {
		case stageAborted:
			return
		case stageFailed:
			_ = e.registry.HoldPayment(sessionID, pending)
			e.emitError(sctx, sessionID, out, msgPolicyFailed)
			return
		}
		e.registry.MarkCompletedTransaction(sessionID, doc.PolicyNumber)
		e.logger.Info("Policy issued", "session_id", sessionID, "policy_number", doc.PolicyNumber)

		msg := botMessage(agent.ProviderPersona, policyMessage(doc), e.opts.Now())
		msg.PolicyData = &doc
		if !x.emit(sctx, EventBotMessage, msg) {
			return
		}
		if !sleep(sctx, e.opts.Pacing.FollowUp) {
			return
		}
		e.say(sctx, sessionID, out, agent.RequesterPersona, fmt.Sprintf(
			"All done! Policy %s is active. Your documents are ready to download, and I'll remind you before renewal.", doc.PolicyNumber))
	})
	return nil
}
