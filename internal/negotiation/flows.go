package negotiation

import (
	"context"
	"fmt"

	"github.com/ashureev/insurance-a2a/internal/agent"
	"github.com/ashureev/insurance-a2a/internal/domain"
)

var defaultNegotiationSteps = []string{
	"Analyzing insurance requirements...",
	"Reviewing TATA AIG policy options...",
	"Calculating personalized premium rates...",
	"Preparing competitive offer with maximum benefits...",
}

func (e *Engine) runNegotiation(ctx context.Context, x *exchange, requirements, requesterMessage string) {
	prop, result := runStage(ctx, x, stage[domain.Proposal]{
		call: func(c context.Context) (domain.Proposal, error) {
			return e.provider.Negotiate(c, agent.NegotiationRequest{Requirements: requirements, RequesterMessage: requesterMessage})
		},
		fallback: func(error) domain.Proposal { return e.provider.FallbackProposal(requirements) },
		steps:    func(p domain.Proposal) []string { return stepsOr(p.Steps, defaultNegotiationSteps) },
	})
	if result != stageDone {
		return
	}
	e.deliverOffer(ctx, x, prop, offerMessage(prop, false))
}

func (e *Engine) deliverOffer(ctx context.Context, x *exchange, prop domain.Proposal, text string) {
	if err := e.registry.RecordOffer(x.sessionID, x.negotiationID, prop.Offer); err != nil {
		return
	}
	_ = e.registry.SetStatus(x.sessionID, x.negotiationID, domain.StatusOffered)
	x.release()

	offer := prop.Offer.Clone()
	msg := botMessage(agent.ProviderPersona, text, e.opts.Now())
	msg.Offer = &offer
	msg.NegotiationID = x.negotiationID
	if !x.emit(ctx, EventBotMessage, msg) {
		return
	}
	if !sleep(ctx, e.opts.Pacing.FollowUp) {
		return
	}
	e.say(ctx, x.sessionID, x.out, agent.RequesterPersona, fmt.Sprintf(
		"I've reviewed TATA AIG's offer of %s. It fits your budget well. Would you like to accept it, or should I negotiate for better terms?", offer.Premium))
}

func (e *Engine) runClaim(ctx context.Context, x *exchange, requirements, text string) {
	res, result := runStage(ctx, x, stage[domain.ClaimResult]{
		call: func(c context.Context) (domain.ClaimResult, error) {
			return e.claims.ProcessClaim(c, agent.ClaimRequest{Description: requirements, Message: text})
		},
		fallback: func(error) domain.ClaimResult { return e.claims.FallbackClaim() },
		steps:    func(r domain.ClaimResult) []string { return stepsOr(r.ProcessingSteps, agent.ClaimSteps) },
	})
	if result != stageDone {
		return
	}
	e.registry.MarkCompletedTransaction(x.sessionID, res.ClaimID)
	e.registry.CloseNegotiation(x.sessionID, x.negotiationID)

	msg := botMessage(agent.ClaimsPersona, claimMessage(res), e.opts.Now())
	msg.ClaimData = &res
	msg.NegotiationID = x.negotiationID
	if !x.emit(ctx, EventBotMessage, msg) {
		return
	}
	if !sleep(ctx, e.opts.Pacing.FollowUp) {
		return
	}
	follow := fmt.Sprintf("Your claim %s is filed. I'll keep track of it and let you know as soon as the status changes.", res.ClaimID)
	if res.Status == domain.ClaimError {
		follow = "I couldn't get your claim processed just now. Please share the details again in a little while and I'll retry."
	}
	e.say(ctx, x.sessionID, x.out, agent.RequesterPersona, follow)
}

func (e *Engine) runCheckup(ctx context.Context, x *exchange, text string) {
	res, result := runStage(ctx, x, stage[domain.CheckupResult]{
		call: func(c context.Context) (domain.CheckupResult, error) {
			return e.scheduler.ScheduleCheckup(c, text)
		},
		fallback: func(error) domain.CheckupResult { return e.scheduler.FallbackCheckup() },
		steps:    func(r domain.CheckupResult) []string { return stepsOr(r.ProcessingSteps, agent.CheckupSteps) },
	})
	if result != stageDone {
		return
	}
	e.registry.MarkCompletedTransaction(x.sessionID, res.BookingID)
	e.registry.CloseNegotiation(x.sessionID, x.negotiationID)

	msg := botMessage(agent.SchedulerPersona, checkupMessage(res), e.opts.Now())
	msg.CheckupData = &res
	msg.NegotiationID = x.negotiationID
	if !x.emit(ctx, EventBotMessage, msg) {
		return
	}
	if !sleep(ctx, e.opts.Pacing.FollowUp) {
		return
	}
	follow := "Pick a slot that suits you and I'll confirm the booking with TATA 1mg."
	if res.Error != "" {
		follow = "I couldn't reach TATA 1mg just now. Ask me again in a little while and I'll retry the booking."
	}
	e.say(ctx, x.sessionID, x.out, agent.RequesterPersona, follow)
}
