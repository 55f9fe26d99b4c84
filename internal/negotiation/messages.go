package negotiation

import (
	"fmt"
	"strings"

	"github.com/ashureev/insurance-a2a/internal/domain"
	"github.com/ashureev/insurance-a2a/internal/pricing"
)

func offerMessage(p domain.Proposal, revised bool) string {
	var b strings.Builder
	title := "Here's our offer"
	if revised {
		title = "Here's our revised offer"
	}
	fmt.Fprintf(&b, "**%s for your %s**\n\n", title, p.Kind.Label())
	if p.Offer.PolicyName != "" {
		name := p.Offer.PolicyName
		if p.Offer.PlanName != "" {
			name += " - " + p.Offer.PlanName
		}
		fmt.Fprintf(&b, "📋 **Policy:** %s\n", name)
	}
	fmt.Fprintf(&b, "💰 **Premium:** %s\n", p.Offer.Premium)
	fmt.Fprintf(&b, "🛡️ **Coverage:** %s\n", p.Offer.Coverage)
	if p.Offer.Discount != "" {
		fmt.Fprintf(&b, "🎁 **Discount:** %s\n", p.Offer.Discount)
	}
	writeList(&b, "✨ **Features:**", p.Offer.Features)
	if p.Reasoning != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Reasoning)
	}
	return b.String()
}

func paymentMessage(pay domain.PaymentDetails) string {
	var b strings.Builder
	b.WriteString("Thank you for choosing TATA AIG! Your application has been processed and is ready for payment.\n\n")
	fmt.Fprintf(&b, "💳 **Amount:** %s\n", pay.Amount)
	fmt.Fprintf(&b, "📅 **Term:** %s\n", pay.Term)
	fmt.Fprintf(&b, "⏰ **Due date:** %s\n", pay.DueDate)
	fmt.Fprintf(&b, "🔖 **Payment ID:** %s\n", pay.PaymentID)
	return b.String()
}

func policyMessage(doc domain.PolicyDocument) string {
	var b strings.Builder
	b.WriteString("🎉 Congratulations! Your policy has been issued.\n\n")
	fmt.Fprintf(&b, "📋 **Policy number:** %s\n", doc.PolicyNumber)
	fmt.Fprintf(&b, "📅 **Valid:** %s to %s\n", doc.IssueDate, doc.ExpiryDate)
	fmt.Fprintf(&b, "💰 **Premium:** %s\n", doc.Premium)
	fmt.Fprintf(&b, "🛡️ **Coverage:** %s\n", doc.Coverage)
	fmt.Fprintf(&b, "\n[Policy document](%s) · [Certificate](%s)\n", doc.DocumentURL, doc.CertificateURL)
	return b.String()
}

func claimMessage(res domain.ClaimResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Claim %s**\n\n", res.ClaimID)
	fmt.Fprintf(&b, "📌 **Status:** %s\n", res.Status)
	if res.Assessment.Reason != "" {
		fmt.Fprintf(&b, "📝 **Assessment:** %s\n", res.Assessment.Reason)
	}
	if res.Assessment.Amount > 0 {
		fmt.Fprintf(&b, "💰 **Amount:** %s\n", pricing.FormatRupees(res.Assessment.Amount))
	}
	if res.EstimatedSettlement != "" {
		fmt.Fprintf(&b, "⏱️ **Settlement:** %s\n", res.EstimatedSettlement)
	}
	writeList(&b, "📄 **Documents needed:**", res.Assessment.RequiredDocuments)
	writeList(&b, "➡️ **Next steps:**", res.NextSteps)
	if res.Contact.Phone != "" {
		fmt.Fprintf(&b, "\n📞 %s · ✉️ %s\n", res.Contact.Phone, res.Contact.Email)
	}
	return b.String()
}

func checkupMessage(res domain.CheckupResult) string {
	if res.Error != "" || res.Recommendation == nil {
		return fmt.Sprintf("Sorry, we couldn't prepare your health checkup options right now (reference %s).", res.BookingID)
	}
	rec := res.Recommendation
	var b strings.Builder
	fmt.Fprintf(&b, "**Recommended: %s**\n\n", rec.Package.Name)
	fmt.Fprintf(&b, "💰 **Price:** %s, %s after discounts\n",
		pricing.FormatRupees(rec.DiscountedCost.OriginalPrice), pricing.FormatRupees(rec.DiscountedCost.FinalPrice))
	fmt.Fprintf(&b, "🛡️ %s\n", rec.InsuranceCoverage.Message)
	writeList(&b, "🔍 **Why:**", rec.Reasons)
	if len(res.AvailableSlots) > 0 {
		slots := make([]string, 0, 3)
		for _, s := range res.AvailableSlots[:min(3, len(res.AvailableSlots))] {
			slots = append(slots, fmt.Sprintf("%s %s, %s", s.Day, s.Date, s.Time))
		}
		writeList(&b, "📅 **Next available slots:**", slots)
	}
	if len(res.Locations) > 0 {
		fmt.Fprintf(&b, "\n📍 Nearest center: %s\n", res.Locations[0].Name)
	}
	fmt.Fprintf(&b, "\nBooking reference: %s\n", res.BookingID)
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
