// Package flow provides the shop checkout reference flow.
package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/BotEngine/internal/models"
)

// Flow and step identifiers for the shop checkout flow.
const (
	FlowShop = "shop"

	StepChooseProduct = "choose_product"
	StepChoosePayment = "choose_payment"
)

// State data keys used by the shop flow.
const (
	dataProductName  = "product_name"
	dataProductPrice = "product_price"
	dataProductLink  = "product_link"
)

// product is one purchasable item in the checkout demo.
type product struct {
	Name  string
	Price string
	Link  string
}

// shopProducts maps option keys to the fixed product set.
var shopProducts = map[string]product{
	"1": {"Sports T-Shirt", "15,000", "https://pay.example.com/checkout?item=tshirt"},
	"2": {"Urban Sneakers", "45,000", "https://pay.example.com/checkout?item=sneakers"},
	"3": {"Waterproof Backpack", "25,000", "https://pay.example.com/checkout?item=backpack"},
	"4": {"Notebook", "10,000", "https://pay.example.com/checkout?item=notebook"},
}

const shopEntryPrompt = "🛒 *Checkout demo*\n\n" +
	"Available products:\n" +
	"1️⃣ Sports T-Shirt - $15,000\n" +
	"2️⃣ Urban Sneakers - $45,000\n" +
	"3️⃣ Waterproof Backpack - $25,000\n" +
	"4️⃣ Notebook - $10,000\n\n" +
	"👉 Reply with the number of the product you want to buy."

// ShopFlow is the two-step checkout flow: choose a product, then a payment
// method. Completion always clears state; a fresh entry restarts from
// scratch.
type ShopFlow struct {
	states *StateManager
}

// Compile-time check that ShopFlow implements Handler.
var _ Handler = (*ShopFlow)(nil)

// NewShopFlow creates a ShopFlow over the given state manager.
func NewShopFlow(states *StateManager) *ShopFlow {
	return &ShopFlow{states: states}
}

// Handle processes one sender input. With no active shop state it enters the
// flow; otherwise it advances the current step.
func (f *ShopFlow) Handle(ctx context.Context, senderID, input string, reply Replier) error {
	st, ok := f.states.Get(senderID)
	if !ok || st.Flow != FlowShop {
		return f.enter(ctx, senderID, reply)
	}

	switch st.Step {
	case StepChooseProduct:
		return f.chooseProduct(ctx, senderID, input, st, reply)
	case StepChoosePayment:
		return f.choosePayment(ctx, senderID, input, st, reply)
	}

	// Unknown step: reset rather than trap the sender in a broken dialog.
	slog.Warn("ShopFlow unknown step, resetting", "senderID", senderID, "step", st.Step)
	f.states.Clear(senderID)
	return reply.ReplyText(ctx, senderID, "The demo was reset. Type 'demo' to start over.")
}

func (f *ShopFlow) enter(ctx context.Context, senderID string, reply Replier) error {
	f.states.Set(senderID, models.ConversationState{
		Flow: FlowShop,
		Step: StepChooseProduct,
	})
	slog.Info("ShopFlow entered", "senderID", senderID)
	return reply.ReplyText(ctx, senderID, shopEntryPrompt)
}

func (f *ShopFlow) chooseProduct(ctx context.Context, senderID, input string, st models.ConversationState, reply Replier) error {
	p, ok := shopProducts[input]
	if !ok {
		// Re-prompt without advancing.
		return reply.ReplyText(ctx, senderID, "Please reply with 1, 2, 3 or 4 to choose a product.")
	}

	st.Step = StepChoosePayment
	st.Data = map[string]string{
		dataProductName:  p.Name,
		dataProductPrice: p.Price,
		dataProductLink:  p.Link,
	}
	f.states.Set(senderID, st)
	return reply.ReplyText(ctx, senderID, fmt.Sprintf(
		"✅ You selected *%s* ($%s).\n"+
			"Choose a payment method:\n"+
			"1️⃣ Bank transfer\n"+
			"2️⃣ Hosted payment link", p.Name, p.Price))
}

func (f *ShopFlow) choosePayment(ctx context.Context, senderID, input string, st models.ConversationState, reply Replier) error {
	name := st.Data[dataProductName]
	price := st.Data[dataProductPrice]
	link := st.Data[dataProductLink]

	switch input {
	case "1":
		if err := reply.ReplyText(ctx, senderID, fmt.Sprintf(
			"💳 Method: Bank transfer\n"+
				"Account alias: *ACME.PAYMENTS*\n"+
				"Reference: *%s*\n\n"+
				"Send the receipt to confirm your purchase.", name)); err != nil {
			return err
		}
	case "2":
		if err := reply.ReplyInteractive(ctx, senderID, models.InteractivePayload{
			Body:      fmt.Sprintf("🔗 Pay *%s* ($%s)", name, price),
			ButtonURL: link,
			ButtonTxt: "Pay now",
		}); err != nil {
			return err
		}
	default:
		// Any other input while in this flow cancels it.
		f.states.Clear(senderID)
		slog.Info("ShopFlow reset on unrecognized input", "senderID", senderID, "step", st.Step)
		return reply.ReplyText(ctx, senderID, "The demo was reset. Type 'demo' to start over.")
	}

	f.states.Clear(senderID)
	slog.Info("ShopFlow completed", "senderID", senderID, "product", name)
	return reply.ReplyText(ctx, senderID,
		"✅ Order registered.\n"+
			"Want to go back to the menu? Type 'menu'.\n"+
			"To restart the demo: 'demo'.")
}
