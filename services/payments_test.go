package services

import (
	"errors"
	"testing"

	"EstateMarket/models"
	"EstateMarket/store"
)

func TestPaymentConfirmationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	property, offer := f.acceptedOffer(t, 150000)

	intent, err := f.payments.CreateIntent(f.ctx, f.buyer, models.PaymentIntentRequest{OfferID: offer.ID.Hex()})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	if intent.AmountInCents != 15000000 {
		t.Fatalf("expected amount in cents from the offer, got %d", intent.AmountInCents)
	}
	f.gateway.succeed(intent.PaymentIntentID)

	req := models.PayRequest{OfferID: offer.ID.Hex(), TransactionID: intent.PaymentIntentID}
	first, err := f.payments.Confirm(f.ctx, f.buyer, property.ID, req)
	if err != nil {
		t.Fatalf("first confirmation failed: %v", err)
	}
	if first.Replayed {
		t.Fatalf("expected first confirmation to be applied, not replayed")
	}
	if first.Offer.Status != models.OfferBought || first.Offer.TransactionID != intent.PaymentIntentID {
		t.Fatalf("expected bought offer with transaction id, got %s / %s", first.Offer.Status, first.Offer.TransactionID)
	}
	if !first.Property.Sold || first.Property.BuyerEmail != f.buyer.Email || first.Property.SoldPrice != 150000 {
		t.Fatalf("expected property marked sold to the buyer, got %+v", first.Property)
	}

	second, err := f.payments.Confirm(f.ctx, f.buyer, property.ID, req)
	if err != nil {
		t.Fatalf("replayed confirmation failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected second confirmation to be a replay")
	}
	if second.Offer.ID != first.Offer.ID || second.Offer.TransactionID != first.Offer.TransactionID {
		t.Fatalf("expected replay to return the stored offer")
	}

	bought, err := f.store.Offers.List(f.ctx, store.OfferQuery{
		PropertyID: property.ID,
		Statuses:   []models.OfferStatus{models.OfferBought},
	})
	if err != nil {
		t.Fatalf("list bought offers: %v", err)
	}
	if len(bought) != 1 {
		t.Fatalf("expected exactly one bought offer, got %d", len(bought))
	}

	_, err = f.payments.Confirm(f.ctx, f.buyer, property.ID, models.PayRequest{OfferID: offer.ID.Hex(), TransactionID: "pi_other"})
	if !errors.Is(err, ErrTransactionConflict) {
		t.Fatalf("expected different transaction to conflict, got %v", err)
	}
}

func TestPaymentReplayRepairsMissingSaleMarker(t *testing.T) {
	f := newFixture(t)
	property, offer := f.acceptedOffer(t, 150000)
	intent, err := f.payments.CreateIntent(f.ctx, f.buyer, models.PaymentIntentRequest{OfferID: offer.ID.Hex()})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	f.gateway.succeed(intent.PaymentIntentID)

	// Offer flipped to bought but the listing was never updated.
	if _, err := f.store.Offers.ChangeStatus(f.ctx, offer.ID, models.StatusChange{
		From:          models.OfferAccepted,
		To:            models.OfferBought,
		TransactionID: intent.PaymentIntentID,
	}); err != nil {
		t.Fatalf("force bought: %v", err)
	}

	result, err := f.payments.Confirm(f.ctx, f.buyer, property.ID, models.PayRequest{
		OfferID:       offer.ID.Hex(),
		TransactionID: intent.PaymentIntentID,
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !result.Replayed || !result.Property.Sold {
		t.Fatalf("expected replay to mark the listing sold, got replayed=%v sold=%v", result.Replayed, result.Property.Sold)
	}
}

func TestPaymentRequiresSucceededIntent(t *testing.T) {
	f := newFixture(t)
	property, offer := f.acceptedOffer(t, 150000)
	intent, err := f.payments.CreateIntent(f.ctx, f.buyer, models.PaymentIntentRequest{OfferID: offer.ID.Hex()})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	_, err = f.payments.Confirm(f.ctx, f.buyer, property.ID, models.PayRequest{
		OfferID:       offer.ID.Hex(),
		TransactionID: intent.PaymentIntentID,
	})
	if !errors.Is(err, ErrPaymentIncomplete) {
		t.Fatalf("expected incomplete payment, got %v", err)
	}
	_, err = f.payments.Confirm(f.ctx, f.buyer, property.ID, models.PayRequest{
		OfferID:       offer.ID.Hex(),
		TransactionID: "pi_unknown",
	})
	if !errors.Is(err, ErrPaymentIncomplete) {
		t.Fatalf("expected unknown transaction to be incomplete, got %v", err)
	}

	stored, err := f.store.Offers.FindByID(f.ctx, offer.ID)
	if err != nil {
		t.Fatalf("find offer: %v", err)
	}
	if stored.Status != models.OfferAccepted {
		t.Fatalf("expected offer to remain accepted for retry, got %s", stored.Status)
	}
}

func TestPaymentIntentGuards(t *testing.T) {
	f := newFixture(t)
	property := f.verifiedProperty(t, 100000, 200000)
	pending := f.offer(t, f.buyer, property, 150000)

	if _, err := f.payments.CreateIntent(f.ctx, f.buyer, models.PaymentIntentRequest{OfferID: pending.ID.Hex()}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected pending offer to refuse payment, got %v", err)
	}
	if _, err := f.offers.Accept(f.ctx, f.agent, pending.ID, models.AcceptOfferRequest{}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.payments.CreateIntent(f.ctx, f.buyer2, models.PaymentIntentRequest{OfferID: pending.ID.Hex()}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected other buyers to be forbidden, got %v", err)
	}
	_, err := f.payments.CreateIntent(f.ctx, f.buyer, models.PaymentIntentRequest{OfferID: pending.ID.Hex(), AmountInCents: 100})
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected tampered amount to be refused, got %v", err)
	}

	first, err := f.payments.CreateIntent(f.ctx, f.buyer, models.PaymentIntentRequest{OfferID: pending.ID.Hex()})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	second, err := f.payments.CreateIntent(f.ctx, f.buyer, models.PaymentIntentRequest{OfferID: pending.ID.Hex()})
	if err != nil {
		t.Fatalf("repeat create intent failed: %v", err)
	}
	if first.PaymentIntentID != second.PaymentIntentID {
		t.Fatalf("expected idempotent intent creation, got %s and %s", first.PaymentIntentID, second.PaymentIntentID)
	}
}

func paidIntent(t *testing.T, f *fixture, offer models.Offer) string {
	t.Helper()
	intent, err := f.payments.CreateIntent(f.ctx, f.buyer, models.PaymentIntentRequest{OfferID: offer.ID.Hex()})
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	f.gateway.succeed(intent.PaymentIntentID)
	return intent.PaymentIntentID
}

func TestConcurrentConfirmationsWithSameTransaction(t *testing.T) {
	f := newFixture(t)
	property, offer := f.acceptedOffer(t, 150000)
	txn := paidIntent(t, f, offer)

	// Both confirmations read the accepted offer before either one writes.
	gated := &gatedOffers{Offers: f.store.Offers, afterFind: newBarrier(2)}
	payments := NewPaymentService(f.gateway, "usd", gated, f.store.Properties, nil, nil)

	results := make([]models.PaymentResult, 2)
	confirm := func(i int) func() error {
		return func() error {
			var err error
			results[i], err = payments.Confirm(f.ctx, f.buyer, property.ID, models.PayRequest{OfferID: offer.ID.Hex(), TransactionID: txn})
			return err
		}
	}
	errs := concurrently(confirm(0), confirm(1))
	for i, err := range errs {
		if err != nil {
			t.Fatalf("confirmation %d failed: %v", i, err)
		}
	}
	if results[0].Replayed == results[1].Replayed {
		t.Fatalf("expected exactly one confirmation to be replayed, got %v and %v", results[0].Replayed, results[1].Replayed)
	}

	stored, err := f.store.Offers.FindByID(f.ctx, offer.ID)
	if err != nil {
		t.Fatalf("find offer: %v", err)
	}
	if stored.Status != models.OfferBought || stored.TransactionID != txn {
		t.Fatalf("expected offer bought with %s, got %s/%s", txn, stored.Status, stored.TransactionID)
	}
	sold, err := f.store.Properties.FindByID(f.ctx, property.ID)
	if err != nil {
		t.Fatalf("find property: %v", err)
	}
	if !sold.Sold || sold.TransactionID != txn {
		t.Fatalf("expected property sold under %s, got sold=%v txn=%s", txn, sold.Sold, sold.TransactionID)
	}
}

func TestConcurrentConfirmationsWithDifferentTransactions(t *testing.T) {
	f := newFixture(t)
	property, offer := f.acceptedOffer(t, 150000)
	first := paidIntent(t, f, offer)
	f.gateway.addIntent("pi_second", offer, "usd")

	gated := &gatedOffers{Offers: f.store.Offers, afterFind: newBarrier(2)}
	payments := NewPaymentService(f.gateway, "usd", gated, f.store.Properties, nil, nil)

	txns := []string{first, "pi_second"}
	confirm := func(txn string) func() error {
		return func() error {
			_, err := payments.Confirm(f.ctx, f.buyer, property.ID, models.PayRequest{OfferID: offer.ID.Hex(), TransactionID: txn})
			return err
		}
	}
	errs := concurrently(confirm(txns[0]), confirm(txns[1]))

	winner := ""
	for i, err := range errs {
		switch {
		case err == nil:
			if winner != "" {
				t.Fatalf("expected only one transaction to settle the offer")
			}
			winner = txns[i]
		case !errors.Is(err, ErrTransactionConflict):
			t.Fatalf("expected transaction conflict for the losing payment, got %v", err)
		}
	}
	if winner == "" {
		t.Fatalf("expected one confirmation to succeed, got errs=%v", errs)
	}

	stored, err := f.store.Offers.FindByID(f.ctx, offer.ID)
	if err != nil {
		t.Fatalf("find offer: %v", err)
	}
	if stored.TransactionID != winner {
		t.Fatalf("expected offer to record %s, got %s", winner, stored.TransactionID)
	}
	sold, err := f.store.Properties.FindByID(f.ctx, property.ID)
	if err != nil {
		t.Fatalf("find property: %v", err)
	}
	if sold.TransactionID != winner {
		t.Fatalf("expected property to record %s, got %s", winner, sold.TransactionID)
	}
}

func TestPaymentRejectsForeignCurrency(t *testing.T) {
	f := newFixture(t)
	property, offer := f.acceptedOffer(t, 150000)
	f.gateway.addIntent("pi_eur", offer, "eur")

	_, err := f.payments.Confirm(f.ctx, f.buyer, property.ID, models.PayRequest{OfferID: offer.ID.Hex(), TransactionID: "pi_eur"})
	if !errors.Is(err, ErrPaymentIncomplete) {
		t.Fatalf("expected payment in another currency to be refused, got %v", err)
	}
	stored, err := f.store.Offers.FindByID(f.ctx, offer.ID)
	if err != nil {
		t.Fatalf("find offer: %v", err)
	}
	if stored.Status != models.OfferAccepted {
		t.Fatalf("expected offer to stay accepted, got %s", stored.Status)
	}
}
