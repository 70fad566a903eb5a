package services

import (
	"errors"
	"testing"
)

func TestWishlistTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	property := f.verifiedProperty(t, 100000, 200000)

	entry, err := f.wishlist.Add(f.ctx, f.buyer, property.ID)
	if err != nil {
		t.Fatalf("wishlist add failed: %v", err)
	}
	if entry.UserEmail != f.buyer.Email || entry.Title != property.Title {
		t.Fatalf("expected denormalized entry, got %+v", entry)
	}

	_, err = f.wishlist.Add(f.ctx, f.buyer, property.ID)
	if !errors.Is(err, ErrAlreadyWishlisted) {
		t.Fatalf("expected already wishlisted, got %v", err)
	}
	if err.Error() != "property already added to wishlist" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWishlistRequiresOfferableProperty(t *testing.T) {
	f := newFixture(t)
	added, err := f.properties.Add(f.ctx, f.agent, propertyRequest("Pending", 100, 200))
	if err != nil {
		t.Fatalf("add property failed: %v", err)
	}
	if _, err := f.wishlist.Add(f.ctx, f.buyer, added.ID); !errors.Is(err, ErrPropertyUnavailable) {
		t.Fatalf("expected pending property to be unavailable, got %v", err)
	}
	verified := f.verifiedProperty(t, 100, 200)
	if _, err := f.wishlist.Add(f.ctx, f.agent, verified.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected agents to be unable to wishlist, got %v", err)
	}
}

func TestWishlistGetReflectsLivePrice(t *testing.T) {
	f := newFixture(t)
	property := f.verifiedProperty(t, 100000, 200000)
	entry, err := f.wishlist.Add(f.ctx, f.buyer, property.ID)
	if err != nil {
		t.Fatalf("wishlist add failed: %v", err)
	}
	if _, err := f.properties.Update(f.ctx, f.agent, property.ID, propertyRequest("Lake View Villa", 110000, 210000)); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	item, err := f.wishlist.Get(f.ctx, f.buyer, entry.ID)
	if err != nil {
		t.Fatalf("wishlist get failed: %v", err)
	}
	if item.CurrentPrice.Min != 110000 || item.Price.Min != 100000 {
		t.Fatalf("expected snapshot and live price, got snapshot=%v live=%v", item.Price, item.CurrentPrice)
	}
	if !item.Offerable {
		t.Fatalf("expected verified listing to be offerable")
	}
	if _, err := f.wishlist.Get(f.ctx, f.buyer2, entry.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected other buyers to be forbidden, got %v", err)
	}
}

func TestWishlistRemove(t *testing.T) {
	f := newFixture(t)
	property := f.verifiedProperty(t, 100, 200)
	entry, err := f.wishlist.Add(f.ctx, f.buyer, property.ID)
	if err != nil {
		t.Fatalf("wishlist add failed: %v", err)
	}
	if err := f.wishlist.Remove(f.ctx, f.buyer2, entry.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected non-owner remove to be forbidden, got %v", err)
	}
	if err := f.wishlist.Remove(f.ctx, f.buyer, entry.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	entries, err := f.wishlist.List(f.ctx, f.buyer, f.buyer.Email)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty wishlist, got %d", len(entries))
	}
	if _, err := f.wishlist.Add(f.ctx, f.buyer, property.ID); err != nil {
		t.Fatalf("expected re-adding after removal to succeed: %v", err)
	}
}
