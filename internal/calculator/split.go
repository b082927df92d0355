package calculator

import (
	"errors"
	"fmt"

	"github.com/mmynk/groupledger/internal/money"
)

// ErrInvalidSplit is returned when shares cannot be computed or do not add up.
var ErrInvalidSplit = errors.New("invalid split")

// Share is an amount attributed to one user.
type Share struct {
	UserID string
	Amount float64
}

// PersonItem represents an item's share for one person.
type PersonItem struct {
	Description string
	Amount      float64 // This person's share of the item
}

// PersonSplit represents the calculated split for one person
type PersonSplit struct {
	Subtotal float64
	Tax      float64
	Total    float64
	Items    []PersonItem
}

// Item represents a single item on an itemized expense
type Item struct {
	Description string
	Amount      float64
	AssignedTo  []string
}

// CalculateSplit computes how much each person owes including proportional tax
// Based on the algorithm: person_total = person_subtotal × (1 + (total_tax / bill_subtotal))
//
// Items assigned to nobody are shared by all participants.
func CalculateSplit(items []Item, billTotal float64, billSubtotal float64, participants []string) (map[string]*PersonSplit, error) {
	if billSubtotal == 0 {
		return nil, fmt.Errorf("%w: subtotal cannot be zero", ErrInvalidSplit)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: must have at least one participant", ErrInvalidSplit)
	}

	tax := billTotal - billSubtotal
	splits := make(map[string]*PersonSplit, len(participants))
	for _, p := range participants {
		splits[p] = &PersonSplit{}
	}

	// If no items, split total equally among all participants
	if len(items) == 0 {
		perPersonTotal := billTotal / float64(len(participants))
		perPersonSubtotal := billSubtotal / float64(len(participants))
		perPersonTax := tax / float64(len(participants))

		for _, split := range splits {
			split.Subtotal = perPersonSubtotal
			split.Tax = perPersonTax
			split.Total = perPersonTotal
		}
		return splits, nil
	}

	for _, item := range items {
		assigned := item.AssignedTo
		if len(assigned) == 0 {
			assigned = participants
		}

		perPersonAmount := item.Amount / float64(len(assigned))
		for _, person := range assigned {
			split, exists := splits[person]
			if !exists {
				return nil, fmt.Errorf("%w: item %q is assigned to %s who is not a participant", ErrInvalidSplit, item.Description, person)
			}
			split.Subtotal += perPersonAmount
			split.Items = append(split.Items, PersonItem{
				Description: item.Description,
				Amount:      perPersonAmount,
			})
		}
	}

	// Apply proportional tax and calculate total
	for _, split := range splits {
		split.Tax = split.Subtotal * (tax / billSubtotal)
		split.Total = split.Subtotal + split.Tax
	}

	return splits, nil
}

// ItemizedShares runs CalculateSplit over items whose amounts make up the
// subtotal and returns cent-exact shares that add up to total, in participant order.
func ItemizedShares(items []Item, total float64, participants []string) ([]Share, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: itemized split needs at least one item", ErrInvalidSplit)
	}
	amounts := make([]float64, len(items))
	for i, item := range items {
		if item.Amount <= 0 {
			return nil, fmt.Errorf("%w: item %q must have a positive amount", ErrInvalidSplit, item.Description)
		}
		amounts[i] = item.Amount
	}
	subtotal := money.Sum(amounts...)
	if subtotal-total > money.Epsilon {
		return nil, fmt.Errorf("%w: items add up to %.2f, more than the total %.2f", ErrInvalidSplit, subtotal, total)
	}

	splits, err := CalculateSplit(items, total, subtotal, participants)
	if err != nil {
		return nil, err
	}

	parts := make([]float64, len(participants))
	for i, p := range participants {
		parts[i] = splits[p].Total
	}
	parts = money.Reconcile(parts, total)

	shares := make([]Share, 0, len(participants))
	for i, p := range participants {
		if parts[i] > 0 {
			shares = append(shares, Share{UserID: p, Amount: parts[i]})
		}
	}
	return shares, nil
}

// EqualShares divides total evenly among participants, cent-exact.
func EqualShares(total float64, participants []string) ([]Share, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: must have at least one participant", ErrInvalidSplit)
	}
	amounts := money.AllocateEqual(total, len(participants))
	shares := make([]Share, len(participants))
	for i, p := range participants {
		shares[i] = Share{UserID: p, Amount: amounts[i]}
	}
	return shares, nil
}

// ValidateShares checks that shares are positive, name each user once and add
// up to total to the cent. what names the shares in error messages.
func ValidateShares(what string, total float64, shares []Share) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: at least one %s is required", ErrInvalidSplit, what)
	}
	seen := make(map[string]bool, len(shares))
	amounts := make([]float64, len(shares))
	for i, s := range shares {
		if s.UserID == "" {
			return fmt.Errorf("%w: %s user_id required", ErrInvalidSplit, what)
		}
		if seen[s.UserID] {
			return fmt.Errorf("%w: %s %s listed more than once", ErrInvalidSplit, what, s.UserID)
		}
		seen[s.UserID] = true
		if s.Amount <= 0 {
			return fmt.Errorf("%w: %s amount for %s must be positive", ErrInvalidSplit, what, s.UserID)
		}
		amounts[i] = s.Amount
	}
	if sum := money.Sum(amounts...); !money.EqualCents(sum, total) {
		return fmt.Errorf("%w: %s amounts add up to %.2f, expected %.2f", ErrInvalidSplit, what, sum, total)
	}
	return nil
}
