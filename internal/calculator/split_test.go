package calculator

import (
	"errors"
	"math"
	"testing"
)

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		name         string
		items        []Item
		billTotal    float64
		billSubtotal float64
		participants []string
		wantErr      bool
		validateFunc func(t *testing.T, splits map[string]*PersonSplit)
	}{
		{
			name: "simple two-person split with tax",
			items: []Item{
				{Description: "Pizza", Amount: 20.0, AssignedTo: []string{"Alice", "Bob"}},
				{Description: "Salad", Amount: 10.0, AssignedTo: []string{"Alice"}},
			},
			billTotal:    33.0,
			billSubtotal: 30.0,
			participants: []string{"Alice", "Bob"},
			wantErr:      false,
			validateFunc: func(t *testing.T, splits map[string]*PersonSplit) {
				// Alice: subtotal = 10 + 10 = 20, tax = 20 * (3/30) = 2, total = 22
				// Bob: subtotal = 10, tax = 10 * (3/30) = 1, total = 11
				alice := splits["Alice"]
				if math.Abs(alice.Subtotal-20.0) > 0.01 {
					t.Errorf("Alice subtotal = %v, want 20.0", alice.Subtotal)
				}
				if math.Abs(alice.Tax-2.0) > 0.01 {
					t.Errorf("Alice tax = %v, want 2.0", alice.Tax)
				}
				if math.Abs(alice.Total-22.0) > 0.01 {
					t.Errorf("Alice total = %v, want 22.0", alice.Total)
				}

				bob := splits["Bob"]
				if math.Abs(bob.Subtotal-10.0) > 0.01 {
					t.Errorf("Bob subtotal = %v, want 10.0", bob.Subtotal)
				}
				if math.Abs(bob.Total-11.0) > 0.01 {
					t.Errorf("Bob total = %v, want 11.0", bob.Total)
				}
			},
		},
		{
			name:         "zero subtotal should error",
			items:        []Item{{Description: "Item", Amount: 10.0, AssignedTo: []string{"Alice"}}},
			billTotal:    10.0,
			billSubtotal: 0.0,
			participants: []string{"Alice"},
			wantErr:      true,
		},
		{
			name:         "no participants should error",
			items:        []Item{{Description: "Item", Amount: 10.0, AssignedTo: []string{"Alice"}}},
			billTotal:    10.0,
			billSubtotal: 10.0,
			participants: []string{},
			wantErr:      true,
		},
		{
			name:         "no items - split equally among participants",
			items:        []Item{},
			billTotal:    33.0,
			billSubtotal: 30.0,
			participants: []string{"Alice", "Bob"},
			wantErr:      false,
			validateFunc: func(t *testing.T, splits map[string]*PersonSplit) {
				// Total bill = 33, split between 2 people = 16.50 each
				// Subtotal = 30, split between 2 = 15 each
				// Tax = 3, split between 2 = 1.50 each
				for _, person := range []string{"Alice", "Bob"} {
					split := splits[person]
					if math.Abs(split.Subtotal-15.0) > 0.01 {
						t.Errorf("%s subtotal = %v, want 15.0", person, split.Subtotal)
					}
					if math.Abs(split.Tax-1.5) > 0.01 {
						t.Errorf("%s tax = %v, want 1.5", person, split.Tax)
					}
					if math.Abs(split.Total-16.5) > 0.01 {
						t.Errorf("%s total = %v, want 16.5", person, split.Total)
					}
				}
			},
		},
		{
			name:         "no items - three people split",
			items:        []Item{},
			billTotal:    90.0,
			billSubtotal: 75.0,
			participants: []string{"Alice", "Bob", "Charlie"},
			wantErr:      false,
			validateFunc: func(t *testing.T, splits map[string]*PersonSplit) {
				// Total = 90 / 3 = 30 each
				// Subtotal = 75 / 3 = 25 each
				// Tax = 15 / 3 = 5 each
				for _, person := range []string{"Alice", "Bob", "Charlie"} {
					split := splits[person]
					if math.Abs(split.Subtotal-25.0) > 0.01 {
						t.Errorf("%s subtotal = %v, want 25.0", person, split.Subtotal)
					}
					if math.Abs(split.Tax-5.0) > 0.01 {
						t.Errorf("%s tax = %v, want 5.0", person, split.Tax)
					}
					if math.Abs(split.Total-30.0) > 0.01 {
						t.Errorf("%s total = %v, want 30.0", person, split.Total)
					}
				}
			},
		},
		{
			name: "unassigned item is shared by everyone",
			items: []Item{
				{Description: "Wine", Amount: 30.0},
				{Description: "Steak", Amount: 30.0, AssignedTo: []string{"Alice"}},
			},
			billTotal:    60.0,
			billSubtotal: 60.0,
			participants: []string{"Alice", "Bob", "Charlie"},
			validateFunc: func(t *testing.T, splits map[string]*PersonSplit) {
				if math.Abs(splits["Alice"].Total-40.0) > 0.01 {
					t.Errorf("Alice total = %v, want 40.0", splits["Alice"].Total)
				}
				if math.Abs(splits["Bob"].Total-10.0) > 0.01 {
					t.Errorf("Bob total = %v, want 10.0", splits["Bob"].Total)
				}
				if len(splits["Alice"].Items) != 2 {
					t.Errorf("Alice items = %d, want 2", len(splits["Alice"].Items))
				}
			},
		},
		{
			name:         "item assigned to non-participant should error",
			items:        []Item{{Description: "Item", Amount: 10.0, AssignedTo: []string{"Mallory"}}},
			billTotal:    10.0,
			billSubtotal: 10.0,
			participants: []string{"Alice"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := CalculateSplit(tt.items, tt.billTotal, tt.billSubtotal, tt.participants)
			if (err != nil) != tt.wantErr {
				t.Errorf("CalculateSplit() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && !errors.Is(err, ErrInvalidSplit) {
				t.Errorf("expected ErrInvalidSplit, got %v", err)
			}
			if !tt.wantErr && tt.validateFunc != nil {
				tt.validateFunc(t, splits)
			}
		})
	}
}

func TestItemizedShares(t *testing.T) {
	items := []Item{
		{Description: "Pizza", Amount: 20.0, AssignedTo: []string{"Alice", "Bob"}},
		{Description: "Salad", Amount: 10.0, AssignedTo: []string{"Alice"}},
	}
	shares, err := ItemizedShares(items, 33.0, []string{"Alice", "Bob", "Charlie"})
	if err != nil {
		t.Fatalf("ItemizedShares failed: %v", err)
	}

	// Charlie has no items and is left out.
	if len(shares) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(shares))
	}
	if shares[0].UserID != "Alice" || shares[0].Amount != 22.0 {
		t.Errorf("Alice share = %+v, want 22.00", shares[0])
	}
	if shares[1].UserID != "Bob" || shares[1].Amount != 11.0 {
		t.Errorf("Bob share = %+v, want 11.00", shares[1])
	}
}

func TestItemizedShares_CentExact(t *testing.T) {
	items := []Item{{Description: "Platter", Amount: 20.0}}
	shares, err := ItemizedShares(items, 22.0, []string{"Alice", "Bob", "Charlie"})
	if err != nil {
		t.Fatalf("ItemizedShares failed: %v", err)
	}
	var sum float64
	for _, s := range shares {
		sum += s.Amount
	}
	if math.Abs(sum-22.0) > 1e-9 {
		t.Errorf("shares sum to %v, want exactly 22", sum)
	}
	if shares[0].Amount != 7.34 {
		t.Errorf("first share = %v, want 7.34", shares[0].Amount)
	}
}

func TestItemizedShares_Errors(t *testing.T) {
	if _, err := ItemizedShares(nil, 10, []string{"Alice"}); !errors.Is(err, ErrInvalidSplit) {
		t.Errorf("expected ErrInvalidSplit for no items, got %v", err)
	}
	items := []Item{{Description: "Lobster", Amount: 50.0}}
	if _, err := ItemizedShares(items, 40, []string{"Alice"}); !errors.Is(err, ErrInvalidSplit) {
		t.Errorf("expected ErrInvalidSplit when items exceed total, got %v", err)
	}
}

func TestEqualShares(t *testing.T) {
	shares, err := EqualShares(90, []string{"X", "Y", "Z"})
	if err != nil {
		t.Fatalf("EqualShares failed: %v", err)
	}
	for _, s := range shares {
		if s.Amount != 30 {
			t.Errorf("%s share = %v, want 30", s.UserID, s.Amount)
		}
	}

	if _, err := EqualShares(90, nil); !errors.Is(err, ErrInvalidSplit) {
		t.Errorf("expected ErrInvalidSplit for no participants, got %v", err)
	}
}

func TestValidateShares(t *testing.T) {
	tests := []struct {
		name    string
		shares  []Share
		wantErr bool
	}{
		{"matches total", []Share{{"a", 60}, {"b", 40}}, false},
		{"cent-exact thirds", []Share{{"a", 33.34}, {"b", 33.33}, {"c", 33.33}}, false},
		{"a cent short", []Share{{"a", 33.33}, {"b", 33.33}, {"c", 33.33}}, true},
		{"a cent over", []Share{{"a", 50.01}, {"b", 50}}, true},
		{"short", []Share{{"a", 60}, {"b", 30}}, true},
		{"duplicate user", []Share{{"a", 50}, {"a", 50}}, true},
		{"zero amount", []Share{{"a", 100}, {"b", 0}}, true},
		{"missing user", []Share{{"", 100}}, true},
		{"empty", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShares("split", 100, tt.shares)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateShares() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSplit) {
				t.Errorf("expected ErrInvalidSplit, got %v", err)
			}
		})
	}
}
