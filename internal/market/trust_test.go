package market

import "testing"

func TestClampTrust(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"below minimum", -3, 0},
		{"at minimum", 0, 0},
		{"in range", 50, 50},
		{"at maximum", 500, 500},
		{"above maximum", 612.5, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampTrust(tt.in); got != tt.want {
				t.Errorf("ClampTrust(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompletionBonus(t *testing.T) {
	if got := CompletionBonus(RoleSeller); got != SellerCompletionBonus {
		t.Errorf("seller bonus = %v, want %v", got, SellerCompletionBonus)
	}
	if got := CompletionBonus(RoleBuyer); got != BuyerCompletionBonus {
		t.Errorf("buyer bonus = %v, want %v", got, BuyerCompletionBonus)
	}
}

func TestReviewAdjustedTrust(t *testing.T) {
	tests := []struct {
		name   string
		trust  float64
		count  int
		rating int
		want   float64
	}{
		{"first rating replaces the default", 50, 0, 5, 5},
		{"second rating averages with the first", 50, 1, 5, 27.5},
		{"running mean over three ratings", 4, 2, 5, 4.33},
		{"low rating drags the mean down", 4.5, 3, 1, 3.63},
		{"result is rounded to two decimals", 3, 2, 4, 3.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReviewAdjustedTrust(tt.trust, tt.count, tt.rating); got != tt.want {
				t.Errorf("ReviewAdjustedTrust(%v, %d, %d) = %v, want %v", tt.trust, tt.count, tt.rating, got, tt.want)
			}
		})
	}
}
