package pricing

import "testing"

func TestTierFor(t *testing.T) {
	tests := []struct {
		name     string
		industry string
		want     Tier
	}{
		{"restaurants maps to basic", "restaurants", TierBasic},
		{"fitness maps to mid", "fitness", TierMid},
		{"law maps to high", "law", TierHigh},
		{"unknown defaults to basic", "taxidermy", TierBasic},
		{"case and spacing normalized", "Real Estate", TierMid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TierFor(tt.industry); got != tt.want {
				t.Errorf("TierFor(%q) = %v, want %v", tt.industry, got, tt.want)
			}
		})
	}
}

func TestSubscriptionPrice(t *testing.T) {
	tests := []struct {
		name     string
		industry string
		plan     Plan
		want     float64
	}{
		{"starter discount on basic tier", "restaurants", BasePlans["starter"], 9},
		{"pro discount on mid tier", "fitness", BasePlans["pro"], 18},
		{"elite discount on high tier", "law", BasePlans["elite"], 45},
		{"discount of 1.0 clamps to zero", "law", Plan{Discount: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SubscriptionPrice(tt.industry, tt.plan); got != tt.want {
				t.Errorf("SubscriptionPrice(%q) = %v, want %v", tt.industry, got, tt.want)
			}
		})
	}
}

func TestBasePriceFor(t *testing.T) {
	if got := BasePriceFor("cleaning"); got != 15 {
		t.Errorf("BasePriceFor(cleaning) = %v, want 15", got)
	}
	if got := BasePriceFor("consulting"); got != 150 {
		t.Errorf("BasePriceFor(consulting) = %v, want 150", got)
	}
}
