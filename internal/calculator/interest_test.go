package calculator

import "testing"

func TestInterestShares(t *testing.T) {
	tests := []struct {
		name       string
		interest   int64
		nonWinners int
		want       []int64
		wantErr    bool
	}{
		{
			name:       "even split",
			interest:   100,
			nonWinners: 4,
			want:       []int64{25, 25, 25, 25},
		},
		{
			name:       "remainder goes to first non-winner",
			interest:   101,
			nonWinners: 2,
			want:       []int64{51, 50},
		},
		{
			name:       "interest smaller than member count",
			interest:   2,
			nonWinners: 5,
			want:       []int64{2, 0, 0, 0, 0},
		},
		{
			name:       "zero interest",
			interest:   0,
			nonWinners: 3,
			want:       []int64{0, 0, 0},
		},
		{
			name:       "single non-winner takes everything",
			interest:   7,
			nonWinners: 1,
			want:       []int64{7},
		},
		{
			name:       "negative interest should error",
			interest:   -1,
			nonWinners: 2,
			wantErr:    true,
		},
		{
			name:       "zero non-winners should error",
			interest:   10,
			nonWinners: 0,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InterestShares(tt.interest, tt.nonWinners)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("InterestShares failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(got), len(tt.want))
			}
			var sum int64
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("share[%d] = %d, want %d", i, got[i], tt.want[i])
				}
				sum += got[i]
			}
			if sum != tt.interest {
				t.Errorf("shares sum to %d, want exactly %d", sum, tt.interest)
			}
		})
	}
}

func TestInterestSharesAlwaysComplete(t *testing.T) {
	// Exhaustive small-range check that no unit is ever lost or invented.
	for interest := int64(0); interest <= 50; interest++ {
		for n := 1; n <= 10; n++ {
			shares, err := InterestShares(interest, n)
			if err != nil {
				t.Fatalf("InterestShares(%d, %d) failed: %v", interest, n, err)
			}
			var sum int64
			for _, s := range shares {
				sum += s
			}
			if sum != interest {
				t.Fatalf("InterestShares(%d, %d) sums to %d", interest, n, sum)
			}
		}
	}
}

func TestLowestBid(t *testing.T) {
	tests := []struct {
		name    string
		amounts []int64
		want    int
		wantErr bool
	}{
		{name: "single bid", amounts: []int64{60}, want: 0},
		{name: "lowest wins", amounts: []int64{60, 40, 80}, want: 1},
		{name: "tie broken by first inserted", amounts: []int64{40, 40, 50}, want: 0},
		{name: "later strictly lower beats earlier", amounts: []int64{50, 50, 49}, want: 2},
		{name: "no bids should error", amounts: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LowestBid(tt.amounts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("LowestBid failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("LowestBid = %d, want %d", got, tt.want)
			}
		})
	}
}
