package table

import (
	"github.com/shopspring/decimal"
)

// Stats tracks session level results of a table.
type Stats struct {
	Spins      int             `json:"spins"`
	Wins       int             `json:"wins"`
	Losses     int             `json:"losses"`
	Wagered    int             `json:"wagered"`
	PaidOut    int             `json:"paidOut"`
	BiggestWin int             `json:"biggestWin"`
	RTP        decimal.Decimal `json:"rtp"`
}

func (s *Stats) record(stake, payout int) {
	s.Spins++
	if payout > 0 {
		s.Wins++
	} else {
		s.Losses++
	}
	s.Wagered += stake
	s.PaidOut += payout
	if payout > s.BiggestWin {
		s.BiggestWin = payout
	}
	s.RTP = rtp(s.PaidOut, s.Wagered)
}

// rtp is the share of wagered money returned to the player, rounded to 4 places.
func rtp(paidOut, wagered int) decimal.Decimal {
	if wagered == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(paidOut)).
		DivRound(decimal.NewFromInt(int64(wagered)), 4)
}
