package core

// Amount carries a value in both currencies. Sums are taken per currency from
// the stored columns, never re-converted.
type Amount struct {
	EUR float64
	BDT float64
}

// Add returns a + o.
func (a Amount) Add(o Amount) Amount {
	return Amount{EUR: a.EUR + o.EUR, BDT: a.BDT + o.BDT}
}

// Sub returns a - o.
func (a Amount) Sub(o Amount) Amount {
	return Amount{EUR: a.EUR - o.EUR, BDT: a.BDT - o.BDT}
}

// Format renders the pair for the given view.
func (a Amount) Format(v View) string {
	return FormatAmount(a.EUR, a.BDT, v)
}

// AmountOf returns the stored EUR/BDT pair of a transaction.
func AmountOf(t Transaction) Amount {
	return Amount{EUR: t.AmountEUR, BDT: t.AmountBDT}
}
