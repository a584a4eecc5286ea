package models

import "time"

// SnapshotKind names the three record families.
type SnapshotKind string

const (
	KindTrialBalance SnapshotKind = "trial_balance"
	KindPortfolio    SnapshotKind = "portfolio_valuation"
	KindDividends    SnapshotKind = "dividends"
)

// Snapshot is the (fund, source, date) triple of record sets fed to the
// metrics calculator and validators.
type Snapshot struct {
	Fund         string    `json:"fund"`
	Source       string    `json:"source"`
	Date         time.Time `json:"date"`
	TrialBalance []Record  `json:"trial_balance"`
	Portfolio    []Record  `json:"portfolio"`
	Dividends    []Record  `json:"dividends"`
}

// Empty reports whether neither trial balance nor portfolio rows exist.
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.TrialBalance) == 0 && len(s.Portfolio) == 0)
}

// Records returns the record set of the given kind.
func (s *Snapshot) Records(kind SnapshotKind) []Record {
	if s == nil {
		return nil
	}
	switch kind {
	case KindTrialBalance:
		return s.TrialBalance
	case KindPortfolio:
		return s.Portfolio
	case KindDividends:
		return s.Dividends
	}
	return nil
}
