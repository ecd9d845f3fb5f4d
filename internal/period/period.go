// Package period resolves reporting-period tokens into date predicates.
package period

import (
	"time"

	"github.com/claimline/receivables-cli/internal/model"
)

// Token is a reporting-period selector.
type Token string

const (
	Token3M  Token = "3m"
	Token6M  Token = "6m"
	Token12M Token = "12m"
	TokenYTD Token = "ytd"
	TokenAll Token = "all"
)

// Window is a resolved reporting period. A nil Start means no date
// filter ("all"). Windows are lower-bounded only: there is no upper
// bound, so future-dated records always pass an active window.
type Window struct {
	Token Token
	Start *time.Time
}

// Resolve maps a period token to a Window relative to now. Unrecognized
// tokens fail open to the unfiltered window rather than erroring, so a
// stale or mistyped query parameter degrades to "all time" instead of a
// broken dashboard.
func Resolve(token string, now time.Time) Window {
	switch Token(token) {
	case Token3M:
		return trailing(Token3M, now, 3)
	case Token6M:
		return trailing(Token6M, now, 6)
	case Token12M:
		return trailing(Token12M, now, 12)
	case TokenYTD:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return Window{Token: TokenYTD, Start: &start}
	default:
		return Window{Token: TokenAll}
	}
}

func trailing(tok Token, now time.Time, months int) Window {
	start := now.AddDate(0, -months, 0)
	return Window{Token: tok, Start: &start}
}

// Active reports whether the window filters at all.
func (w Window) Active() bool {
	return w.Start != nil
}

// ContainsInvoice reports whether the record's invoice date falls inside
// the window. Records with no invoice date are excluded by an active
// window.
func (w Window) ContainsInvoice(rec *model.ReceivableRecord) bool {
	return w.containsDate(rec.InvoiceDate)
}

// ContainsCollection reports whether the record's collection date falls
// inside the window. Uncollected records (nil collection date) are
// excluded whenever a window is active.
func (w Window) ContainsCollection(rec *model.ReceivableRecord) bool {
	return w.containsDate(rec.CollectionDate)
}

// ContainsEither reports whether either date satisfies the window. This
// is the legacy combined filter: a case invoiced in one period and
// collected in another satisfies both periods' windows, so reports built
// on it can count that case twice across two periods. Known and
// intentional; confirm with domain owners before changing.
func (w Window) ContainsEither(rec *model.ReceivableRecord) bool {
	return w.containsDate(rec.InvoiceDate) || w.containsDate(rec.CollectionDate)
}

func (w Window) containsDate(d *time.Time) bool {
	if !w.Active() {
		return true
	}
	if d == nil {
		return false
	}
	return !d.Before(*w.Start)
}
