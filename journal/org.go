package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/fxlot/market"
)

// FormatSnapshotOrg renders a snapshot as an Org-mode heading with the
// rates in a PROPERTIES drawer.
func FormatSnapshotOrg(s RateSnapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("** Rates: %s (%s)\n", s.FetchedAt.UTC().Format(time.RFC3339), shortID(s.ID)))
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %s\n", s.ID))
	for _, c := range market.Quoted {
		r, err := s.Rates.Get(c)
		if err != nil {
			continue
		}
		b.WriteString(fmt.Sprintf(":%s: %s\n", c.Pair(), r.StringFixed(2)))
	}
	b.WriteString(":END:\n")
	return b.String()
}

// FormatSnapshotsOrg renders multiple snapshots separated by blank lines.
func FormatSnapshotsOrg(snaps []RateSnapshot) string {
	var b strings.Builder
	for i, s := range snaps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatSnapshotOrg(s))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
