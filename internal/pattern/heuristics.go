package pattern

import (
	"regexp"

	"docstracker/internal/domain"
)

var (
	billRE    = regexp.MustCompile(`(?i)_(?:FCR|AWB|RWB)_([A-Za-z0-9\-]+)`)
	bookingRE = regexp.MustCompile(`(?i)_BKG_([A-Za-z0-9\-]+)`)
	cdsRE     = regexp.MustCompile(`\d{12}`)
)

// supplement fills tokens the pattern did not capture from common filename
// conventions. Captured tokens are never overwritten.
func supplement(stem string, docType domain.DocType, tokens domain.Tokens) {
	if _, ok := tokens[domain.TokenBill]; !ok {
		if m := billRE.FindStringSubmatch(stem); m != nil {
			tokens[domain.TokenBill] = m[1]
		}
	}
	if _, ok := tokens[domain.TokenBooking]; !ok {
		if m := bookingRE.FindStringSubmatch(stem); m != nil {
			tokens[domain.TokenBooking] = m[1]
		}
	}
	if docType == domain.D01 {
		if _, ok := tokens[domain.TokenCDs]; !ok {
			if m := cdsRE.FindString(stem); m != "" {
				tokens[domain.TokenCDs] = m
			}
		}
	}
}
