package sendtomorrowreminders

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone formats raw as E.164, reading numbers without a country code
// against region. Numbers that do not parse are returned trimmed but unchanged.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
