package sanitizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nyaruka/phonenumbers"
)

var (
	regionsMu    sync.RWMutex
	phoneRegions = []string{"IL", "US"}
)

// ValidPhoneRegion reports whether region is a CLDR region code known to the
// phone number metadata.
func ValidPhoneRegion(region string) bool {
	return phonenumbers.GetSupportedRegions()[region]
}

// SetPhoneRegions replaces the regions tried, in order, for numbers written
// without a country code.
func SetPhoneRegions(regions ...string) error {
	if len(regions) == 0 {
		return fmt.Errorf("at least one phone region is required")
	}
	for _, region := range regions {
		if !ValidPhoneRegion(region) {
			return fmt.Errorf("unsupported phone region %q", region)
		}
	}

	regionsMu.Lock()
	phoneRegions = append([]string(nil), regions...)
	regionsMu.Unlock()
	return nil
}

func PhoneRegions() []string {
	regionsMu.RLock()
	defer regionsMu.RUnlock()
	return append([]string(nil), phoneRegions...)
}

// NormalizePhone returns the E.164 form of phone, or "" when no configured
// region yields a valid number.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range PhoneRegions() {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsedNumber) {
			continue
		}
		return phonenumbers.Format(parsedNumber, phonenumbers.E164)
	}
	return ""
}
