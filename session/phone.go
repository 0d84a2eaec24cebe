package session

import (
	"regexp"
	"strings"

	"paymordomo/format"
)

// EmailDomain is the synthetic domain phone logins are mapped to.
const EmailDomain = "paymordomo.local"

var nonDigits = regexp.MustCompile(`\D`)

// PhoneToEmail maps "(11) 98765-4321" to "11987654321@paymordomo.local".
func PhoneToEmail(phone string) string {
	return nonDigits.ReplaceAllString(phone, "") + "@" + EmailDomain
}

// EmailToPhone reverses PhoneToEmail and formats the number. Anything that
// is not a synthetic address is returned unchanged.
func EmailToPhone(email string) string {
	local, ok := strings.CutSuffix(email, "@"+EmailDomain)
	if !ok || local == "" || nonDigits.MatchString(local) {
		return email
	}
	return format.Phone(local)
}
