// internal/intake/validate.go
package intake

import (
	"regexp"
	"strings"
)

// Loose phone shape: optional leading +, then at least ten digits, spaces,
// hyphens or parentheses. Format equivalence is deliberately not checked.
var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{10,}$`)

// Validate is the pre-submission gate the engine trusts its callers to run.
// It returns one message per failing field, keyed by field name, and an
// empty map when the submission is acceptable. Fields are checked after
// trimming.
func Validate(sub Submission) map[string]string {
	errs := make(map[string]string)

	name := strings.TrimSpace(sub.Name)
	switch {
	case name == "":
		errs["name"] = "Name is required"
	case len(name) < 2:
		errs["name"] = "Name must be at least 2 characters"
	}

	phone := strings.TrimSpace(sub.Phone)
	switch {
	case phone == "":
		errs["phone"] = "Phone number is required"
	case !phonePattern.MatchString(phone):
		errs["phone"] = "Please enter a valid phone number"
	}

	address := strings.TrimSpace(sub.Address)
	switch {
	case address == "":
		errs["address"] = "Property address is required"
	case len(address) < 5:
		errs["address"] = "Please enter a complete address"
	}

	issue := strings.TrimSpace(sub.Issue)
	switch {
	case issue == "":
		errs["issue"] = "Issue description is required"
	case len(issue) < 10:
		errs["issue"] = "Please provide more details about the issue (at least 10 characters)"
	}

	return errs
}

// Trim returns the submission with every field trimmed, the shape the
// engine and the relay payload expect.
func Trim(sub Submission) Submission {
	return Submission{
		Name:    strings.TrimSpace(sub.Name),
		Phone:   strings.TrimSpace(sub.Phone),
		Address: strings.TrimSpace(sub.Address),
		Issue:   strings.TrimSpace(sub.Issue),
	}
}
