package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		Name:    "Jordan Reyes",
		Phone:   "+1 (555) 867-5309",
		Address: "12 Elm Street",
		Issue:   "Kitchen sink leaking under the cabinet",
	}
}

func TestValidateAcceptsCompleteSubmission(t *testing.T) {
	require.Empty(t, Validate(validSubmission()))
}

func TestValidateRejectsPerField(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Submission)
		field  string
		msg    string
	}{
		{"short name", func(s *Submission) { s.Name = "A" }, "name", "Name must be at least 2 characters"},
		{"empty name", func(s *Submission) { s.Name = "   " }, "name", "Name is required"},
		{"short phone", func(s *Submission) { s.Phone = "12345" }, "phone", "Please enter a valid phone number"},
		{"alpha phone", func(s *Submission) { s.Phone = "call me maybe" }, "phone", "Please enter a valid phone number"},
		{"empty phone", func(s *Submission) { s.Phone = "" }, "phone", "Phone number is required"},
		{"short address", func(s *Submission) { s.Address = "Rd" }, "address", "Please enter a complete address"},
		{"empty address", func(s *Submission) { s.Address = "" }, "address", "Property address is required"},
		{"short issue", func(s *Submission) { s.Issue = "broken" }, "issue", "Please provide more details about the issue (at least 10 characters)"},
		{"empty issue", func(s *Submission) { s.Issue = "" }, "issue", "Issue description is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			tc.mutate(&sub)

			errs := Validate(sub)
			require.Len(t, errs, 1)
			assert.Equal(t, tc.msg, errs[tc.field])
		})
	}
}

func TestValidateTrimsBeforeChecking(t *testing.T) {
	sub := validSubmission()
	sub.Name = "  A  " // one significant character
	errs := Validate(sub)
	require.Contains(t, errs, "name")
}

func TestValidateReportsEveryFailingField(t *testing.T) {
	errs := Validate(Submission{})
	require.Len(t, errs, 4)
}

func TestTrim(t *testing.T) {
	sub := Trim(Submission{
		Name:    "  Jordan Reyes ",
		Phone:   " +1 555 867 5309",
		Address: "12 Elm Street  ",
		Issue:   " Kitchen sink leaking under the cabinet ",
	})
	assert.Equal(t, validSubmission().Name, sub.Name)
	assert.Equal(t, "+1 555 867 5309", sub.Phone)
	assert.Equal(t, "12 Elm Street", sub.Address)
	assert.Equal(t, "Kitchen sink leaking under the cabinet", sub.Issue)
}
