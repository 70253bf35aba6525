package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{"", SubmissionDraft, true},
		{"", SubmissionSubmitted, true},
		{"", SubmissionGraded, false},
		{SubmissionDraft, SubmissionSubmitted, true},
		{SubmissionSubmitted, SubmissionDraft, false},
		{SubmissionSubmitted, SubmissionSubmitted, false},
		{SubmissionSubmitted, SubmissionGraded, true},
		{SubmissionGraded, SubmissionGraded, true},
		{SubmissionGraded, SubmissionReturned, true},
		{SubmissionGraded, SubmissionSubmitted, false},
		{SubmissionReturned, SubmissionSubmitted, true},
		{SubmissionReturned, SubmissionGraded, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%q -> %q", tc.from, tc.to)
	}
}
