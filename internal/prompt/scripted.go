// SPDX-License-Identifier: MPL-2.0

package prompt

import (
	"context"
	"fmt"
)

// Scripted is a Prompter replaying canned answers, for tests and
// non-interactive runs. Asked records every question in order.
type Scripted struct {
	Answers []bool
	Inputs  []string
	Asked   []string
}

// Confirm returns the next scripted answer; once they run out it returns
// ErrAborted.
func (s *Scripted) Confirm(_ context.Context, question string, _ bool) (bool, error) {
	s.Asked = append(s.Asked, question)
	if len(s.Answers) == 0 {
		return false, fmt.Errorf("%w: no scripted answer for %q", ErrAborted, question)
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, nil
}

// Input returns the next scripted input; once they run out it returns ErrAborted.
func (s *Scripted) Input(_ context.Context, title string) (string, error) {
	s.Asked = append(s.Asked, title)
	if len(s.Inputs) == 0 {
		return "", fmt.Errorf("%w: no scripted input for %q", ErrAborted, title)
	}
	value := s.Inputs[0]
	s.Inputs = s.Inputs[1:]
	return value, nil
}
