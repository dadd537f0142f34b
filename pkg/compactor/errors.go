package compactor

import "fmt"

// InputTooLargeError reports text that still exceeds the character budget
// after aggressive compaction. It carries exact before and after counts so
// a caller can self-serve a fix by trimming the input manually.
type InputTooLargeError struct {
	OriginalChars int
	CleanedChars  int
	TargetChars   int
}

func (e *InputTooLargeError) Error() string {
	return fmt.Sprintf("input of %d characters is still %d characters after compaction, over the %d character budget; trim the input manually",
		e.OriginalChars, e.CleanedChars, e.TargetChars)
}
