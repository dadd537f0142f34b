package extraction

import "errors"

// ErrDecoderFinished is returned by Feed and Finish once a session has
// reached its terminal state. Callers that keep feeding a finished session
// always get this error and never new events.
var ErrDecoderFinished = errors.New("decoder session already finished")
