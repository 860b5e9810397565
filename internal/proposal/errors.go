package proposal

import "errors"

// ErrProposalExists is returned when the computed proposal file already
// exists. The existing file is left untouched.
var ErrProposalExists = errors.New("proposal already exists")
