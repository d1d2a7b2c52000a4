package dbusipc

import "github.com/google/uuid"

// parseToken parses a caller-supplied subscription/registration/request
// token string back into the uuid this module generated for it,
// yielding BadArgs for anything malformed.
func parseToken(s string) (uuid.UUID, *Error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errBadArgs()
	}
	return id, nil
}
