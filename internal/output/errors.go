package output

import "errors"

var errNoResults = errors.New("plan has no results; solve it first")
