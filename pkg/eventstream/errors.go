package eventstream

import "errors"

// ErrNilReportEvent indicates a nil report event payload was provided to a publisher.
var ErrNilReportEvent = errors.New("nil report event")
