package ingest

import "errors"

// ErrMalformedPayload is returned when a transport payload is missing
// required attributes or cannot be decoded. The offending message is
// dropped; ingestion continues.
var ErrMalformedPayload = errors.New("ingest: malformed payload")
