package id

import (
	"github.com/gofrs/uuid"
)

// GenTraceID new trace id for an outgoing request
func GenTraceID() string {
	return GenUUIDString()
}

// GenUUIDString new uuid
func GenUUIDString() string {
	return uuid.Must(uuid.NewV4()).String()
}
