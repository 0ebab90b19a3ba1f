package invoice

import (
	"time"

	"translation_marketplace/internal/domain/request"
)

// Invoice is a rendered billing artifact for a priced request.
type Invoice struct {
	Number      string
	Filename    string
	ContentType string
	Data        []byte
}

// Generator renders an invoice for a request. It has no state-machine
// dependency: it is invoked after completion or on explicit request.
type Generator interface {
	Generate(req *request.Request, issuedAt time.Time) (*Invoice, error)
}
