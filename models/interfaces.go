package models

import (
	"context"
	"time"
)

// ChainClient fetches the raw option-chain document from the upstream API.
type ChainClient interface {
	FetchChain(ctx context.Context, expiryLabel string) (*RawChainDocument, error)
}

// BaselineStore owns BaselineSnapshot durability. Load returns nil without
// error when no snapshot exists for the key.
type BaselineStore interface {
	Load(tradingDate time.Time, expiryLabel string) (*BaselineSnapshot, error)
	Save(snapshot *BaselineSnapshot) error
}

// Notifier delivers one alert over one channel. Implementations are
// best-effort; a returned error is logged by the caller, never propagated
// into the evaluation path.
type Notifier interface {
	Notify(subject, body string) error
}
