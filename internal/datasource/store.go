package datasource

import (
	"github.com/google/wire"
)

// HubStore is every backend resource the gateway serves.
type HubStore interface {
	DatasetStore
	ModelStore
	ExperimentStore
	RunStore
	InferenceServiceStore
	EntrypointStore
}

var _ HubStore = &Client{}

var WireSet = wire.NewSet(
	NewConfigFromEnv,
	NewGatewayClient,
	wire.Bind(new(HubStore), new(*Client)),
	wire.Bind(new(EntrypointStore), new(*Client)),
)
