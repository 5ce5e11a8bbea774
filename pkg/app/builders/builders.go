package builders

import (
	"github.com/google/wire"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/app"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	interceptors_inflight "github.infra.cloudera.com/CAI/MLOpsHub/pkg/interceptors/in-flight"
	sbhttpserver "github.infra.cloudera.com/CAI/MLOpsHub/pkg/serverbase/http/server"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
)

// Builders provides the process infrastructure shared by every binary serving HTTP.
var Builders = wire.NewSet(
	app.NewInstance,
	clientbase.WireSet,
	cbhttp.NewConfigFromEnv,
	cbhttp.NewInstance,
	interceptors_inflight.NewConfigFromEnv,
	interceptors_inflight.NewInterceptor,
	ltime.NewWallWatch,
	wire.Bind(new(ltime.Watch), new(ltime.WallWatch)),
	sbhttpserver.NewConfigFromEnv,
	sbhttpserver.NewInstance,
)
