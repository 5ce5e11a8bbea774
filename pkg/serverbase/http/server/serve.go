package sbhttpserver

import (
	"errors"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/app"
)

// Serve listens in the background. The app is stopped if the listener fails, and stopping the app shuts
// the listener down.
func (b *Instance) Serve() error {
	if b.config.EnableProfiling {
		b.registerProfileHandlers()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	b.app.AddCloseFunc(func() error {
		ctx, cancel := app.BackgroundTimeoutContext()
		defer cancel()
		err := b.server.Shutdown(ctx)
		wg.Wait()
		return err
	})

	log.Infof("serving at port %d", b.config.Port)
	go func() {
		defer wg.Done()
		err := b.server.ListenAndServe()

		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("failed to run server: %s", err)
			b.app.Stop(true)
		}
	}()

	return nil
}
