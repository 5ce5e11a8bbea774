package app

import (
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

type CloseFunc func() error

func (instance *Instance) AddCloseFunc(fn CloseFunc) {
	instance.AddCloser(&closeWrapper{fn: fn})
}

type closeWrapper struct {
	fn CloseFunc
}

func (w *closeWrapper) Close() error {
	return w.fn()
}

func (instance *Instance) AddCloser(closer io.Closer) {
	instance.lock.Lock()
	defer instance.lock.Unlock()
	instance.closers = append(instance.closers, closer)
}

// Stop asks WaitForFinish to shut down. It can be called any number of times.
func (instance *Instance) Stop(failed bool) {
	instance.lock.Lock()
	instance.failed = failed || instance.failed
	instance.lock.Unlock()
	instance.stopOnce.Do(func() {
		close(instance.stop)
	})
}

// Shutdown cancels the context and runs every closer concurrently. The returned error gathers the closers'
// failures.
func (instance *Instance) Shutdown() error {
	instance.cancel()

	instance.lock.Lock()
	closers := append([]io.Closer(nil), instance.closers...)
	instance.lock.Unlock()

	var (
		wg     sync.WaitGroup
		lock   sync.Mutex
		result *multierror.Error
	)
	wg.Add(len(closers))
	for _, closer := range closers {
		go func(closer io.Closer) {
			defer wg.Done()
			if err := closer.Close(); err != nil {
				lock.Lock()
				result = multierror.Append(result, err)
				lock.Unlock()
			}
		}(closer)
	}
	wg.Wait()

	return result.ErrorOrNil()
}

// WaitForFinish blocks until a signal arrives or Stop is called, then shuts down. The process exits with
// a failure status if anything went wrong on the way.
func (instance *Instance) WaitForFinish() {
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigint)

	select {
	case sig := <-sigint:
		log.Infof("received %s, shutting down", sig)
	case <-instance.stop:
		log.Infof("stop requested, shutting down")
	}

	if err := instance.Shutdown(); err != nil {
		log.Errorf("failed to close: %s", err)
		instance.Stop(true)
	}

	instance.lock.Lock()
	failed := instance.failed
	instance.lock.Unlock()
	if failed {
		os.Exit(1)
	}
}
