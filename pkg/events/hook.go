package events

// Observer is the diagnostic hook. It is called once per Trigger with the
// raw event, before any listener runs. An observer must not modify the
// registry.
type Observer func(event any)

// SetObserver installs the diagnostic observer and returns the previous one.
// There is only one observer; the last call wins. A nil observer removes it.
func (r *Registry) SetObserver(o Observer) Observer {
	var old *Observer
	if o == nil {
		old = r.observer.Swap(nil)
	} else {
		old = r.observer.Swap(&o)
	}
	if old == nil {
		return nil
	}
	return *old
}

// EnableDiagnostics switches the diagnostic hook on or off.
func (r *Registry) EnableDiagnostics(enabled bool) {
	r.diagnostics.Store(enabled)
}

func (r *Registry) DiagnosticsEnabled() bool {
	return r.diagnostics.Load()
}

func (r *Registry) notify(event any) {
	if !r.diagnostics.Load() {
		return
	}
	if o := r.observer.Load(); o != nil {
		(*o)(event)
	}
}
