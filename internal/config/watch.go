package config

import (
	"github.com/fsnotify/fsnotify"
)

// WatchConfig re-reads CONFIG_FILE on change and hands the new config to onChange.
// It returns false when no config file is in use. Invalid edits are reported
// through onError and the previous config stays active.
func WatchConfig(onChange func(*Config), onError func(error)) bool {
	mu.RLock()
	v := current
	mu.RUnlock()
	if v == nil || v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg := build(v)
		if err := Validate(cfg); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}

		mu.Lock()
		AppConfig = cfg
		mu.Unlock()

		if onChange != nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
	return true
}
