package config

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the config file whenever it changes and hands every valid
// result to onChange. Invalid edits are logged and skipped. It returns false
// when no config file was loaded, since there is nothing to watch.
func (c *Config) Watch(onChange func(*Config)) bool {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return false
	}
	if c.watching {
		return true
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log.Printf("[CONFIG] Config file changed: %s (%s)", e.Name, e.Op)

		next, err := c.reload()
		if err != nil {
			log.Printf("[CONFIG] Ignoring invalid configuration change: %v", err)
			return
		}
		onChange(next)
	})
	c.v.WatchConfig()
	c.watching = true

	return true
}

// reload builds a fresh Config from the already-read viper state
func (c *Config) reload() (*Config, error) {
	next := &Config{v: c.v}
	if err := c.v.Unmarshal(next); err != nil {
		return nil, err
	}
	next.applyFallbacks()
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}
