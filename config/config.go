// Package config parses the siridbd TOML configuration file, mirroring
// router.ParseConfigFile's load-then-validate shape.
package config

import (
	"errors"
	"io/ioutil"
	"time"

	"github.com/BurntSushi/toml"
)

// File is the top-level TOML document for a siridbd node.
type File struct {
	ClusterID   string   `toml:"cluster-id"`
	PoolID      uint16   `toml:"pool-id"`
	PoolCount   uint16   `toml:"pool-count"`
	BindAddr    string   `toml:"bind-addr"`
	BindPort    int      `toml:"bind-port"`
	PeerSecret  string   `toml:"peer-secret"`
	EtcdSeeds   []string `toml:"etcd-seeds"`
	GossipSeeds []string `toml:"gossip-seeds"`

	InsertTimeoutMS int   `toml:"insert-timeout-ms"`
	TSMin           int64 `toml:"ts-min"`
	TSMax           int64 `toml:"ts-max"`

	SeriesRegistryPath string `toml:"series-registry-path"`
}

// Validate rejects a config that is missing something the rest of the
// process cannot safely default, the way RouterConfig.Validate does
// for relays and data nodes.
func (f *File) Validate() error {
	if f.ClusterID == "" {
		return errors.New("cluster-id must be set")
	}
	if f.PoolCount == 0 {
		return errors.New("pool-count must be at least 1")
	}
	if f.PoolID >= f.PoolCount {
		return errors.New("pool-id must be less than pool-count")
	}
	if f.BindAddr == "" {
		return errors.New("bind-addr must be set")
	}
	if f.TSMax <= f.TSMin {
		return errors.New("ts-max must be greater than ts-min")
	}
	if f.SeriesRegistryPath == "" {
		return errors.New("series-registry-path must be set")
	}
	return nil
}

// InsertTimeout returns the configured fan-out timeout, defaulting to
// 15s the way dispatch.Dispatcher does when left unset.
func (f *File) InsertTimeout() time.Duration {
	if f.InsertTimeoutMS <= 0 {
		return 15 * time.Second
	}
	return time.Duration(f.InsertTimeoutMS) * time.Millisecond
}

// Parse reads and decodes filename, the way ParseConfigFile does, but
// also validates so callers never run with a half-filled config.
func Parse(filename string) (File, error) {
	raw, err := ioutil.ReadFile(filename)
	var f File
	if err != nil {
		return f, err
	}
	if _, err := toml.Decode(string(raw), &f); err != nil {
		return f, err
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}
