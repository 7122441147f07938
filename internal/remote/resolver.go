package remote

import (
	"github.com/penwyp/gitpane/internal/config"
)

// Resolver parses clone URLs and fills in per-host settings from the config
// file. A username embedded in the URL wins over the configured one.
type Resolver struct {
	configManager config.Manager
}

// NewResolver creates a resolver. configManager may be nil.
func NewResolver(configManager config.Manager) *Resolver {
	return &Resolver{configManager: configManager}
}

// Resolve parses rawURL and applies the matching remotes entry.
func (r *Resolver) Resolve(rawURL string) (Info, error) {
	info, err := Parse(rawURL)
	if err != nil {
		return Info{}, err
	}
	if info.Username != "" || r.configManager == nil {
		return info, nil
	}

	cfg, err := r.configManager.Load()
	if err != nil || cfg == nil || cfg.Remotes == nil {
		// 配置不可用时仅返回解析结果
		return info, nil
	}
	if rc, ok := cfg.Remotes[info.DisplayHost()]; ok {
		info.Username = rc.Username
	} else if rc, ok := cfg.Remotes[info.Host]; ok {
		info.Username = rc.Username
	}
	return info, nil
}
