// Package remote parses clone URLs and resolves per-host settings for the
// credentials prompt.
package remote

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Info 包含解析后的 remote 信息
type Info struct {
	Provider string // github, gitlab, bitbucket, unknown
	Host     string // 主机名，如 github.com
	Port     int    // 端口号，0 表示默认端口
	Owner    string // 仓库所有者或组织，可包含子组
	Repo     string // 仓库名称
	Protocol string // https, http, ssh
	Username string // URL 中的用户名或配置中的预填用户名
}

// scp 风格: git@host:owner/repo.git
var scpPattern = regexp.MustCompile(`^(?:([^@/]+)@)?([^:/]+):(.+)$`)

// Parse parses an https, http, ssh:// or scp-style clone URL.
func Parse(rawURL string) (Info, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Info{}, fmt.Errorf("empty URL")
	}

	switch {
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"), strings.HasPrefix(rawURL, "ssh://"):
		return parseURL(rawURL)
	case strings.Contains(rawURL, "://"):
		return Info{}, fmt.Errorf("unsupported URL scheme: %s", rawURL)
	}

	m := scpPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return Info{}, fmt.Errorf("unsupported URL format: %s", rawURL)
	}
	info := Info{Protocol: "ssh", Host: m[2], Username: m[1]}
	if err := info.setPath(m[3]); err != nil {
		return Info{}, err
	}
	info.Provider = providerFromHost(info.Host)
	return info, nil
}

func parseURL(rawURL string) (Info, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Info{}, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Hostname() == "" {
		return Info{}, fmt.Errorf("missing host: %s", rawURL)
	}

	info := Info{Protocol: u.Scheme, Host: u.Hostname()}
	if u.User != nil {
		info.Username = u.User.Username()
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Info{}, fmt.Errorf("invalid port: %s", p)
		}
		info.Port = port
	}
	if err := info.setPath(u.Path); err != nil {
		return Info{}, err
	}
	info.Provider = providerFromHost(info.Host)
	return info, nil
}

// setPath 拆分 owner/repo，owner 可包含多级路径
func (i *Info) setPath(p string) error {
	p = strings.Trim(p, "/")
	p = strings.TrimSuffix(p, ".git")
	if p == "" {
		return fmt.Errorf("missing repository path")
	}
	parts := strings.Split(p, "/")
	if len(parts) < 2 {
		return fmt.Errorf("invalid repository path: %s", p)
	}
	i.Repo = parts[len(parts)-1]
	i.Owner = strings.Join(parts[:len(parts)-1], "/")
	return nil
}

func providerFromHost(host string) string {
	switch {
	case strings.Contains(host, "github.com"):
		return "github"
	case strings.Contains(host, "gitlab.com"):
		return "gitlab"
	case strings.Contains(host, "bitbucket.org"):
		return "bitbucket"
	default:
		return "unknown"
	}
}

// UsesPassword reports whether the transport can ask for a username and
// password. SSH remotes authenticate with keys and never reach the prompt.
func (i Info) UsesPassword() bool {
	return i.Protocol == "https" || i.Protocol == "http"
}

// Directory returns the directory name git clone creates by default.
func (i Info) Directory() string {
	return i.Repo
}

// Target returns the path the clone will occupy under parent.
func (i Info) Target(parent string) string {
	return path.Join(parent, i.Directory())
}

// DisplayHost returns host[:port].
func (i Info) DisplayHost() string {
	if i.Port > 0 && !(i.Protocol == "https" && i.Port == 443) && !(i.Protocol == "http" && i.Port == 80) {
		return fmt.Sprintf("%s:%d", i.Host, i.Port)
	}
	return i.Host
}
