package pathmap

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wallter/smart-xdebug-mcp/internal/xlog"
)

// Load resolves the mapping list in order of precedence: explicit
// config, then an editor launch configuration, then a compose file's
// service volumes, then the default.
func Load(projectRoot string, explicit []Mapping, launchConfigPath, composePath string) *Mapper {
	if len(explicit) > 0 {
		return New(projectRoot, explicit)
	}

	if launchConfigPath != "" {
		if m, err := loadLaunchConfig(launchConfigPath); err == nil && len(m) > 0 {
			return New(projectRoot, m)
		} else if err != nil {
			xlog.Warn("pathmap: could not parse launch configuration %s: %v", launchConfigPath, err)
		}
	}

	if composePath != "" {
		if m, err := loadCompose(composePath); err == nil && len(m) > 0 {
			return New(projectRoot, m)
		} else if err != nil {
			xlog.Warn("pathmap: could not parse compose file %s: %v", composePath, err)
		}
	}

	return New(projectRoot, nil)
}

// launchConfig mirrors the handful of fields a VS Code / editor "php"
// debug launch.json entry can carry.
type launchConfig struct {
	Configurations []struct {
		Type         string            `json:"type"`
		PathMappings map[string]string `json:"pathMappings"`
	} `json:"configurations"`
}

var (
	lineCommentRe   = regexp.MustCompile(`(?m)//.*$`)
	blockCommentRe  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// stripJSONC tolerates // and /* */ comments and trailing commas, the two
// deviations from strict JSON that editor launch configs commonly use.
func stripJSONC(data []byte) []byte {
	s := string(data)
	s = blockCommentRe.ReplaceAllString(s, "")
	s = lineCommentRe.ReplaceAllString(s, "")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return []byte(s)
}

func loadLaunchConfig(path string) ([]Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg launchConfig
	if err := json.Unmarshal(stripJSONC(raw), &cfg); err != nil {
		return nil, err
	}

	for _, c := range cfg.Configurations {
		if !strings.EqualFold(c.Type, "php") {
			continue
		}
		if len(c.PathMappings) == 0 {
			continue
		}
		var out []Mapping
		for remote, local := range c.PathMappings {
			out = append(out, Mapping{Local: local, Remote: remote})
		}
		return out, nil
	}
	return nil, nil
}

// composeFile is the minimal shape needed from a docker-compose file to
// recover bind-mount style path mappings.
type composeFile struct {
	Services map[string]struct {
		Volumes []string `yaml:"volumes"`
	} `yaml:"services"`
}

func loadCompose(path string) ([]Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cf composeFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return nil, err
	}

	var out []Mapping
	for _, svc := range cf.Services {
		for _, v := range svc.Volumes {
			local, remote, ok := parseBindMount(v)
			if ok {
				out = append(out, Mapping{Local: local, Remote: remote})
			}
		}
	}
	return out, nil
}

// parseBindMount filters out named volumes (no leading "." or "/") and
// system-level mounts (a source or destination under /var/run, /proc,
// /sys or /dev), keeping only host-bind-mount-shaped entries
// "src:dst[:opts]".
func parseBindMount(v string) (local, remote string, ok bool) {
	parts := strings.Split(v, ":")
	if len(parts) < 2 {
		return "", "", false
	}
	src, dst := parts[0], parts[1]

	if !strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "./") && !strings.HasPrefix(src, "../") && !strings.HasPrefix(src, ".") {
		return "", "", false // named volume, e.g. "dbdata:/var/lib/mysql"
	}
	for _, sysPrefix := range []string{"/var/run", "/proc", "/sys", "/dev"} {
		if strings.HasPrefix(src, sysPrefix) || strings.HasPrefix(dst, sysPrefix) {
			return "", "", false
		}
	}
	return src, dst, true
}
