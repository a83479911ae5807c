// Package pathmap implements the bidirectional path translation layer
// between the local (host) and remote (containerized interpreter)
// filesystem namespaces.
package pathmap

import (
	"os"
	"path"
	"sort"
	"strings"

	"github.com/wallter/smart-xdebug-mcp/internal/dbgpcodec"
)

// Mapping is a single (local_prefix, remote_prefix) pair. Both are
// normalized absolute paths using forward slashes and no trailing
// separator.
type Mapping struct {
	Local  string
	Remote string
}

// Mapper holds an ordered, immutable list of mappings, sorted descending
// by remote-prefix length at load time so the first match in ToLocal is
// always the longest remote prefix; ToRemote picks the longest local
// prefix among the matches.
type Mapper struct {
	mappings    []Mapping
	projectRoot string
}

// Normalize collapses "." and ".." segments, unifies separators to "/",
// and strips a trailing separator (never the root "/").
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := path.Clean(p)
	if cleaned != "/" && strings.HasSuffix(cleaned, "/") {
		cleaned = strings.TrimSuffix(cleaned, "/")
	}
	return cleaned
}

// New builds a Mapper from an explicit list of mappings, normalizing and
// sorting them. Empty prefixes are dropped as a guard against a
// degenerate "everything matches" mapping. If the resulting list is
// empty, a default (projectRoot, /var/www/html) mapping is synthesized
// so a Mapper is never left with nothing to match against.
func New(projectRoot string, mappings []Mapping) *Mapper {
	var cleaned []Mapping
	for _, m := range mappings {
		local := Normalize(m.Local)
		remote := Normalize(m.Remote)
		// Normalize maps an empty prefix to ".".
		if local == "." || remote == "." || local == "/" || remote == "/" {
			continue
		}
		cleaned = append(cleaned, Mapping{Local: local, Remote: remote})
	}

	root := Normalize(projectRoot)
	if len(cleaned) == 0 {
		cleaned = []Mapping{{Local: root, Remote: "/var/www/html"}}
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return len(cleaned[i].Remote) > len(cleaned[j].Remote)
	})

	return &Mapper{mappings: cleaned, projectRoot: root}
}

// Default constructs the fallback mapper used when neither explicit
// config, an editor launch configuration, nor a compose file yields a
// mapping: (cwd, /var/www/html).
func Default() *Mapper {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return New(cwd, nil)
}

// Mappings returns the resolved, sorted mapping list.
func (m *Mapper) Mappings() []Mapping {
	out := make([]Mapping, len(m.mappings))
	copy(out, m.mappings)
	return out
}

// ToLocal translates a remote (or file://-prefixed) path to the
// corresponding local path. If no mapping's remote prefix matches, the
// normalized input is returned unchanged.
func (m *Mapper) ToLocal(p string) string {
	p = dbgpcodec.DecodeFileURI(p)
	p = Normalize(p)

	for _, mp := range m.mappings {
		if isProperPrefix(mp.Remote, p) {
			suffix := p[len(mp.Remote):]
			return joinForward(mp.Local, suffix)
		}
	}
	return p
}

// ToRemote translates a local path, resolved against the project root if
// not already absolute, to the corresponding remote path. If no mapping's
// local prefix matches, the input is returned unchanged.
func (m *Mapper) ToRemote(p string) string {
	original := p
	p = dbgpcodec.DecodeFileURI(p)
	if !strings.HasPrefix(p, "/") {
		p = joinForward(m.projectRoot, "/"+p)
	}
	p = Normalize(p)

	best := -1
	for i, mp := range m.mappings {
		if isProperPrefix(mp.Local, p) && (best < 0 || len(mp.Local) > len(m.mappings[best].Local)) {
			best = i
		}
	}
	if best >= 0 {
		mp := m.mappings[best]
		suffix := p[len(mp.Local):]
		return mp.Remote + forwardSlashes(suffix)
	}
	return original
}

func isProperPrefix(prefix, p string) bool {
	if prefix == "" {
		return false
	}
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

func joinForward(base, suffix string) string {
	if suffix == "" {
		return base
	}
	if !strings.HasPrefix(suffix, "/") {
		suffix = "/" + suffix
	}
	return Normalize(base + suffix)
}

func forwardSlashes(s string) string {
	return strings.ReplaceAll(s, "\\", "/")
}
