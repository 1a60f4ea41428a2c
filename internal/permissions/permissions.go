package permissions

import (
	"sort"
	"strings"
)

// Config maps each configured service to its chosen permission level.
//
// A nil *Config means unrestricted mode: every scope is allowed and no tool
// is filtered. A non-nil Config is immutable once constructed and is safe to
// share between goroutines.
type Config struct {
	levels map[string]string
}

// ScopeSet is a de-duplicated set of OAuth scopes.
type ScopeSet map[string]struct{}

// Has reports whether scope is in the set.
func (s ScopeSet) Has(scope string) bool {
	_, ok := s[scope]
	return ok
}

// Sorted returns the scopes in lexical order.
func (s ScopeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for scope := range s {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}

// Services returns the names of all services with a permission ladder, sorted.
func Services() []string {
	out := make([]string, 0, len(serviceLevels))
	for name := range serviceLevels {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ValidLevels returns the level names of service, lowest first, or nil if the
// service is unknown.
func ValidLevels(service string) []string {
	levels, ok := serviceLevels[service]
	if !ok {
		return nil
	}
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.Name
	}
	return names
}

// ScopesForLevel returns the cumulative scopes granted by level: the scopes of
// every rung up to and including level, in first-seen order without
// duplicates.
func ScopesForLevel(service, level string) ([]string, error) {
	levels, ok := serviceLevels[service]
	if !ok {
		return nil, &UnknownServiceError{Service: service, Valid: Services()}
	}

	var scopes []string
	seen := make(map[string]struct{})
	for _, l := range levels {
		for _, scope := range l.Scopes {
			if _, dup := seen[scope]; dup {
				continue
			}
			seen[scope] = struct{}{}
			scopes = append(scopes, scope)
		}
		if l.Name == level {
			return scopes, nil
		}
	}

	return nil, &UnknownLevelError{Service: service, Level: level, Valid: ValidLevels(service)}
}

// NewConfig validates a service to level mapping and returns it as a Config.
// An empty mapping yields a nil Config (unrestricted mode).
func NewConfig(levels map[string]string) (*Config, error) {
	if len(levels) == 0 {
		return nil, nil
	}
	services := make([]string, 0, len(levels))
	for service := range levels {
		services = append(services, service)
	}
	sort.Strings(services)

	cfg := &Config{levels: make(map[string]string, len(levels))}
	for _, service := range services {
		level := levels[service]
		if err := validate(service, level); err != nil {
			return nil, err
		}
		cfg.levels[service] = level
	}
	return cfg, nil
}

// ParseSpecs parses "service:level" entries such as "gmail:organize".
// Each entry is split on its first colon. Parsing is all-or-nothing: the
// first invalid entry fails the whole batch. An empty list yields a nil
// Config (unrestricted mode).
func ParseSpecs(specs []string) (*Config, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	levels := make(map[string]string, len(specs))
	for _, raw := range specs {
		entry := strings.TrimSpace(raw)
		service, level, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, &MalformedSpecError{Spec: entry}
		}
		if _, dup := levels[service]; dup {
			return nil, &DuplicateServiceError{Service: service}
		}
		if err := validate(service, level); err != nil {
			return nil, err
		}
		levels[service] = level
	}
	return &Config{levels: levels}, nil
}

func validate(service, level string) error {
	if _, ok := serviceLevels[service]; !ok {
		return &UnknownServiceError{Service: service, Valid: Services()}
	}
	for _, name := range ValidLevels(service) {
		if name == level {
			return nil
		}
	}
	return &UnknownLevelError{Service: service, Level: level, Valid: ValidLevels(service)}
}

// Unrestricted reports whether no permission configuration is active.
func (c *Config) Unrestricted() bool {
	return c == nil
}

// Level returns the configured level for service.
func (c *Config) Level(service string) (string, bool) {
	if c == nil {
		return "", false
	}
	level, ok := c.levels[service]
	return level, ok
}

// Levels returns a copy of the service to level mapping.
func (c *Config) Levels() map[string]string {
	if c == nil {
		return nil
	}
	out := make(map[string]string, len(c.levels))
	for k, v := range c.levels {
		out[k] = v
	}
	return out
}

// AllowedScopes returns the union of the cumulative scopes of every
// configured service. The boolean is false in unrestricted mode, in which
// case callers must not filter anything.
func (c *Config) AllowedScopes() (ScopeSet, bool) {
	if c == nil {
		return nil, false
	}
	set := make(ScopeSet)
	for service, level := range c.levels {
		// levels were validated on construction
		scopes, _ := ScopesForLevel(service, level)
		for _, scope := range scopes {
			set[scope] = struct{}{}
		}
	}
	return set, true
}

// Allows reports whether scope is permitted under the configuration.
func (c *Config) Allows(scope string) bool {
	allowed, restricted := c.AllowedScopes()
	if !restricted {
		return true
	}
	return allowed.Has(scope)
}

// AllowsAll reports whether every one of scopes is permitted.
func (c *Config) AllowsAll(scopes ...string) bool {
	allowed, restricted := c.AllowedScopes()
	if !restricted {
		return true
	}
	for _, scope := range scopes {
		if !allowed.Has(scope) {
			return false
		}
	}
	return true
}

// Specs returns the configuration as sorted "service:level" entries.
func (c *Config) Specs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.levels))
	for service, level := range c.levels {
		out = append(out, service+":"+level)
	}
	sort.Strings(out)
	return out
}

func (c *Config) String() string {
	if c == nil {
		return "unrestricted"
	}
	return strings.Join(c.Specs(), ",")
}
