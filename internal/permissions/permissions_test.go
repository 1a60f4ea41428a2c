package permissions

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopesForLevel_Cumulative(t *testing.T) {
	for _, service := range Services() {
		levels := ValidLevels(service)
		for i := range levels {
			upper, err := ScopesForLevel(service, levels[i])
			require.NoError(t, err)

			for j := 0; j < i; j++ {
				lower, err := ScopesForLevel(service, levels[j])
				require.NoError(t, err)
				for _, scope := range lower {
					assert.Contains(t, upper, scope, "%s:%s should include %s from %s", service, levels[i], scope, levels[j])
				}
			}
		}
	}
}

func TestScopesForLevel(t *testing.T) {
	tests := []struct {
		name    string
		service string
		level   string
		want    []string
	}{
		{
			name:    "gmail readonly",
			service: "gmail",
			level:   "readonly",
			want:    []string{GmailReadonly},
		},
		{
			name:    "gmail organize",
			service: "gmail",
			level:   "organize",
			want:    []string{GmailReadonly, GmailLabels, GmailModify},
		},
		{
			name:    "gmail full",
			service: "gmail",
			level:   "full",
			want:    []string{GmailReadonly, GmailLabels, GmailModify, GmailCompose, GmailSend, GmailSettingsBasic},
		},
		{
			name:    "docs full deduplicates drive.readonly",
			service: "docs",
			level:   "full",
			want:    []string{DocsReadonly, DriveReadonly, DocsWrite, DriveFile},
		},
		{
			name:    "search full deduplicates cse",
			service: "search",
			level:   "full",
			want:    []string{CustomSearch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScopesForLevel(tt.service, tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScopesForLevel_Errors(t *testing.T) {
	_, err := ScopesForLevel("fax", "readonly")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownService))
	var svcErr *UnknownServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "fax", svcErr.Service)
	assert.Contains(t, svcErr.Valid, "gmail")

	_, err = ScopesForLevel("gmail", "bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownLevel))
	var lvlErr *UnknownLevelError
	require.True(t, errors.As(err, &lvlErr))
	assert.Equal(t, "bogus", lvlErr.Level)
	assert.Equal(t, []string{"readonly", "organize", "drafts", "send", "full"}, lvlErr.Valid)
	assert.Contains(t, err.Error(), "Unknown level 'bogus' for service 'gmail'")
}

func TestParseSpecs(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    map[string]string
		wantErr error
	}{
		{
			name:  "valid specs",
			specs: []string{"gmail:organize", "drive:full"},
			want:  map[string]string{"gmail": "organize", "drive": "full"},
		},
		{
			name:  "surrounding whitespace is trimmed",
			specs: []string{" gmail:send ", "calendar:readonly"},
			want:  map[string]string{"gmail": "send", "calendar": "readonly"},
		},
		{
			name:    "unknown level",
			specs:   []string{"gmail:bogus"},
			wantErr: ErrUnknownLevel,
		},
		{
			name:    "unknown service",
			specs:   []string{"fax:readonly"},
			wantErr: ErrUnknownService,
		},
		{
			name:    "duplicate service",
			specs:   []string{"gmail:readonly", "gmail:full"},
			wantErr: ErrDuplicateService,
		},
		{
			name:    "missing colon",
			specs:   []string{"gmail"},
			wantErr: ErrMalformedSpec,
		},
		{
			name:    "first invalid entry aborts whole batch",
			specs:   []string{"drive:readonly", "nope", "gmail:send"},
			wantErr: ErrMalformedSpec,
		},
		{
			name:    "split on first colon only",
			specs:   []string{"gmail:read:only"},
			wantErr: ErrUnknownLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseSpecs(tt.specs)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Levels())
		})
	}
}

func TestParseSpecs_Empty(t *testing.T) {
	cfg, err := ParseSpecs(nil)
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.True(t, cfg.Unrestricted())
}

func TestMalformedSpecError_Message(t *testing.T) {
	_, err := ParseSpecs([]string{"gmail"})
	require.Error(t, err)
	assert.Equal(t, "Invalid permission format: 'gmail'. Expected 'service:level' (e.g., 'gmail:organize', 'drive:readonly')", err.Error())
}

func TestAllowedScopes_Unrestricted(t *testing.T) {
	var cfg *Config

	scopes, restricted := cfg.AllowedScopes()
	assert.False(t, restricted)
	assert.Nil(t, scopes)
	assert.True(t, cfg.Allows(GmailSend))
	assert.True(t, cfg.AllowsAll(GmailSend, Drive))
	assert.Equal(t, "unrestricted", cfg.String())
}

func TestAllowedScopes_Union(t *testing.T) {
	cfg, err := ParseSpecs([]string{"gmail:organize", "docs:readonly", "drive:readonly"})
	require.NoError(t, err)

	scopes, restricted := cfg.AllowedScopes()
	require.True(t, restricted)
	assert.Equal(t, []string{
		DocsReadonly,
		DriveReadonly,
		GmailLabels,
		GmailModify,
		GmailReadonly,
	}, scopes.Sorted())

	assert.True(t, cfg.Allows(GmailModify))
	assert.False(t, cfg.Allows(GmailSend))
	assert.False(t, cfg.AllowsAll(GmailReadonly, GmailCompose))
	assert.Equal(t, "docs:readonly,drive:readonly,gmail:organize", cfg.String())
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(map[string]string{"gmail": "drafts"})
	require.NoError(t, err)
	level, ok := cfg.Level("gmail")
	assert.True(t, ok)
	assert.Equal(t, "drafts", level)

	_, err = NewConfig(map[string]string{"gmail": "everything"})
	assert.True(t, errors.Is(err, ErrUnknownLevel))

	cfg, err = NewConfig(nil)
	require.NoError(t, err)
	assert.True(t, cfg.Unrestricted())
}

func TestConfig_LevelsIsACopy(t *testing.T) {
	cfg, err := ParseSpecs([]string{"gmail:readonly"})
	require.NoError(t, err)

	levels := cfg.Levels()
	levels["gmail"] = "full"

	level, _ := cfg.Level("gmail")
	assert.Equal(t, "readonly", level)
	assert.False(t, cfg.Allows(GmailSend))
}

func TestLadder(t *testing.T) {
	ladder := Ladder("gmail")
	require.Len(t, ladder, 5)
	ladder[0].Scopes[0] = "tampered"

	scopes, err := ScopesForLevel("gmail", "readonly")
	require.NoError(t, err)
	assert.Equal(t, []string{GmailReadonly}, scopes)

	assert.Nil(t, Ladder("unknown"))
}

func TestTableInvariants(t *testing.T) {
	for service, levels := range serviceLevels {
		seen := map[string]bool{}
		for _, l := range levels {
			if seen[l.Name] {
				t.Errorf("service %s has duplicate level %s", service, l.Name)
			}
			seen[l.Name] = true
			if len(l.Scopes) == 0 {
				t.Errorf("service %s level %s has no scopes", service, l.Name)
			}
			for _, scope := range l.Scopes {
				if !strings.HasPrefix(scope, "https://www.googleapis.com/auth/") {
					t.Errorf("service %s level %s has unexpected scope %q", service, l.Name, scope)
				}
			}
		}
	}
}
