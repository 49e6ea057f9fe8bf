package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfse/internal"
	"nfse/internal/config"
)

func validOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		BaseDir:   t.TempDir(),
		StartDate: "01/01/2024",
		EndDate:   "31/01/2024",
		Sets:      internal.AllSets(),
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validOptions(t)))

	opts := validOptions(t)
	opts.BaseDir = ""
	assert.Error(t, Validate(opts))

	opts = validOptions(t)
	opts.BaseDir = filepath.Join(opts.BaseDir, "nao-existe")
	assert.Error(t, Validate(opts))

	opts = validOptions(t)
	opts.StartDate = "01/01/AAAA"
	assert.Error(t, Validate(opts))

	opts = validOptions(t)
	opts.EndDate = "2024-01-31"
	assert.Error(t, Validate(opts))

	opts = validOptions(t)
	opts.Sets = nil
	assert.Error(t, Validate(opts))
}

func TestRunStopsOnInvalidOptions(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	svc := NewService(cfg, nil, internal.Listeners{})

	opts := validOptions(t)
	opts.BaseDir = filepath.Join(opts.BaseDir, "nao-existe")

	_, err = svc.Run(context.Background(), opts)
	require.Error(t, err)

	// validation failed before any directory was created
	_, statErr := os.Stat(opts.BaseDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, ensureDirs(base))

	for _, set := range internal.AllSets() {
		for _, sub := range []string{"XML", "PDF"} {
			info, err := os.Stat(filepath.Join(base, string(set), sub))
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		}
	}
}
