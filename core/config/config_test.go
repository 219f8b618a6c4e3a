package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(NewViper(t.TempDir()))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "127.0.0.1:4040", cfg.Addr())
}

func TestLoadProjectFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	content := `apps_dir: workspaces
build_dir: dist
server:
  port: 5050
watch:
  debounce: 2s
deploy:
  command: bos-cli deploy {account} {dir}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "widgetforge.yaml"), []byte(content), 0o644))

	cfg, err := Load(NewViper(root))
	require.NoError(t, err)
	require.Equal(t, "workspaces", cfg.AppsDir)
	require.Equal(t, "modules", cfg.ModulesDir)
	require.Equal(t, "dist", cfg.BuildDir)
	require.Equal(t, 5050, cfg.Server.Port)
	require.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	require.Equal(t, "bos-cli deploy {account} {dir}", cfg.Deploy.Command)

	bc, err := cfg.BuildContext(root)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "workspaces"), bc.AppsDir)
	require.Equal(t, filepath.Join(root, "dist"), bc.BuildDir)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Parallel()

	v := NewViper(t.TempDir())
	v.Set("server.port", 0)
	_, err := Load(v)
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WIDGETFORGE_BUILD_DIR", "out")

	cfg, err := Load(NewViper(t.TempDir()))
	require.NoError(t, err)
	require.Equal(t, "out", cfg.BuildDir)
}
