package toolchain

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryURL(t *testing.T) {
	tests := []struct {
		name    string
		version string
		goos    string
		goarch  string
		want    string
	}{
		{
			name:    "Linux amd64",
			version: "17",
			goos:    "linux",
			goarch:  "amd64",
			want:    "https://api.adoptium.net/v3/binary/latest/17/ga/linux/x64/jdk/hotspot/normal/eclipse",
		},
		{
			name:    "macOS arm64",
			version: "21",
			goos:    "darwin",
			goarch:  "arm64",
			want:    "https://api.adoptium.net/v3/binary/latest/21/ga/mac/aarch64/jdk/hotspot/normal/eclipse",
		},
		{
			name:    "Windows 386",
			version: "11",
			goos:    "windows",
			goarch:  "386",
			want:    "https://api.adoptium.net/v3/binary/latest/11/ga/windows/x32/jdk/hotspot/normal/eclipse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BinaryURL(tt.version, tt.goos, tt.goarch))
		})
	}
}

func TestParseJavaMajor(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
		ok     bool
	}{
		{
			name:   "Modern JDK",
			output: `openjdk version "17.0.8" 2023-07-18`,
			want:   "17",
			ok:     true,
		},
		{
			name:   "Single component version",
			output: `openjdk version "21" 2023-09-19`,
			want:   "21",
			ok:     true,
		},
		{
			name:   "Legacy 1.8 scheme",
			output: `java version "1.8.0_392"`,
			want:   "8",
			ok:     true,
		},
		{
			name:   "No version line",
			output: "command not found",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseJavaMajor(tt.output)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func writeTarGz(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0755,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestUntarGz(t *testing.T) {
	t.Run("Unpacks entries", func(t *testing.T) {
		dir := t.TempDir()
		archive := filepath.Join(dir, "jdk.tar.gz")
		writeTarGz(t, archive, map[string]string{
			"jdk-17.0.8/bin/java": "#!/bin/sh\n",
			"jdk-17.0.8/release":  "JAVA_VERSION=17\n",
		})

		dest := filepath.Join(dir, "out")
		require.NoError(t, untarGz(archive, dest))

		data, err := os.ReadFile(filepath.Join(dest, "jdk-17.0.8", "release"))
		require.NoError(t, err)
		assert.Equal(t, "JAVA_VERSION=17\n", string(data))
	})

	t.Run("Rejects path escape", func(t *testing.T) {
		dir := t.TempDir()
		archive := filepath.Join(dir, "evil.tar.gz")
		writeTarGz(t, archive, map[string]string{
			"../escape": "nope",
		})

		err := untarGz(archive, filepath.Join(dir, "out"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "escapes destination directory")
	})
}

func TestExistingInstall(t *testing.T) {
	p := NewProvisioner(t.TempDir())

	t.Run("No install", func(t *testing.T) {
		_, ok := p.existingInstall(filepath.Join(p.InstallRoot, "temurin-17"))
		assert.False(t, ok)
	})

	t.Run("Nested JDK folder", func(t *testing.T) {
		installDir := filepath.Join(p.InstallRoot, "temurin-17")
		binDir := filepath.Join(installDir, "jdk-17.0.8", "bin")
		require.NoError(t, os.MkdirAll(binDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(binDir, "java"), []byte("#!/bin/sh\n"), 0755))

		home, ok := p.existingInstall(installDir)
		assert.True(t, ok)
		assert.Equal(t, filepath.Join(installDir, "jdk-17.0.8"), home)
	})
}
