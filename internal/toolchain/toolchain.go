package toolchain

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/AKirsch1/Deploy-to-Grading/internal/execx"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// adoptiumBinaryURL is the Adoptium "latest GA binary" endpoint. It
// redirects to the actual JDK archive for the requested platform.
const adoptiumBinaryURL = "https://api.adoptium.net/v3/binary/latest/%s/ga/%s/%s/jdk/hotspot/normal/eclipse"

// javaVersionRegex extracts the version string from `java -version`
// output, e.g. `openjdk version "17.0.8" 2023-07-18`.
var javaVersionRegex = regexp.MustCompile(`version "([0-9][0-9._]*)"`)

// Provisioner ensures a Java runtime matching the assignment's toolchain
// spec is available before any gradle metric runs.
type Provisioner struct {
	// InstallRoot is where downloaded JDKs are unpacked,
	// e.g. .d2g/toolchains. Required.
	InstallRoot string

	client *resty.Client
}

func NewProvisioner(installRoot string) *Provisioner {
	return &Provisioner{
		InstallRoot: installRoot,
		client:      resty.New(),
	}
}

// Ensure makes the requested runtime available and returns its JAVA_HOME,
// or "" when a suitable runtime is already on the PATH. Only the temurin
// distribution is downloadable; other distributions must pre-exist on
// the host.
func (p *Provisioner) Ensure(spec types.Toolchain, logger zerolog.Logger) (javaHome string, err error) {
	spec = spec.Resolve()

	if p.hostJavaMatches(spec.Version, logger) {
		logger.Info().Str("version", spec.Version).Msg("✓ Host Java runtime matches, skipping download")
		return "", nil
	}

	installDir := filepath.Join(p.InstallRoot, fmt.Sprintf("%s-%s", spec.Distribution, spec.Version))
	if home, ok := p.existingInstall(installDir); ok {
		logger.Info().Str("java_home", home).Msg("✓ Using previously provisioned Java runtime")
		return home, nil
	}

	if spec.Distribution != types.DefaultToolchainDistribution {
		return "", fmt.Errorf("no Java %s (%s) runtime found and only %q can be downloaded", spec.Version, spec.Distribution, types.DefaultToolchainDistribution)
	}

	logger.Info().Str("version", spec.Version).Str("distribution", spec.Distribution).Msg("Provisioning Java runtime...")

	archivePath, err := p.download(spec.Version, logger)
	if err != nil {
		return "", err
	}
	defer os.Remove(archivePath)

	if err := untarGz(archivePath, installDir); err != nil {
		return "", fmt.Errorf("failed to unpack JDK archive: %w", err)
	}

	home, ok := p.existingInstall(installDir)
	if !ok {
		return "", fmt.Errorf("unpacked JDK archive at %s does not contain a bin/java", installDir)
	}

	logger.Info().Str("java_home", home).Msg("✓ Java runtime provisioned")
	return home, nil
}

// hostJavaMatches probes `java -version` on the PATH.
func (p *Provisioner) hostJavaMatches(wantVersion string, logger zerolog.Logger) bool {
	res, err := execx.Run("", nil, "java", "-version")
	if err != nil || res.Failed() {
		return false
	}
	// java prints version info to stderr
	major, ok := ParseJavaMajor(res.Stderr)
	if !ok {
		major, ok = ParseJavaMajor(res.Stdout)
	}
	if !ok {
		logger.Debug().Msg("Could not parse host java -version output")
		return false
	}
	return major == wantVersion
}

// existingInstall looks for a JAVA_HOME (dir containing bin/java) at or
// one level below installDir, since JDK tarballs wrap their content in a
// jdk-<version> folder.
func (p *Provisioner) existingInstall(installDir string) (string, bool) {
	candidates := []string{installDir}
	if entries, err := os.ReadDir(installDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				candidates = append(candidates, filepath.Join(installDir, entry.Name()))
			}
		}
	}

	javaBin := "java"
	if runtime.GOOS == "windows" {
		javaBin = "java.exe"
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(filepath.Join(candidate, "bin", javaBin)); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func (p *Provisioner) download(version string, logger zerolog.Logger) (string, error) {
	if err := os.MkdirAll(p.InstallRoot, 0755); err != nil {
		return "", fmt.Errorf("failed to create toolchain directory %s: %w", p.InstallRoot, err)
	}

	url := BinaryURL(version, runtime.GOOS, runtime.GOARCH)
	archivePath := filepath.Join(p.InstallRoot, fmt.Sprintf("jdk-%s.tar.gz", version))

	logger.Debug().Str("url", url).Str("target", archivePath).Msg("Downloading JDK archive")

	res, err := p.client.R().
		SetOutputFileName(archivePath).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download JDK from %s: %w", url, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("JDK download from %s failed with status %s", url, res.Status())
	}

	return archivePath, nil
}

// BinaryURL builds the Adoptium download URL for a version and platform.
// goos/goarch use Go naming and are mapped to the API's terms.
func BinaryURL(version, goos, goarch string) string {
	apiOS := goos
	if goos == "darwin" {
		apiOS = "mac"
	}
	apiArch := goarch
	switch goarch {
	case "amd64":
		apiArch = "x64"
	case "arm64":
		apiArch = "aarch64"
	case "386":
		apiArch = "x32"
	}
	return fmt.Sprintf(adoptiumBinaryURL, version, apiOS, apiArch)
}

// ParseJavaMajor extracts the major Java version from `java -version`
// output. Pre-9 versions report as 1.x and map to x.
func ParseJavaMajor(output string) (string, bool) {
	match := javaVersionRegex.FindStringSubmatch(output)
	if match == nil {
		return "", false
	}

	parts := strings.Split(match[1], ".")
	if parts[0] == "1" && len(parts) > 1 {
		// e.g. `java version "1.8.0_392"` -> 8
		return strings.SplitN(parts[1], "_", 2)[0], true
	}
	return parts[0], true
}

// untarGz unpacks a .tar.gz archive into destDir, refusing entries that
// would escape it.
func untarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read gzip stream of %s: %w", archivePath, err)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar stream of %s: %w", archivePath, err)
		}

		target := filepath.Join(destDir, filepath.Clean(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode).Perm())
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("failed to extract %s: %w", target, err)
			}
			out.Close()
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", target, err)
			}
		}
	}
}
