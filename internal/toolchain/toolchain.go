// Package toolchain locates and invokes the Flutter and Android SDK
// executables that every other subsystem shells out to.
//
// Discovery is best-effort: a missing executable is recorded as an empty
// path rather than an error, so that listing operations can fail soft and
// the doctor command can report exactly what is absent.
package toolchain

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Toolchain holds resolved paths to the external SDK executables.
// An empty field means the executable could not be found.
type Toolchain struct {
	// Flutter is the path to the flutter executable.
	Flutter string

	// ADB is the path to the Android Debug Bridge executable.
	ADB string

	// Emulator is the path to the Android emulator executable.
	Emulator string
}

// Discover resolves the SDK executables from well-known environment
// variables, falling back to PATH lookup.
//
// Resolution order:
//   - flutter: $FLUTTER_HOME/bin/flutter, then PATH
//   - adb: $ANDROID_HOME/platform-tools/adb (or $ANDROID_SDK_ROOT), then PATH
//   - emulator: $ANDROID_HOME/emulator/emulator (or $ANDROID_SDK_ROOT), then PATH
//
// Returns:
//   - *Toolchain: resolved paths, possibly with empty fields
func Discover() *Toolchain {
	tc := &Toolchain{}

	if home := os.Getenv("FLUTTER_HOME"); home != "" {
		tc.Flutter = findExecutable(filepath.Join(home, "bin", "flutter"))
	}
	if tc.Flutter == "" {
		tc.Flutter = lookPath("flutter")
	}

	sdkRoot := os.Getenv("ANDROID_HOME")
	if sdkRoot == "" {
		sdkRoot = os.Getenv("ANDROID_SDK_ROOT")
	}

	if sdkRoot != "" {
		tc.ADB = findExecutable(filepath.Join(sdkRoot, "platform-tools", "adb"))
		tc.Emulator = findExecutable(filepath.Join(sdkRoot, "emulator", "emulator"))
	}
	if tc.ADB == "" {
		tc.ADB = lookPath("adb")
	}
	if tc.Emulator == "" {
		tc.Emulator = lookPath("emulator")
	}

	return tc
}

// Complete reports whether every executable was found.
func (t *Toolchain) Complete() bool {
	return t.Flutter != "" && t.ADB != "" && t.Emulator != ""
}

// Missing returns the names of the executables that were not found.
func (t *Toolchain) Missing() []string {
	var missing []string
	if t.Flutter == "" {
		missing = append(missing, "flutter")
	}
	if t.ADB == "" {
		missing = append(missing, "adb")
	}
	if t.Emulator == "" {
		missing = append(missing, "emulator")
	}
	return missing
}

// findExecutable returns path if it exists and is a regular file,
// accounting for the .exe/.bat suffixes on Windows.
func findExecutable(path string) string {
	candidates := []string{path}
	if runtime.GOOS == "windows" {
		candidates = []string{path + ".exe", path + ".bat", path}
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// lookPath wraps exec.LookPath, swallowing the not-found error.
func lookPath(name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}
