package ai

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// detectBestProvider picks the execution provider for this platform.
// CUDA is never chosen automatically.
func detectBestProvider() string {
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return "coreml"
	}
	return "cpu"
}

// ResolveProvider turns "auto" (or empty) into a concrete provider name.
func ResolveProvider(requested string) string {
	if requested == "" || requested == "auto" {
		return detectBestProvider()
	}
	return requested
}

var (
	onnxInitMu      sync.Mutex
	onnxInitialized bool
)

// onnxLibrarySearchPaths are tried when no library path is configured.
var onnxLibrarySearchPaths = []string{
	"./libonnxruntime.so",
	"./libonnxruntime.dylib",
	"/usr/local/lib/libonnxruntime.so",
	"/usr/lib/libonnxruntime.so",
	"/opt/homebrew/lib/libonnxruntime.dylib",
	"/usr/local/lib/libonnxruntime.dylib",
}

// initONNXRuntime loads the shared onnxruntime library once per process.
func initONNXRuntime(libPath string) error {
	onnxInitMu.Lock()
	defer onnxInitMu.Unlock()

	if onnxInitialized {
		return nil
	}

	if libPath == "" {
		for _, p := range onnxLibrarySearchPaths {
			if _, err := os.Stat(p); err == nil {
				libPath = p
				break
			}
		}
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime (lib=%q): %w", libPath, err)
	}
	onnxInitialized = true
	return nil
}
