package cache

import (
	"os"
	"path/filepath"
	"strings"
)

// localPath returns the filesystem path of URL when it is not a remote location.
func localPath(URL string) (string, bool) {
	if rest, ok := strings.CutPrefix(URL, "file://"); ok {
		return rest, true
	}
	if strings.Contains(URL, "://") {
		return "", false
	}
	return URL, true
}

// acquire takes an exclusive lock next to a local cache file so concurrent runs
// do not interleave Persist calls. Remote locations are not locked.
func acquire(URL string) (func(), error) {
	path, ok := localPath(URL)
	if !ok {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() {
		_ = unlockFile(f)
		_ = f.Close()
	}, nil
}
