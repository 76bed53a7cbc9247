package img2bag

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// Find returns the regular files in dir in natural order. Symlinks to files
// are followed; everything else that is not a regular file is ignored.
func Find(dir string, recursive bool) ([]string, error) {
	var found []string

	if !recursive {
		des, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("readdir: %w", err)
		}
		for _, de := range des {
			path := filepath.Join(dir, de.Name())
			if isRegular(path) {
				found = append(found, path)
			}
		}
		sortNatural(found)
		return found, nil
	}

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if isRegular(path) {
				klog.V(2).Infof("found %s", path)
				found = append(found, path)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Warningf("unable to walk %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	sortNatural(found)
	return found, nil
}

func isRegular(path string) bool {
	st, err := os.Stat(path)
	if err != nil {
		klog.V(1).Infof("stat failure: %v", err)
		return false
	}
	return st.Mode().IsRegular()
}
