// This file is part of c2t.
//
// c2t is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// c2t is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with c2t.  If not, see <https://www.gnu.org/licenses/>.

package paths

import (
	"os"
	"path/filepath"
)

// the base path for all resources. the getBasePath() function should be used
// instead of this value directly.
const baseResourcePath = ".c2t"

// ResourcePath returns the resource path with the base directory for c2t
// work files prepended. The directory is not created.
func ResourcePath(resource ...string) string {
	p := make([]string, 0, len(resource)+1)
	p = append(p, getBasePath())
	p = append(p, resource...)
	return filepath.Join(p...)
}

// MkResourcePath is like ResourcePath() but creates the directory if it does
// not exist. The last element of resource is considered to be a directory.
func MkResourcePath(resource ...string) (string, error) {
	p := ResourcePath(resource...)
	if err := os.MkdirAll(p, 0755); err != nil {
		return "", err
	}
	return p, nil
}

// getBasePath() returns baseResourcePath if it exists in the current
// directory. Otherwise the path is placed in the user's cache directory.
// The C2T_WORK environment variable overrides both.
func getBasePath() string {
	if p, ok := os.LookupEnv("C2T_WORK"); ok && p != "" {
		return p
	}

	if _, err := os.Stat(baseResourcePath); err == nil {
		return baseResourcePath
	}

	cache, err := os.UserCacheDir()
	if err != nil {
		return baseResourcePath
	}
	return filepath.Join(cache, baseResourcePath[1:])
}
