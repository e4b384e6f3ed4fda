/*
 * Copyright 2022 The Gremlins Authors
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

package campaign

import (
	"os"
	"path/filepath"
	"time"

	"github.com/trailofbits/mewt/internal/execution"
)

// now is indirected for tests that need deterministic timestamps.
var now = time.Now

// writeFile overwrites path with text. It removes the file first: the
// existing file may be a hard link shared with another workdir, and
// truncating in place would mutate that shared inode too.
func writeFile(path, text string) error {
	info, statErr := os.Stat(path)
	mode := os.FileMode(0o644)
	if statErr == nil {
		mode = info.Mode()
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return execution.NewExitErr(execution.IO, "removing %s before rewrite: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(text), mode); err != nil {
		return execution.NewExitErr(execution.IO, "writing %s: %v", path, err)
	}

	return nil
}

func dirOf(path string) string {
	dir := filepath.Dir(path)
	if dir == "" {
		return "."
	}

	return dir
}

func filepathMatch(pattern, path string) (bool, error) {
	return filepath.Match(pattern, path)
}
