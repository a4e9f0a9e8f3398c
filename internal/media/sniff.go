// Copyright 2025 Scriptweave Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package media

import (
	"fmt"
	"os"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// sniffHeaderSize is enough bytes for filetype to match every container
// signature it knows about.
const sniffHeaderSize = 8192

// Sniff reads the file header at path and returns the matched type.
// Returns an error when the content is not a recognized video container.
func Sniff(path string) (types.Type, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Unknown, err
	}
	defer f.Close()

	head := make([]byte, sniffHeaderSize)
	n, err := f.Read(head)
	if err != nil {
		return types.Unknown, err
	}
	kind, err := filetype.Match(head[:n])
	if err != nil {
		return types.Unknown, err
	}
	if kind == types.Unknown || !filetype.IsVideo(head[:n]) {
		return types.Unknown, fmt.Errorf("unsupported upload format for %q", path)
	}
	return kind, nil
}

// SniffExtension returns the container extension ("mp4", "mov", ...) for the
// file at path.
func SniffExtension(path string) (string, error) {
	kind, err := Sniff(path)
	if err != nil {
		return "", err
	}
	return kind.Extension, nil
}
