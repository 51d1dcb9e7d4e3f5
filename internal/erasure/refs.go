// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package erasure

import (
	"net/url"
	"strings"
)

// objectKeyFromRef resolves a stored artifact reference to an object key in
// the given bucket. References appear in three forms: raw keys, s3:// URLs,
// and https URLs in both path-style and virtual-host addressing. References
// that point at a different bucket cannot be resolved and are skipped.
func objectKeyFromRef(ref, bucket string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	if !strings.Contains(ref, "://") {
		key := strings.TrimPrefix(ref, "/")
		return key, key != ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	path := strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case "s3":
		if u.Host != bucket {
			return "", false
		}
		return path, path != ""
	case "http", "https":
		// Virtual-host addressing: <bucket>.s3.<region>.amazonaws.com/<key>
		if strings.HasPrefix(u.Host, bucket+".") {
			return path, path != ""
		}
		// Path-style addressing: <endpoint>/<bucket>/<key>
		if rest, found := strings.CutPrefix(path, bucket+"/"); found {
			return rest, rest != ""
		}
		return "", false
	default:
		return "", false
	}
}
