package registry

import "testing"

func TestParseV2Path(t *testing.T) {
	cases := []struct {
		path     string
		wantKind pathKind
		wantName string
		wantRef  string
		wantOK   bool
	}{
		{"/v2/doom-game/manifests/0.0.1", kindManifest, "doom-game", "0.0.1", true},
		{"/v2/ns1/ns2/ns3/img/manifests/v1", kindManifest, "ns1/ns2/ns3/img", "v1", true},
		{"/v2/doom-game/blobs/sha256:cafe", kindBlob, "doom-game", "sha256:cafe", true},
		{"/v2/doom-game/tags/list", kindUnknown, "", "", false},
		{"/v2/manifests-repo/manifests/latest", kindManifest, "manifests-repo", "latest", true},
		{"/not-v2/foo", kindUnknown, "", "", false},
		{"/v2/blobs/manifests/blobs/sha256:abc", kindBlob, "blobs/manifests", "sha256:abc", true},
	}

	for _, c := range cases {
		kind, name, ref, ok := parseV2Path(c.path)
		if ok != c.wantOK || kind != c.wantKind || name != c.wantName || ref != c.wantRef {
			t.Errorf("parseV2Path(%q) = (%v, %q, %q, %v), want (%v, %q, %q, %v)",
				c.path, kind, name, ref, ok, c.wantKind, c.wantName, c.wantRef, c.wantOK)
		}
	}
}
