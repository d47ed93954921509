// Command seed-injector reassembles a chunked, gzip-compressed OCI
// image tarball, verifies its digest, and serves the resulting image
// over a read-only OCI Distribution v2 HTTP API.
package main

import "github.com/zarf-dev/seed-injector/internal/cli"

func main() {
	cli.Execute()
}
