// pkg/unarc/formats/formats.go

// Package formats registers every decoder bundled with unarc.
// Blank-import it to enable zip, tar (plain, gz, zst, xz) and rar:
//
//	import _ "github.com/codedread/unarc/pkg/unarc/formats"
package formats

import (
	_ "github.com/codedread/unarc/pkg/unarc/rardec"
	_ "github.com/codedread/unarc/pkg/unarc/tardec"
	_ "github.com/codedread/unarc/pkg/unarc/zipdec"
)
