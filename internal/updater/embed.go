package updater

import _ "embed"

// updaterBinary is the prebuilt cmd/updater helper, placed at
// bin/updater.bin by the release build before this package is
// compiled. DownloadAndApply extracts it to a temp file and hands off to
// it, since a running process cannot replace its own executable in place.
//
//go:embed bin/updater.bin
var updaterBinary []byte
