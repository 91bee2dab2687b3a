package appfs

import (
	"embed"
	"io"
	"io/fs"
)

//go:embed migrations/*.sql all:templates assets
var FS embed.FS

// EmailTemplates returns the email templates directory.
func EmailTemplates() fs.FS {
	sub, err := fs.Sub(FS, "templates/email")
	if err != nil {
		panic(err) // embedded path, cannot fail
	}
	return sub
}

// CommonPasswords opens the gzipped list of passwords users may not pick.
func CommonPasswords() (io.ReadCloser, error) {
	return FS.Open("assets/common-passwords.txt.gz")
}
