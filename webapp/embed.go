// Package webapp provides embedded static files for the file index web app.
package webapp

import "embed"

//go:embed index.html css js
var Assets embed.FS
