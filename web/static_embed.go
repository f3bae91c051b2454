// ABOUTME: Embeds web/static/ CSS and JS files for serving under /static/.
// ABOUTME: Only css/ and js/ are shipped; anything else dropped into static/ stays out of the binary.
package web

import "embed"

//go:embed static/css/*.css static/js/*.js
var StaticFS embed.FS
