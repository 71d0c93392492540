package theme

import _ "embed"

// defaultCSS styles the panel surfaces when the user has no style.css.
//
//go:embed styles/default.css
var defaultCSS string
